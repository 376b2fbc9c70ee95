package metaquery

const (
	CDefaultProvenanceColumn = "Source_File"
	CExportFileName          = "new_meta_schema.xlsx"
	CExportSheetName         = "SelectedColumn"
	CNoDefinition            = "No Definition"

	cDefinitionMarker = "definition"
	cKeptTableName    = "kept"
	cRemovedTableName = "removed"
	cAttrProvenance   = "provenance"
	cAttrKindPrefix   = "kind."
	cAttrIndexColumn  = "_row_index"

	cSnapshotFlushRows = 1000
)

// cell texts shown as "No Definition"
var emptyMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"none": true,
}
