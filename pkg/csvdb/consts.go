package csvdb

const (
	cRModePlain      = "plain"
	cRModeGZip       = "gzip"
	cTblIniExt       = "tbl.ini"
	cConfSection     = "conf"
	cColumnsSection  = "columns"
	cAttrsSection    = "attrs"
	cColumnKeyPrefix = "col"
	CWriteModeAppend = "a"
	CWriteModeWrite  = "w"
)
