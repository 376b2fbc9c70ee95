package csvdb

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

// TableDef is the ini backed description of a table: where its rows live,
// its columns and free form attributes.
type TableDef struct {
	tableName string
	path      string
	iniFile   string
	columns   []string
	useGzip   bool
	rowCount  int
	attrs     map[string]string
}

func newTableDef(baseDir, tableName string, columns []string, useGzip bool) *TableDef {
	td := new(TableDef)
	td.tableName = tableName
	td.columns = columns
	td.useGzip = useGzip
	td.iniFile = filepath.Join(baseDir, fmt.Sprintf("%s.%s", tableName, cTblIniExt))
	td.path = filepath.Join(baseDir, tableName+".csv")
	if useGzip {
		td.path += ".gz"
	}
	td.attrs = make(map[string]string)
	return td
}

func loadTableDef(iniFile string) (*TableDef, error) {
	fileName := filepath.Base(iniFile)
	if !strings.HasSuffix(fileName, "."+cTblIniExt) {
		return nil, errors.New("Not a proper extension : " + iniFile)
	}
	tableName := strings.TrimSuffix(fileName, "."+cTblIniExt)
	if tableName == "" || strings.Contains(tableName, ".") {
		return nil, errors.New("Not a proper filename format : " + iniFile)
	}

	cfg, err := ini.Load(iniFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	conf := cfg.Section(cConfSection)
	td := newTableDef(filepath.Dir(iniFile), tableName, nil,
		conf.Key("useGzip").MustBool(false))
	td.rowCount = conf.Key("rowCount").MustInt(0)

	// column keys are col0..colN so header names may hold commas
	n := conf.Key("columnCount").MustInt(-1)
	if n < 0 {
		return nil, errors.New("Not available ini file : " + iniFile)
	}
	colSec := cfg.Section(cColumnsSection)
	td.columns = make([]string, n)
	for i := 0; i < n; i++ {
		key := cColumnKeyPrefix + strconv.Itoa(i)
		if !colSec.HasKey(key) {
			return nil, errors.Errorf("column %d missing in %s", i, iniFile)
		}
		td.columns[i] = colSec.Key(key).String()
	}

	for _, k := range cfg.Section(cAttrsSection).Keys() {
		td.attrs[k.Name()] = k.String()
	}
	return td, nil
}

func (td *TableDef) save() error {
	cfg := ini.Empty()
	conf := cfg.Section(cConfSection)
	conf.Key("tableName").SetValue(td.tableName)
	conf.Key("columnCount").SetValue(strconv.Itoa(len(td.columns)))
	conf.Key("useGzip").SetValue(strconv.FormatBool(td.useGzip))
	conf.Key("rowCount").SetValue(strconv.Itoa(td.rowCount))

	colSec := cfg.Section(cColumnsSection)
	for i, col := range td.columns {
		colSec.Key(cColumnKeyPrefix + strconv.Itoa(i)).SetValue(col)
	}

	keys := make([]string, 0, len(td.attrs))
	for k := range td.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrSec := cfg.Section(cAttrsSection)
	for _, k := range keys {
		attrSec.Key(k).SetValue(td.attrs[k])
	}

	if err := cfg.SaveTo(td.iniFile); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (td *TableDef) Name() string {
	return td.tableName
}

func (td *TableDef) Columns() []string {
	return append([]string(nil), td.columns...)
}

// RowCount is the number of rows written by the last flush.
func (td *TableDef) RowCount() int {
	return td.rowCount
}

func (td *TableDef) Attr(key string) string {
	return td.attrs[key]
}

func (td *TableDef) SetAttr(key, value string) {
	td.attrs[key] = value
}
