package csvdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"metaQuery/pkg/utils"

	"github.com/pkg/errors"
)

type CsvDB struct {
	Tables  map[string]*TableDef
	baseDir string
}

// NewCsvDB(baseDir) opens the directory and loads every table definition in it
func NewCsvDB(baseDir string) (*CsvDB, error) {
	db := new(CsvDB)
	db.Tables = make(map[string]*TableDef)
	db.baseDir = baseDir
	if err := utils.EnsureDir(baseDir); err != nil {
		return nil, err
	}

	iniFiles, err := filepath.Glob(filepath.Join(baseDir, "*."+cTblIniExt))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, iniFile := range iniFiles {
		td, err := loadTableDef(iniFile)
		if err != nil {
			return nil, err
		}
		db.Tables[td.tableName] = td
	}
	return db, nil
}

func (db *CsvDB) CreateTable(tableName string,
	columns []string, useGzip bool) (*Table, error) {
	if db.TableExists(tableName) {
		return nil, errors.New(fmt.Sprintf("The table %s exists", tableName))
	}
	if len(columns) == 0 {
		return nil, errors.New(fmt.Sprintf("The table %s has no columns", tableName))
	}
	td := newTableDef(db.baseDir, tableName, columns, useGzip)
	t := newTable(td)
	if err := t.FlushOverwrite(); err != nil {
		return nil, err
	}
	db.Tables[tableName] = td
	return t, nil
}

func (db *CsvDB) GetTable(tableName string) (*Table, error) {
	td, ok := db.Tables[tableName]
	if !ok {
		return nil, errors.New(fmt.Sprintf("The table %s does not exist", tableName))
	}
	return newTable(td), nil
}

func (db *CsvDB) TableExists(tableName string) bool {
	td, ok := db.Tables[tableName]
	if !ok {
		return false
	}
	return utils.PathExist(td.iniFile)
}

func (db *CsvDB) TableNames() []string {
	names := make([]string, 0, len(db.Tables))
	for name := range db.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (db *CsvDB) DropTable(tableName string) error {
	td, ok := db.Tables[tableName]
	if !ok {
		return nil
	}
	if err := newTable(td).Drop(); err != nil {
		return err
	}
	delete(db.Tables, tableName)
	return nil
}

func removeIfExists(path string) error {
	if utils.PathExist(path) {
		if err := os.Remove(path); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
