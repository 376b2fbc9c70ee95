package csvdb

import (
	"metaQuery/pkg/utils"
	"strconv"
	"testing"
)

func TestCsvDb(t *testing.T) {
	checkIDsCount := func(tb *Table, title string,
		startID, endID, expectedCnt int) error {
		f := func(row []string) bool {
			v, _ := strconv.Atoi(row[0])
			if v >= startID && v <= endID {
				return true
			}
			return false
		}
		gotCnt := tb.Count(f)
		return utils.GetGotExpErr(title, gotCnt, expectedCnt)
	}

	for _, useGzip := range []bool{false, true} {
		rootDir, err := utils.InitTestDir("TestCsvDb_" + strconv.FormatBool(useGzip))
		if err != nil {
			t.Errorf("%v", err)
			return
		}

		db, err := NewCsvDB(rootDir)
		if err != nil {
			t.Errorf("%v", err)
			return
		}

		tb, err := db.CreateTable("concepts",
			[]string{"id", "name, full", "class"}, useGzip)
		if err != nil {
			t.Errorf("%v", err)
			return
		}
		if _, err := db.CreateTable("concepts", []string{"id"}, useGzip); err == nil {
			t.Errorf("expected error creating an existing table")
			return
		}

		if err := tb.InsertRow([]string{"id", "class"}, 1, "class1"); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := tb.InsertRow(nil, 2, "user2", "class2"); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := checkIDsCount(tb, "not flushed", 1, 2, 0); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := tb.Flush(); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := checkIDsCount(tb, "flushed", 1, 2, 2); err != nil {
			t.Errorf("%v", err)
			return
		}

		if err := tb.InsertRow(nil, "3", "user3", "class3"); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := tb.InsertRow(nil, 4); err == nil {
			t.Errorf("expected error for short row")
			return
		}
		tb.SetAttr("provenance", "Source_File")
		if err := tb.Flush(); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := checkIDsCount(tb, "appended", 1, 3, 3); err != nil {
			t.Errorf("%v", err)
			return
		}

		// reopen from the ini files
		db, err = NewCsvDB(rootDir)
		if err != nil {
			t.Errorf("%v", err)
			return
		}
		if !db.TableExists("concepts") {
			t.Errorf("table concepts does not exist after reopen")
			return
		}
		tb, err = db.GetTable("concepts")
		if err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("column with comma", tb.Columns()[1], "name, full"); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("rowCount", tb.RowCount(), 3); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("attr", tb.Attr("provenance"), "Source_File"); err != nil {
			t.Errorf("%v", err)
			return
		}
		rows, err := tb.ReadRows(func(v []string) bool { return v[2] == "class1" })
		if err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("selected", len(rows), 1); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("empty cell", rows[0][1], ""); err != nil {
			t.Errorf("%v", err)
			return
		}

		if err := tb.FlushOverwrite(); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := checkIDsCount(tb, "overwritten", 1, 3, 0); err != nil {
			t.Errorf("%v", err)
			return
		}
		if err := utils.GetGotExpErr("tables", len(db.TableNames()), 1); err != nil {
			t.Errorf("%v", err)
			return
		}

		if err := db.DropTable("concepts"); err != nil {
			t.Errorf("%v", err)
			return
		}
		if db.TableExists("concepts") {
			t.Errorf("table concepts still exists after DropTable")
			return
		}
	}
}

func TestGetMissingTable(t *testing.T) {
	rootDir, err := utils.InitTestDir("TestGetMissingTable")
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	db, err := NewCsvDB(rootDir)
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	if _, err := db.GetTable("nothing"); err == nil {
		t.Errorf("expected error for missing table")
	}
}
