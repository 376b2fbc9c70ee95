package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitList(t *testing.T) {
	got := SplitList(" a.csv, ,b.xlsx,")
	if err := GetGotExpErr("len", len(got), 2); err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := GetGotExpErr("1st", got[0], "a.csv"); err != nil {
		t.Errorf("%v", err)
	}
	if err := GetGotExpErr("2nd", got[1], "b.xlsx"); err != nil {
		t.Errorf("%v", err)
	}
}

func TestParseIntList(t *testing.T) {
	got, err := ParseIntList("3, 1,10")
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := GetGotExpErr("len", len(got), 3); err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := GetGotExpErr("last", got[2], 10); err != nil {
		t.Errorf("%v", err)
	}
	if _, err := ParseIntList("1,x"); err == nil {
		t.Errorf("expected error for non integer")
	}
}

func TestReplaceEnvVars(t *testing.T) {
	os.Setenv("METAQUERY_TEST_DIR", "/tmp/mq")
	got := ReplaceEnvVars("dataDir: {{ METAQUERY_TEST_DIR }}/data")
	if err := GetGotExpErr("replaced", got, "dataDir: /tmp/mq/data"); err != nil {
		t.Errorf("%v", err)
	}
}

func TestGetGlobFiles(t *testing.T) {
	rootDir, err := InitTestDir("TestGetGlobFiles")
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	for _, name := range []string{"b.csv", "a.csv", "c.txt"} {
		if err := os.WriteFile(filepath.Join(rootDir, name), []byte("x\n"), 0644); err != nil {
			t.Errorf("%v", err)
			return
		}
	}
	files, err := GetGlobFiles([]string{
		filepath.Join(rootDir, "*.csv"),
		filepath.Join(rootDir, "a.csv"),
	})
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := GetGotExpErr("count", len(files), 2); err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := GetGotExpErr("sorted", filepath.Base(files[0]), "a.csv"); err != nil {
		t.Errorf("%v", err)
	}

	if _, err := GetGlobFiles([]string{filepath.Join(rootDir, "*.xlsx")}); err == nil {
		t.Errorf("expected error when nothing matches")
	}
}
