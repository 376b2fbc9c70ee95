package metaquery

import (
	"metaQuery/pkg/utils"
	"testing"
)

func TestGroupByParentOrder(t *testing.T) {
	tb := newTestTable([]string{"Parent", "Child"},
		[]string{"B", "b1"},
		[]string{"A", "a1"},
		[]string{"B", "b2"},
		[]string{"C", "c1"},
	)
	groups := GroupByParent(tb)
	if err := utils.GetGotExpErr("order", groupDisplays(groups), "B,A,C"); err != nil {
		t.Errorf("%v", err)
		return
	}
	if err := utils.GetGotExpErr("B rows", rowIndexes(groups[0].Rows), "0,2"); err != nil {
		t.Errorf("%v", err)
	}
	if err := utils.GetGotExpErr("B count", groups[0].Count(), 2); err != nil {
		t.Errorf("%v", err)
	}
}

func TestGroupByParentCaseInsensitive(t *testing.T) {
	tb := newTestTable([]string{"Parent", "Child"},
		[]string{"Vitals", "pulse"},
		[]string{"VITALS", "bp"},
		[]string{"vitals_x", "t"},
		[]string{"", "none"},
		[]string{"vitals", "temp"},
	)
	groups := GroupByParent(tb)
	if err := utils.GetGotExpErr("groups", len(groups), 3); err != nil {
		t.Errorf("%v", err)
		return
	}
	// display keeps the first row's casing
	if err := utils.GetGotExpErr("display", groups[0].Display, "Vitals"); err != nil {
		t.Errorf("%v", err)
	}
	if err := utils.GetGotExpErr("key", groups[0].Key, "vitals"); err != nil {
		t.Errorf("%v", err)
	}
	if err := utils.GetGotExpErr("rows", rowIndexes(groups[0].Rows), "0,1,4"); err != nil {
		t.Errorf("%v", err)
	}
	if err := utils.GetGotExpErr("empty parent", groups[2].Key, ""); err != nil {
		t.Errorf("%v", err)
	}
	if err := utils.GetGotExpErr("flatten", rowIndexes(FlattenGroups(groups)), "0,1,4,2,3"); err != nil {
		t.Errorf("%v", err)
	}
}

func TestGroupByParentEmpty(t *testing.T) {
	tb := newTestTable([]string{"Parent", "Child"})
	if err := utils.GetGotExpErr("no groups", len(GroupByParent(tb)), 0); err != nil {
		t.Errorf("%v", err)
	}
}
