package nodes

import (
	"testing"
)

func TestValuesClone(t *testing.T) {
	t.Parallel()
	var empty Values
	if empty.Clone() != nil {
		t.Error("expected nil clone of nil Values")
	}

	orig := Values{"a": 1}
	c := orig.Clone()
	c["b"] = 2
	if _, ok := orig["b"]; ok {
		t.Error("clone shares storage with original")
	}
}

func TestValuesKeys(t *testing.T) {
	t.Parallel()
	got := Values{"zwei": 2, "eins": 1, "drei": 3}.Keys("zwei")
	want := []string{"zwei", "drei", "eins"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestStatementClonesAreIndependent(t *testing.T) {
	t.Parallel()

	sel := &SelectStatement{Table: "t", Fields: []string{"a"}, Filter: Values{"a": 1}}
	sc := sel.Clone()
	sc.Fields[0] = "b"
	sc.Filter["x"] = 1
	if sel.Fields[0] != "a" || len(sel.Filter) != 1 {
		t.Error("select clone shares state")
	}

	ins := &InsertStatement{Into: "t", Values: Values{"a": 1}, Returning: []string{"id"}}
	ic := ins.Clone()
	ic.Values["b"] = 2
	ic.Returning[0] = "x"
	if len(ins.Values) != 1 || ins.Returning[0] != "id" {
		t.Error("insert clone shares state")
	}

	upd := &UpdateStatement{Table: "t", Set: Values{"a": 1}, Filter: Values{"id": 1}}
	uc := upd.Clone()
	delete(uc.Set, "a")
	uc.Filter["k"] = 2
	if len(upd.Set) != 1 || len(upd.Filter) != 1 {
		t.Error("update clone shares state")
	}

	del := &DeleteStatement{From: "t", Filter: Values{"id": 1}}
	dc := del.Clone()
	dc.Filter["k"] = 2
	if len(del.Filter) != 1 {
		t.Error("delete clone shares state")
	}
}

type recordingVisitor struct{ seen []string }

func (r *recordingVisitor) VisitSelect(*SelectStatement) (string, error) {
	r.seen = append(r.seen, "select")
	return "", nil
}
func (r *recordingVisitor) VisitInsert(*InsertStatement) (string, error) {
	r.seen = append(r.seen, "insert")
	return "", nil
}
func (r *recordingVisitor) VisitUpdate(*UpdateStatement) (string, error) {
	r.seen = append(r.seen, "update")
	return "", nil
}
func (r *recordingVisitor) VisitDelete(*DeleteStatement) (string, error) {
	r.seen = append(r.seen, "delete")
	return "", nil
}
func (r *recordingVisitor) VisitGrouping(*GroupingStatement) (string, error) {
	r.seen = append(r.seen, "grouping")
	return "", nil
}
func (r *recordingVisitor) VisitTransaction(*TransactionStatement) (string, error) {
	r.seen = append(r.seen, "transaction")
	return "", nil
}

func TestAcceptDispatch(t *testing.T) {
	t.Parallel()
	v := &recordingVisitor{}
	for _, n := range []Node{
		&SelectStatement{}, &InsertStatement{}, &UpdateStatement{},
		&DeleteStatement{}, &GroupingStatement{}, &TransactionStatement{},
	} {
		if _, err := n.Accept(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []string{"select", "insert", "update", "delete", "grouping", "transaction"}
	for i, w := range want {
		if v.seen[i] != w {
			t.Errorf("dispatch %d: expected %q, got %q", i, w, v.seen[i])
		}
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	source := Values{"tan": 123, "status": "new", "owner_id": "Willy"}
	got := Extract(source, []string{"status"}, true, true)
	if len(got) != 1 || got["status"] != "new" {
		t.Errorf("unexpected extract result %v", got)
	}
	if _, ok := source["status"]; ok {
		t.Error("pop did not remove key from source")
	}

	got = Extract(source, []string{"owner_id", "group_id"}, false, true)
	if len(got) != 1 || got["owner_id"] != "Willy" {
		t.Errorf("unexpected extract result %v", got)
	}
	if len(source) != 2 {
		t.Errorf("source changed without pop: %v", source)
	}

	form := Values{"group_id": "group_abc", "status": "", "zahl": "0"}
	got = Extract(form, []string{"group_id", "status", "zahl"}, true, true)
	if len(got) != 2 || got["zahl"] != "0" {
		t.Errorf("empty values not skipped: %v", got)
	}
	if len(form) != 0 {
		t.Errorf("expected emptied form, got %v", form)
	}

	keep := Values{"a": nil}
	got = Extract(keep, []string{"a"}, false, false)
	if _, ok := got["a"]; !ok {
		t.Error("nil value dropped without skipEmpty")
	}
}
