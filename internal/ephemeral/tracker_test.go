package ephemeral

import (
	"context"
	"errors"
	"testing"
)

type fakeDeleter struct {
	deleted []int
	failOn  map[int]bool
}

func (f *fakeDeleter) Delete(_ context.Context, _ int64, messageID int) error {
	if f.failOn[messageID] {
		return errors.New("message to delete not found")
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func TestRetractAllBestEffort(t *testing.T) {
	tr := NewTracker()
	tr.Record(111, 1)
	tr.Record(111, 2)
	tr.Record(111, 3)
	tr.Record(222, 9)

	d := &fakeDeleter{failOn: map[int]bool{2: true}}
	res := tr.RetractAll(context.Background(), 111, d)

	if res.Retracted != 2 {
		t.Fatalf("retracted = %d, want 2", res.Retracted)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	// The list is cleared unconditionally, failures included.
	if tr.Pending(111) != 0 {
		t.Fatalf("pending(111) = %d, want 0", tr.Pending(111))
	}
	// Other recipients are untouched.
	if tr.Pending(222) != 1 {
		t.Fatalf("pending(222) = %d, want 1", tr.Pending(222))
	}
}

func TestRecordIgnoresDegenerateIDs(t *testing.T) {
	tr := NewTracker()
	tr.Record(0, 5)
	tr.Record(111, 0)
	if tr.Pending(0) != 0 || tr.Pending(111) != 0 {
		t.Fatal("degenerate ids were recorded")
	}
}

func TestRetractAllEmpty(t *testing.T) {
	tr := NewTracker()
	d := &fakeDeleter{}
	res := tr.RetractAll(context.Background(), 111, d)
	if res.Retracted != 0 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(d.deleted) != 0 {
		t.Fatal("deleter invoked for empty list")
	}
}
