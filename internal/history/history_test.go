package history

import (
	"sync"
	"testing"

	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

func newTask(id int) *task.Task {
	t := task.New("task", "")
	t.ID = id
	return t
}

func ids(list []*task.Task) []int {
	out := make([]int, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func TestRecordDeduplicatesAndMovesToEnd(t *testing.T) {
	h := New()
	h.Record(newTask(1))
	h.Record(newTask(2))
	h.Record(newTask(1))

	got := ids(h.List())
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("Expected [2 1], got %v", got)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	h := New()
	for i := 1; i <= Capacity+3; i++ {
		h.Record(newTask(i))
	}

	got := ids(h.List())
	if len(got) != Capacity {
		t.Fatalf("Expected %d entries, got %d", Capacity, len(got))
	}
	if got[0] != 4 {
		t.Errorf("Expected oldest surviving entry 4, got %d", got[0])
	}
	if got[Capacity-1] != Capacity+3 {
		t.Errorf("Expected newest entry %d, got %d", Capacity+3, got[Capacity-1])
	}
}

func TestRecordStoresSnapshot(t *testing.T) {
	h := New()
	orig := newTask(5)
	orig.Name = "before"
	h.Record(orig)

	orig.Name = "after"

	if got := h.List()[0].Name; got != "before" {
		t.Errorf("Expected snapshot name %q, got %q", "before", got)
	}
}

func TestListIsDefensiveCopy(t *testing.T) {
	h := New()
	h.Record(newTask(1))

	list := h.List()
	list[0].Name = "mutated"

	if got := h.List(); len(got) != 1 || got[0].Name == "mutated" {
		t.Errorf("Expected tracker contents unchanged, got %+v", got[0])
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := New()
	h.Record(newTask(1))
	h.Record(newTask(2))

	h.Remove(1)
	h.Remove(1)
	h.Remove(42)

	got := ids(h.List())
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected [2], got %v", got)
	}
}

func TestConcurrentRecord(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h.Record(newTask(id % 15))
			_ = h.List()
		}(i)
	}
	wg.Wait()

	if h.Len() > Capacity {
		t.Errorf("Expected at most %d entries, got %d", Capacity, h.Len())
	}
}
