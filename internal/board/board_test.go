package board

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func sample() []*task.Task {
	plain := task.New("Write report", "quarterly numbers").Schedule(base.Add(2*time.Hour), 30*time.Minute)
	plain.ID = 1
	plain.Status = task.StatusDone

	epic := task.NewEpic("Launch", "")
	epic.ID = 2
	epic.Status = task.StatusInProgress
	epic.SubtaskIDs = []int{3, 4}

	first := task.NewSubtask("Design", "mockups", 2).Schedule(base, time.Hour)
	first.ID = 3
	first.Status = task.StatusInProgress

	second := task.NewSubtask("Build", "", 2)
	second.ID = 4

	loose := task.New("Read mail", "")
	loose.ID = 5

	return []*task.Task{plain, epic, first, second, loose}
}

func ids(records []*task.Task) []int {
	out := make([]int, len(records))
	for i, t := range records {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	epicID := 2
	yes := true
	tests := []struct {
		name string
		opts FilterOptions
		want []int
	}{
		{"all", FilterOptions{}, []int{1, 2, 3, 4, 5}},
		{"kind", FilterOptions{Kinds: []task.Kind{task.KindSubtask}}, []int{3, 4}},
		{"status", FilterOptions{Statuses: []task.Status{task.StatusNew}}, []int{4, 5}},
		{"epic", FilterOptions{EpicID: &epicID}, []int{3, 4}},
		{"search", FilterOptions{Search: "MOCK"}, []int{3}},
		{"scheduled", FilterOptions{Scheduled: &yes}, []int{1, 3}},
		{"combined", FilterOptions{Kinds: []task.Kind{task.KindTask}, Statuses: []task.Status{task.StatusNew}}, []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sample(), tt.opts))
			if !equalIDs(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		field   string
		reverse bool
		want    []int
	}{
		{"id", true, []int{5, 4, 3, 2, 1}},
		{"name", false, []int{4, 3, 2, 5, 1}},
		{"status", false, []int{4, 5, 2, 3, 1}},
		{"kind", false, []int{1, 5, 2, 3, 4}},
		{"start", false, []int{3, 1, 2, 4, 5}},
		{"duration", false, []int{1, 3, 2, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			records := sample()
			Sort(records, tt.field, tt.reverse)
			if got := ids(records); !equalIDs(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidateSortField(t *testing.T) {
	if err := ValidateSortField("start"); err != nil {
		t.Errorf("Expected start to be valid, got %v", err)
	}
	if err := ValidateSortField("priority"); !clierr.Is(err, clierr.InvalidInput) {
		t.Errorf("Expected INVALID_INPUT, got %v", err)
	}
}

func TestListLimit(t *testing.T) {
	got := List(sample(), ListOptions{SortBy: "start", Limit: 2})
	if !equalIDs(ids(got), []int{3, 1}) {
		t.Errorf("Expected [3 1], got %v", ids(got))
	}
}

func TestSummary(t *testing.T) {
	ov := Summary("demo", sample())
	if ov.TotalRecords != 5 {
		t.Errorf("Expected 5 records, got %d", ov.TotalRecords)
	}
	if ov.PlannedMinutes != 90 {
		t.Errorf("Expected 90 planned minutes, got %d", ov.PlannedMinutes)
	}
	if ov.Scheduled != 2 {
		t.Errorf("Expected 2 scheduled, got %d", ov.Scheduled)
	}
	want := map[task.Status]int{task.StatusNew: 2, task.StatusInProgress: 2, task.StatusDone: 1}
	for _, s := range ov.Statuses {
		if s.Count != want[s.Status] {
			t.Errorf("Expected %d %s, got %d", want[s.Status], s.Status, s.Count)
		}
	}
	if ov.Kinds[2].Kind != task.KindSubtask || ov.Kinds[2].Count != 2 {
		t.Errorf("Expected 2 subtasks, got %+v", ov.Kinds[2])
	}
}

func TestGroupByEpic(t *testing.T) {
	g := GroupBy(sample(), "epic")
	if len(g.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(g.Groups))
	}
	if g.Groups[0].Key != noEpic || g.Groups[0].Total != 2 {
		t.Errorf("Expected %s with 2, got %+v", noEpic, g.Groups[0])
	}
	if g.Groups[1].Key != "#2 Launch" || g.Groups[1].Total != 3 {
		t.Errorf("Expected #2 Launch with 3, got %+v", g.Groups[1])
	}
}

func TestGroupByStatusOrder(t *testing.T) {
	g := GroupBy(sample(), "status")
	want := []string{"NEW", "IN_PROGRESS", "DONE"}
	for i, grp := range g.Groups {
		if grp.Key != want[i] {
			t.Errorf("Expected group %d to be %s, got %s", i, want[i], grp.Key)
		}
	}
	if err := ValidateGroupBy("assignee"); !clierr.Is(err, clierr.InvalidGroupBy) {
		t.Errorf("Expected INVALID_GROUP_BY, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	got, err := ParseIDs("3, 1,3,,2")
	if err != nil {
		t.Fatalf("Failed to parse IDs: %v", err)
	}
	if !equalIDs(got, []int{3, 1, 2}) {
		t.Errorf("Expected [3 1 2], got %v", got)
	}
	for _, in := range []string{"", "a", "0", "-4"} {
		if _, err := ParseIDs(in); !clierr.Is(err, clierr.InvalidTaskID) {
			t.Errorf("Expected INVALID_TASK_ID for %q, got %v", in, err)
		}
	}
}

func TestActivityLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")

	entries, err := ReadLog(path, 0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("Expected empty log, got %v %v", entries, err)
	}

	LogMutation(path, "create", task.KindTask, 1, "first")
	LogMutation(path, "move", task.KindSubtask, 4, "NEW -> DONE")
	LogMutation(path, "delete", task.KindEpic, 2, "")

	entries, err = ReadLog(path, 2)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "move" || entries[0].Kind != task.KindSubtask || entries[1].TaskID != 2 {
		t.Errorf("Unexpected entries %+v", entries)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("Failed to open log: %v", err)
	}
	_, _ = f.WriteString("not json\n{\"detail\":\"no action\"}\n")
	f.Close()

	entries, err = ReadLog(path, 0)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected malformed lines skipped, got %d entries", len(entries))
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be parsed")
	}
}
