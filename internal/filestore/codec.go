// Package filestore persists the task store as a CSV file and provides a
// store that saves after every successful mutation.
package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/tasktracker/internal/date"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

// Header is the first line of every data file.
var Header = []string{"id", "type", "name", "status", "description", "duration", "startTime", "epic"}

const fieldCount = 8

// Encode writes the header followed by one line per record. Delimiters,
// quotes and line breaks inside text fields are escaped by CSV quoting.
func Encode(w io.Writer, records []*task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range records {
		if err := cw.Write(encodeRecord(t)); err != nil {
			return fmt.Errorf("writing record %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRecord(t *task.Task) []string {
	row := make([]string, fieldCount)
	row[0] = strconv.Itoa(t.ID)
	row[1] = string(t.Kind)
	row[2] = t.Name
	row[3] = string(t.Status)
	row[4] = t.Description
	// Epic schedules are derived and recomputed on load.
	if t.Kind != task.KindEpic {
		if t.Duration != nil {
			row[5] = strconv.FormatInt(date.Minutes(*t.Duration), 10)
		}
		if t.StartTime != nil {
			row[6] = date.Format(*t.StartTime)
		}
	}
	if t.Kind == task.KindSubtask {
		row[7] = strconv.Itoa(t.EpicID)
	}
	return row
}

// LineError reports a malformed line in a data file.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Decode reads records written by Encode. An empty input yields no records.
// Blank lines are skipped.
func Decode(r io.Reader) ([]*task.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &LineError{Line: 1, Err: err}
	}
	if !slices.Equal(header, Header) {
		return nil, &LineError{Line: 1, Err: fmt.Errorf("unexpected header %q", strings.Join(header, ","))}
	}

	var out []*task.Task
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &LineError{Line: pe.Line, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		t, err := decodeRecord(row)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		out = append(out, t)
	}
}

func decodeRecord(row []string) (*task.Task, error) {
	if len(row) < 4 { //nolint:mnd // id, type, name, status are mandatory
		return nil, fmt.Errorf("expected %d fields, got %d", fieldCount, len(row))
	}
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	id, err := strconv.Atoi(field(0))
	if err != nil {
		return nil, task.ValidateTaskID(field(0))
	}
	kind := task.Kind(field(1))
	if err := task.ValidateKind(string(kind)); err != nil {
		return nil, err
	}
	status := task.Status(field(3))
	if err := task.ValidateStatus(string(status)); err != nil {
		return nil, err
	}

	t := &task.Task{
		ID:     id,
		Kind:   kind,
		Name:   row[2],
		Status: status,
	}
	if len(row) > 4 {
		t.Description = row[4]
	}
	if kind == task.KindEpic {
		return t, nil
	}

	if s := field(5); s != "" {
		m, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, task.FormatDuration(s, err)
		}
		if m < 0 {
			return nil, task.ValidateDuration(m)
		}
		d := time.Duration(m) * time.Minute
		t.Duration = &d
	}
	if s := field(6); s != "" {
		st, err := date.Parse(s)
		if err != nil {
			return nil, task.FormatStartTime(s, err)
		}
		t.StartTime = &st
	}
	if kind == task.KindSubtask {
		epicID, err := strconv.Atoi(field(7))
		if err != nil {
			return nil, task.ValidateTaskID(field(7))
		}
		t.EpicID = epicID
	}
	return t, nil
}
