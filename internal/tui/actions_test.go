package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestActionTypes(t *testing.T) {
	tests := []struct {
		action ActionType
		want   string
	}{
		{ActionAccept, "accept"},
		{ActionClear, "clear"},
	}

	for _, tt := range tests {
		if string(tt.action) != tt.want {
			t.Errorf("ActionType %v = %s, want %s", tt.action, tt.action, tt.want)
		}
	}
}

func TestNewActionHistory(t *testing.T) {
	h := NewActionHistory(10)

	if h == nil {
		t.Fatal("NewActionHistory returned nil")
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
	if h.CanUndo() {
		t.Error("CanUndo() should be false for empty history")
	}
}

func TestActionHistoryPushOverflow(t *testing.T) {
	h := NewActionHistory(3)

	for i := range 5 {
		h.Push(Action{Type: ActionAccept, BeforeCursor: i})
	}

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (max size)", h.Len())
	}
	all := h.All()
	if all[0].BeforeCursor != 2 {
		t.Errorf("oldest action = %d, want 2", all[0].BeforeCursor)
	}
	if all[2].BeforeCursor != 4 {
		t.Errorf("newest action = %d, want 4", all[2].BeforeCursor)
	}
}

func TestActionHistoryPopPeek(t *testing.T) {
	h := NewActionHistory(10)
	h.Push(Action{Label: "users"})
	h.Push(Action{Label: "orders"})

	if a, ok := h.Peek(); !ok || a.Label != "orders" {
		t.Errorf("Peek() = %+v, %v", a, ok)
	}
	if h.Len() != 2 {
		t.Errorf("Peek() should not remove, Len() = %d", h.Len())
	}

	if a, ok := h.Pop(); !ok || a.Label != "orders" {
		t.Errorf("Pop() = %+v, %v", a, ok)
	}
	if a, ok := h.Pop(); !ok || a.Label != "users" {
		t.Errorf("Pop() = %+v, %v", a, ok)
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop() on empty history should return false")
	}
	if _, ok := h.Peek(); ok {
		t.Error("Peek() on empty history should return false")
	}
}

func TestActionHistoryClear(t *testing.T) {
	h := NewActionHistory(10)
	h.Push(Action{Type: ActionAccept})
	h.Push(Action{Type: ActionClear})

	h.Clear()

	if h.Len() != 0 || h.CanUndo() {
		t.Errorf("history not cleared: Len() = %d", h.Len())
	}
}

func TestExportToJSON(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "session.json")

	result := ExportResult{
		Timestamp: time.Now(),
		Query:     "SELECT * FROM users",
		Cursor:    19,
		Context:   "after_from",
		Tables:    []string{"users"},
		Actions: []Action{
			{Type: ActionAccept, Label: "users", Before: "SELECT * FROM use", BeforeCursor: 17, After: "SELECT * FROM users"},
		},
		Duration: "1s",
	}

	if err := ExportToJSON(filename, result); err != nil {
		t.Fatalf("ExportToJSON() error = %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read exported file: %v", err)
	}

	var got ExportResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if got.Query != result.Query || len(got.Actions) != 1 || got.Actions[0].BeforeCursor != 17 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestExportToJSONBadPath(t *testing.T) {
	err := ExportToJSON(filepath.Join(t.TempDir(), "missing", "session.json"), ExportResult{})
	if err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestUndoLastActionEmpty(t *testing.T) {
	m := NewModel(testEngine(), "SELECT ")
	if err := UndoLastAction(&m); err == nil {
		t.Error("UndoLastAction() on empty history should fail")
	}
	if m.Query() != "SELECT " {
		t.Errorf("Query() = %q, want unchanged", m.Query())
	}
}
