package tui

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Action records one edit made by the playground, with enough state to
// undo it.
type Action struct {
	Type      ActionType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	// Label is the accepted candidate, empty for other actions.
	Label string `json:"label,omitempty"`
	// Before and BeforeCursor restore the input when the action is undone.
	Before       string `json:"before"`
	BeforeCursor int    `json:"before_cursor"`
	After        string `json:"after"`
}

// ActionType represents the type of action.
type ActionType string

const (
	ActionAccept ActionType = "accept"
	ActionClear  ActionType = "clear"
)

// ActionHistory manages the history of actions for undo support.
type ActionHistory struct {
	actions []Action
	maxSize int
}

// NewActionHistory creates a new action history.
func NewActionHistory(maxSize int) *ActionHistory {
	return &ActionHistory{
		actions: make([]Action, 0),
		maxSize: maxSize,
	}
}

// Push adds an action to the history, dropping the oldest one when full.
func (h *ActionHistory) Push(action Action) {
	h.actions = append(h.actions, action)
	if len(h.actions) > h.maxSize {
		h.actions = h.actions[1:]
	}
}

// Pop removes and returns the last action.
func (h *ActionHistory) Pop() (Action, bool) {
	if len(h.actions) == 0 {
		return Action{}, false
	}
	action := h.actions[len(h.actions)-1]
	h.actions = h.actions[:len(h.actions)-1]
	return action, true
}

// Peek returns the last action without removing it.
func (h *ActionHistory) Peek() (Action, bool) {
	if len(h.actions) == 0 {
		return Action{}, false
	}
	return h.actions[len(h.actions)-1], true
}

// CanUndo returns true if there's an action to undo.
func (h *ActionHistory) CanUndo() bool {
	return len(h.actions) > 0
}

// Clear clears all history.
func (h *ActionHistory) Clear() {
	h.actions = make([]Action, 0)
}

// All returns all actions.
func (h *ActionHistory) All() []Action {
	return h.actions
}

// Len returns the number of actions in history.
func (h *ActionHistory) Len() int {
	return len(h.actions)
}

// ExportResult is a playground session written by ExportToJSON.
type ExportResult struct {
	Timestamp     time.Time `json:"timestamp"`
	Query         string    `json:"query"`
	Cursor        int       `json:"cursor"`
	Context       string    `json:"context"`
	Tables        []string  `json:"tables"`
	SchemaVersion uint64    `json:"schema_version"`
	Actions       []Action  `json:"actions"`
	Duration      string    `json:"duration"`
}

// ExportToJSON writes the session to filename.
func ExportToJSON(filename string, result ExportResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}

	return nil
}

// UndoLastAction restores the input to its state before the last action.
func UndoLastAction(m *Model) error {
	action, ok := m.history.Pop()
	if !ok {
		return errors.New("nothing to undo")
	}
	m.setInput(action.Before, action.BeforeCursor)
	return nil
}
