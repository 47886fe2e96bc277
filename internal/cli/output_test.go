package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

func newTestOutput(useColors bool, verbose int, quiet bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewOutput(&out, &errOut, useColors, verbose, quiet), &out, &errOut
}

func TestColorCodes(t *testing.T) {
	colors := []string{
		ColorReset, ColorRed, ColorGreen, ColorYellow,
		ColorBlue, ColorCyan, ColorGray, ColorBold,
	}
	for _, c := range colors {
		if !strings.HasPrefix(c, "\033[") {
			t.Errorf("Color code %q should start with ANSI escape", c)
		}
	}
}

func TestNewOutput(t *testing.T) {
	out := NewOutput(nil, nil, true, 1, false)

	if out.writer == nil || out.errorWriter == nil {
		t.Fatal("NewOutput() should default to stdout and stderr")
	}
	if !out.useColors {
		t.Error("useColors should be true")
	}
	if !out.Verbose() {
		t.Error("Verbose() should be true")
	}
}

func TestOutputColor(t *testing.T) {
	colored, _, _ := newTestOutput(true, 0, false)
	if got := colored.color(ColorRed, "test"); got != ColorRed+"test"+ColorReset {
		t.Errorf("color() = %q", got)
	}

	plain, _, _ := newTestOutput(false, 0, false)
	if got := plain.color(ColorRed, "test"); got != "test" {
		t.Errorf("color() = %q, want %q", got, "test")
	}
}

func TestOutputLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose int
		quiet   bool
		call    func(o *Output)
		wantOut string
		wantErr string
	}{
		{"error", 0, false, func(o *Output) { o.Error("bad %s", "thing") }, "", "ERROR: bad thing"},
		{"error when quiet", 0, true, func(o *Output) { o.Error("bad") }, "", "ERROR: bad"},
		{"warning", 0, false, func(o *Output) { o.Warning("careful") }, "WARNING: careful", ""},
		{"warning when quiet", 0, true, func(o *Output) { o.Warning("careful") }, "", ""},
		{"info", 0, false, func(o *Output) { o.Info("n=%d", 3) }, "n=3", ""},
		{"info when quiet", 0, true, func(o *Output) { o.Info("n=%d", 3) }, "", ""},
		{"success", 0, false, func(o *Output) { o.Success("done") }, "done", ""},
		{"debug hidden", 0, false, func(o *Output) { o.Debug("x") }, "", ""},
		{"debug verbose", 1, false, func(o *Output) { o.Debug("x") }, "", "DEBUG: x"},
		{"trace needs very verbose", 1, false, func(o *Output) { o.Trace("x") }, "", ""},
		{"trace very verbose", 2, false, func(o *Output) { o.Trace("x") }, "", "TRACE: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, out, errOut := newTestOutput(false, tt.verbose, tt.quiet)
			tt.call(o)

			if tt.wantOut == "" && out.Len() > 0 {
				t.Errorf("stdout = %q, want nothing", out.String())
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want %q", out.String(), tt.wantOut)
			}
			if tt.wantErr == "" && errOut.Len() > 0 {
				t.Errorf("stderr = %q, want nothing", errOut.String())
			}
			if !strings.Contains(errOut.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestOutputSection(t *testing.T) {
	o, out, _ := newTestOutput(false, 0, false)
	o.Section("Schema")
	if got := out.String(); got != "\nSchema\n──────\n" {
		t.Errorf("Section() = %q", got)
	}

	q, qout, _ := newTestOutput(false, 0, true)
	q.Section("Schema")
	if qout.Len() != 0 {
		t.Error("quiet mode should not print sections")
	}
}

func TestJSON(t *testing.T) {
	o, out, _ := newTestOutput(false, 0, true)
	if err := o.JSON(map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if got["a"] != 1 {
		t.Errorf("got %v", got)
	}
}

func TestPrintContext(t *testing.T) {
	o, out, _ := newTestOutput(false, 0, false)
	o.PrintContext(sqlcontext.Context{
		Kind:         sqlcontext.KindSelectColumns,
		Tables:       []string{"users", "orders"},
		Aliases:      map[string]string{"u": "users", "o": "orders"},
		IsAfterDot:   true,
		Qualifier:    "u",
		CurrentTable: "users",
	}, "More columns")

	got := out.String()
	for _, want := range []string{
		"select_columns", "More columns",
		"users, orders",
		"o → orders, u → users",
		"qualifier:", "current table:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PrintContext() output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintContextWithoutDot(t *testing.T) {
	o, out, _ := newTestOutput(false, 0, false)
	o.PrintContext(sqlcontext.Context{Kind: sqlcontext.KindAfterFrom}, "Tables")
	if strings.Contains(out.String(), "qualifier:") {
		t.Errorf("qualifier should only be printed after a dot:\n%s", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	t.Run("candidates", func(t *testing.T) {
		o, out, _ := newTestOutput(false, 1, false)
		o.PrintResult(&completion.Result{
			Span: completion.Span{From: 7, To: 9},
			Candidates: []completion.Candidate{
				{Label: "users", Kind: completion.KindTable, Boost: 10, Detail: "Columns: id"},
				{Label: "COUNT", Kind: completion.KindFunction, Boost: 8},
			},
			Context: sqlcontext.Context{Kind: sqlcontext.KindAfterFrom},
		})

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
		}
		if !strings.Contains(lines[0], "after_from") || !strings.Contains(lines[0], "[7,9)") {
			t.Errorf("header = %q", lines[0])
		}
		if f := strings.Fields(lines[1]); len(f) < 3 || f[0] != "users" || f[1] != "table" || f[2] != "10" {
			t.Errorf("row = %q", lines[1])
		}
	})

	t.Run("nil", func(t *testing.T) {
		o, out, _ := newTestOutput(false, 0, false)
		o.PrintResult(nil)
		if !strings.Contains(out.String(), "no completions") {
			t.Errorf("PrintResult(nil) = %q", out.String())
		}
	})
}

func TestStatisticsAddIssue(t *testing.T) {
	stats := NewStatistics()
	if stats.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}

	stats.AddIssue("unknown_table", "a.go", false)
	stats.AddIssue("unknown_table", "a.go", true)
	stats.AddIssue("unknown_column", "", false)

	if stats.TotalIssues != 3 || stats.Errors != 1 || stats.Warnings != 2 {
		t.Errorf("totals = %d/%d/%d, want 3/1/2", stats.TotalIssues, stats.Errors, stats.Warnings)
	}
	if stats.ByType["unknown_table"] != 2 {
		t.Errorf("ByType[unknown_table] = %d, want 2", stats.ByType["unknown_table"])
	}
	if len(stats.FilesWithIssues) != 1 || stats.FilesWithIssues["a.go"] != 2 {
		t.Errorf("FilesWithIssues = %v", stats.FilesWithIssues)
	}
}

func TestPrintStatistics(t *testing.T) {
	t.Run("no issues", func(t *testing.T) {
		o, out, _ := newTestOutput(false, 0, false)
		stats := NewStatistics()
		stats.FilesAnalyzed = 4
		o.PrintStatistics(stats)

		if !strings.Contains(out.String(), "No issues found") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("quiet without issues", func(t *testing.T) {
		o, out, _ := newTestOutput(false, 0, true)
		o.PrintStatistics(NewStatistics())
		if out.Len() != 0 {
			t.Error("Quiet mode with no issues should not output")
		}
	})

	t.Run("verbose breakdown", func(t *testing.T) {
		o, out, _ := newTestOutput(false, 2, false)
		stats := NewStatistics()
		stats.AddIssue("unknown_table", "b.go", false)
		stats.AddIssue("unknown_column", "a.go", false)
		stats.Duration = 1500 * time.Microsecond
		o.PrintStatistics(stats)

		got := out.String()
		for _, want := range []string{"Issues found:", "Warnings:", "unknown_column: 1", "Files with issues: 2", "  - a.go\n  - b.go"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})
}

func TestPrintDiagnostic(t *testing.T) {
	tests := []struct {
		name     string
		severity string
		quiet    bool
		wantOut  bool
	}{
		{"error normal", "error", false, true},
		{"warning normal", "warning", false, true},
		{"error quiet", "error", true, true},
		{"warning quiet", "warning", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, out, _ := newTestOutput(false, 0, tt.quiet)
			o.PrintDiagnostic("main.go", 10, 5, tt.severity, "test message")

			hasOutput := out.Len() > 0
			if hasOutput != tt.wantOut {
				t.Errorf("PrintDiagnostic output = %v, want %v", hasOutput, tt.wantOut)
			}

			if tt.wantOut {
				output := out.String()
				if !strings.Contains(output, "main.go:10:5:") {
					t.Error("Should contain file location")
				}
				if !strings.Contains(output, "test message") {
					t.Error("Should contain message")
				}
			}
		})
	}
}

func TestPrintDiagnosticWithColors(t *testing.T) {
	o, out, _ := newTestOutput(true, 0, false)
	o.PrintDiagnostic("main.go", 10, 5, "error", "test message")

	if !strings.Contains(out.String(), ColorRed) {
		t.Error("Error severity should use red color")
	}
}

func TestShouldUseColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ShouldUseColors() {
		t.Error("NO_COLOR should disable colors")
	}
}
