// Package cli provides command-line interface utilities.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// Color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Output handles formatted output with colors and verbosity levels.
type Output struct {
	writer      io.Writer
	errorWriter io.Writer
	useColors   bool
	verbose     int // 0 = normal, 1 = verbose, 2 = very verbose
	quiet       bool
}

// NewOutput creates a new Output instance writing to w and errw.
func NewOutput(w, errw io.Writer, useColors bool, verbose int, quiet bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}
	return &Output{
		writer:      w,
		errorWriter: errw,
		useColors:   useColors,
		verbose:     verbose,
		quiet:       quiet,
	}
}

// Verbose reports whether verbose output was requested.
func (o *Output) Verbose() bool {
	return o.verbose > 0
}

// color applies color code if colors are enabled.
func (o *Output) color(colorCode, text string) string {
	if !o.useColors {
		return text
	}
	return colorCode + text + ColorReset
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.errorWriter, "%s\n", o.color(ColorRed, "ERROR: "+msg))
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...any) {
	if o.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.writer, "%s\n", o.color(ColorYellow, "WARNING: "+msg))
}

// Info prints an info message.
func (o *Output) Info(format string, args ...any) {
	if o.quiet {
		return
	}
	fmt.Fprintf(o.writer, format+"\n", args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...any) {
	if o.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.writer, "%s\n", o.color(ColorGreen, msg))
}

// Debug prints a debug message (only in verbose mode).
func (o *Output) Debug(format string, args ...any) {
	if o.verbose < 1 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.errorWriter, "%s\n", o.color(ColorGray, "DEBUG: "+msg))
}

// Trace prints a trace message (only in very verbose mode).
func (o *Output) Trace(format string, args ...any) {
	if o.verbose < 2 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.errorWriter, "%s\n", o.color(ColorGray, "TRACE: "+msg))
}

// Section prints a section header.
func (o *Output) Section(title string) {
	if o.quiet {
		return
	}
	fmt.Fprintf(o.writer, "\n%s\n", o.color(ColorBold+ColorCyan, title))
	fmt.Fprintf(o.writer, "%s\n", strings.Repeat("─", len(title)))
}

// JSON writes v as indented JSON. Quiet mode does not apply.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintContext prints the analysis of a cursor position.
func (o *Output) PrintContext(ctx sqlcontext.Context, description string) {
	tw := tabwriter.NewWriter(o.writer, 0, 4, 2, ' ', 0)
	row := func(key, value string) {
		fmt.Fprintf(tw, "%s\t%s\n", o.color(ColorBold, key+":"), value)
	}

	row("context", o.color(ColorCyan, ctx.Kind.String())+"  "+o.color(ColorGray, description))
	row("tables", strings.Join(ctx.Tables, ", "))

	aliases := make([]string, 0, len(ctx.Aliases))
	for alias, table := range ctx.Aliases {
		aliases = append(aliases, alias+" → "+table)
	}
	slices.Sort(aliases)
	row("aliases", strings.Join(aliases, ", "))

	if ctx.IsAfterDot {
		row("qualifier", ctx.Qualifier)
		row("current table", ctx.CurrentTable)
	}
	_ = tw.Flush()
}

// PrintResult prints completion candidates as a table, best first.
func (o *Output) PrintResult(r *completion.Result) {
	if r == nil || len(r.Candidates) == 0 {
		o.Info("%s", o.color(ColorGray, "no completions"))
		return
	}

	if o.verbose > 0 {
		fmt.Fprintf(o.writer, "%s %s, replace [%d,%d)\n",
			o.color(ColorBold, "context:"), r.Context.Kind, r.Span.From, r.Span.To)
	}

	tw := tabwriter.NewWriter(o.writer, 0, 4, 2, ' ', 0)
	for _, c := range r.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			o.color(kindColor(c.Kind), c.Label), c.Kind, c.Boost, o.color(ColorGray, c.Detail))
	}
	_ = tw.Flush()
}

func kindColor(k completion.ItemKind) string {
	switch k {
	case completion.KindTable:
		return ColorBlue
	case completion.KindColumn:
		return ColorGreen
	case completion.KindFunction:
		return ColorYellow
	default:
		return ColorBold
	}
}

// Statistics holds analysis statistics.
type Statistics struct {
	PackagesLoaded  int
	FilesAnalyzed   int
	TotalIssues     int
	Errors          int
	Warnings        int
	ByType          map[string]int
	Duration        time.Duration
	FilesWithIssues map[string]int
	StartTime       time.Time
}

// NewStatistics creates a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		ByType:          make(map[string]int),
		FilesWithIssues: make(map[string]int),
		StartTime:       time.Now(),
	}
}

// AddIssue adds an issue to statistics.
func (s *Statistics) AddIssue(issueType, file string, isError bool) {
	s.TotalIssues++
	if isError {
		s.Errors++
	} else {
		s.Warnings++
	}
	s.ByType[issueType]++
	if file != "" {
		s.FilesWithIssues[file]++
	}
}

// Finalize completes the statistics.
func (s *Statistics) Finalize() {
	s.Duration = time.Since(s.StartTime)
}

// PrintStatistics prints formatted statistics.
func (o *Output) PrintStatistics(stats *Statistics) {
	if o.quiet && stats.TotalIssues == 0 {
		return
	}

	o.Section("Analysis Summary")

	fmt.Fprintf(o.writer, "Packages loaded: %s\n",
		o.color(ColorBold, fmt.Sprintf("%d", stats.PackagesLoaded)))
	fmt.Fprintf(o.writer, "Files analyzed:  %s\n",
		o.color(ColorBold, fmt.Sprintf("%d", stats.FilesAnalyzed)))
	fmt.Fprintf(o.writer, "Duration:        %s\n",
		o.color(ColorGray, stats.Duration.Round(time.Millisecond).String()))

	if stats.TotalIssues == 0 {
		fmt.Fprintf(o.writer, "\n%s\n",
			o.color(ColorGreen+ColorBold, "✓ No issues found!"))
		return
	}

	fmt.Fprintf(o.writer, "\nIssues found:    %s\n",
		o.color(ColorBold, fmt.Sprintf("%d", stats.TotalIssues)))

	if stats.Errors > 0 {
		fmt.Fprintf(o.writer, "  Errors:        %s\n",
			o.color(ColorRed+ColorBold, fmt.Sprintf("%d", stats.Errors)))
	}

	if stats.Warnings > 0 {
		fmt.Fprintf(o.writer, "  Warnings:      %s\n",
			o.color(ColorYellow, fmt.Sprintf("%d", stats.Warnings)))
	}

	if len(stats.ByType) > 0 && o.verbose > 0 {
		types := make([]string, 0, len(stats.ByType))
		for issueType := range stats.ByType {
			types = append(types, issueType)
		}
		slices.Sort(types)

		fmt.Fprintf(o.writer, "\nBreakdown by type:\n")
		for _, issueType := range types {
			fmt.Fprintf(o.writer, "  - %s: %d\n", issueType, stats.ByType[issueType])
		}
	}

	if len(stats.FilesWithIssues) > 0 && o.verbose > 0 {
		fmt.Fprintf(o.writer, "\nFiles with issues: %d\n", len(stats.FilesWithIssues))
		if o.verbose > 1 {
			files := make([]string, 0, len(stats.FilesWithIssues))
			for file := range stats.FilesWithIssues {
				files = append(files, file)
			}
			slices.Sort(files)
			for _, file := range files {
				fmt.Fprintf(o.writer, "  - %s\n", file)
			}
		}
	}
}

// PrintDiagnostic prints a single diagnostic with context.
func (o *Output) PrintDiagnostic(file string, line, col int, severity, message string) {
	if o.quiet && severity == "warning" {
		return
	}

	// Format: file:line:col: severity: message
	location := fmt.Sprintf("%s:%d:%d:", file, line, col)

	var severityColored string
	switch severity {
	case "error":
		severityColored = o.color(ColorRed+ColorBold, "error")
	case "warning":
		severityColored = o.color(ColorYellow, "warning")
	default:
		severityColored = severity
	}

	fmt.Fprintf(o.writer, "%s %s %s\n",
		o.color(ColorBold, location),
		severityColored+":",
		message)
}

// IsTerminal checks if f is a terminal (for color support detection).
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShouldUseColors determines if colors should be used based on environment.
func ShouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(os.Stdout)
}
