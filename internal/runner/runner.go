// Package runner provides a custom analyzer runner with statistics and exit codes.
package runner

import (
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"

	"github.com/MirrexOne/sqlctx/internal/cli"
	"github.com/MirrexOne/sqlctx/internal/messages"
)

// ExitCode represents the exit code for the analyzer.
type ExitCode int

const (
	// ExitSuccess indicates no issues found
	ExitSuccess ExitCode = 0
	// ExitWarnings indicates warnings were found
	ExitWarnings ExitCode = 1
	// ExitErrors indicates errors were found
	ExitErrors ExitCode = 2
	// ExitFailure indicates analysis failed
	ExitFailure ExitCode = 3
)

// Options configures a run.
type Options struct {
	// Patterns are package patterns as accepted by go list. Empty means ".".
	Patterns []string
	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string
	// Tests includes test files.
	Tests bool
	// ShowStats prints a summary after the diagnostics.
	ShowStats bool
}

// Severity returns the severity of a diagnostic category. Unknown tables
// are errors; a wrong qualified column is a warning since the qualifier
// resolution is heuristic.
func Severity(category string) string {
	if category == string(messages.UnknownTable) {
		return "error"
	}
	return "warning"
}

// Run executes the analyzer with statistics collection and proper exit codes.
func Run(analyzer *analysis.Analyzer, output *cli.Output, opts Options) ExitCode {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	output.Debug("Loading packages: %v", patterns)

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes |
			packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:   opts.Dir,
		Tests: opts.Tests,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		output.Error("Failed to load packages: %v", err)
		return ExitFailure
	}

	if packages.PrintErrors(pkgs) > 0 {
		output.Debug("Some packages had errors during loading")
	}

	stats := cli.NewStatistics()
	stats.PackagesLoaded = len(pkgs)

	code := analyze(analyzer, output, pkgs, stats)

	stats.Finalize()
	if opts.ShowStats {
		output.PrintStatistics(stats)
	}
	return code
}

// analyze runs the analyzer on every loaded package without errors.
func analyze(analyzer *analysis.Analyzer, output *cli.Output, pkgs []*packages.Package, stats *cli.Statistics) ExitCode {
	hasErrors := false
	hasWarnings := false

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			output.Debug("Package %s has errors, skipping", pkg.PkgPath)
			continue
		}

		output.Trace("Analyzing package: %s", pkg.PkgPath)
		stats.FilesAnalyzed += len(pkg.Syntax)

		pass := &analysis.Pass{
			Analyzer:   analyzer,
			Fset:       pkg.Fset,
			Files:      pkg.Syntax,
			OtherFiles: pkg.OtherFiles,
			Pkg:        pkg.Types,
			TypesInfo:  pkg.TypesInfo,
			TypesSizes: pkg.TypesSizes,
			ResultOf:   make(map[*analysis.Analyzer]any),
			Report: func(d analysis.Diagnostic) {
				severity := Severity(d.Category)
				file := report(output, pkg.Fset, d, severity)
				stats.AddIssue(d.Category, file, severity == "error")

				if severity == "error" {
					hasErrors = true
				} else {
					hasWarnings = true
				}
			},
			ImportObjectFact: func(obj types.Object, ptr analysis.Fact) bool {
				return false
			},
			ImportPackageFact: func(pkg *types.Package, ptr analysis.Fact) bool {
				return false
			},
			ExportObjectFact:  func(obj types.Object, fact analysis.Fact) {},
			ExportPackageFact: func(fact analysis.Fact) {},
		}

		// Run requires first
		for _, req := range analyzer.Requires {
			output.Trace("Running required analyzer: %s", req.Name)
			result, err := req.Run(pass)
			if err != nil {
				output.Error("Required analyzer %s failed: %v", req.Name, err)
				return ExitFailure
			}
			pass.ResultOf[req] = result
		}

		if _, err := analyzer.Run(pass); err != nil {
			output.Error("Analysis failed for package %s: %v", pkg.PkgPath, err)
			return ExitFailure
		}
	}

	if hasErrors {
		return ExitErrors
	}
	if hasWarnings {
		return ExitWarnings
	}
	return ExitSuccess
}

// report prints one diagnostic and returns the file it belongs to.
func report(output *cli.Output, fset *token.FileSet, d analysis.Diagnostic, severity string) string {
	if !d.Pos.IsValid() {
		output.Warning("%s", d.Message)
		return ""
	}

	position := fset.Position(d.Pos)
	output.PrintDiagnostic(position.Filename, position.Line, position.Column, severity, d.Message)
	if output.Verbose() {
		explanation := messages.GetEnhancedMessage(messages.MessageType(d.Category), true)
		output.Info("    %s", strings.ReplaceAll(explanation, "\n", "\n    "))
	}
	return position.Filename
}
