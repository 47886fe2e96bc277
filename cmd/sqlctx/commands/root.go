// Package commands implements the sqlctx command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MirrexOne/sqlctx/internal/cli"
	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/configloader"
	"github.com/MirrexOne/sqlctx/internal/logging"
	"github.com/MirrexOne/sqlctx/internal/runner"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/version"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// ExitError makes Execute fail with a specific process exit code. The
// command has already reported what went wrong.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// options holds the flags shared by every command.
type options struct {
	configPath string
	verbose    int
	quiet      bool
	noColor    bool
	logJSON    bool

	schemaFile string
	dsn        string
	dialect    string
	qualify    string
}

func (o *options) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "settings file (default: nearest .sqlctx.yaml)")
	flags.CountVarP(&o.verbose, "verbose", "v", "increase output verbosity (-v, -vv)")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "only print errors")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&o.logJSON, "log-json", false, "write logs to stderr as JSON")
	flags.StringVar(&o.schemaFile, "schema", "", "schema file, overrides schema-file and dsn from the settings")
	flags.StringVar(&o.dsn, "dsn", "", "database to introspect for the schema")
	flags.StringVar(&o.dialect, "dialect", "", "SQL dialect: "+strings.Join(config.Dialects(), ", "))
	flags.StringVar(&o.qualify, "qualify", "", "qualified column labels: alias or table")
}

// settings loads the settings file and applies the flag overrides.
func (o *options) settings() (*config.Settings, error) {
	cfg, err := configloader.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.schemaFile != "" {
		cfg.SchemaFile = o.schemaFile
		cfg.DSN = ""
	}
	if o.dsn != "" {
		cfg.DSN = o.dsn
	}
	if o.dialect != "" {
		cfg.Dialect = o.dialect
	}
	if o.qualify != "" {
		cfg.Qualify = o.qualify
	}

	if err := configloader.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer) *zap.SugaredLogger {
	if o.logJSON {
		return logging.JSON(w, o.verbose > 0)
	}
	return logging.New(w, o.verbose > 0)
}

func (o *options) output(cmd *cobra.Command) *cli.Output {
	useColors := !o.noColor && cli.ShouldUseColors()
	return cli.NewOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), useColors, o.verbose, o.quiet)
}

// schema loads the schema the settings point at.
func (o *options) schema(ctx context.Context) (*config.Settings, *schema.Schema, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, nil, err
	}
	s, err := configloader.LoadSchema(ctx, *cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

// engine builds a completion engine from the settings and schema.
func (o *options) engine(cmd *cobra.Command) (*completion.Engine, error) {
	cfg, s, err := o.schema(cmd.Context())
	if err != nil {
		return nil, err
	}
	log := o.logger(cmd.ErrOrStderr())
	log.Debugw("schema loaded", "tables", s.Len())
	return configloader.NewEngine(*cfg, s, log)
}

// NewRootCommand returns the sqlctx command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "sqlctx",
		Short: "Schema-aware SQL completion",
		Long: `sqlctx works out what belongs at a cursor inside SQL text and offers
tables, columns and functions from a schema.

The schema comes from a YAML/JSON file or from a live database. Settings
are read from the nearest .sqlctx.yaml unless --config is given.

Examples:
  sqlctx analyze -e 'SELECT * FROM users u WHERE u.|'
  sqlctx complete --schema schema.yaml query.sql --cursor 42
  sqlctx schema --dsn postgres://localhost/app > schema.yaml
  sqlctx vet --schema schema.yaml ./...
  sqlctx tui --schema schema.yaml`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.register(root.PersistentFlags())

	root.AddCommand(
		newAnalyzeCommand(o),
		newCompleteCommand(o),
		newTUICommand(o),
		newVetCommand(o),
		newSchemaCommand(o),
		newConfigCommand(o),
		newLSPCommand(o),
		newVersionCommand(o),
	)
	return root
}

// NewLSPRootCommand returns a command that only runs the language server,
// for the sqlctx-lsp binary.
func NewLSPRootCommand() *cobra.Command {
	o := &options{}
	cmd := newLSPCommand(o)
	cmd.Use = "sqlctx-lsp"
	cmd.Version = version.Version
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	o.register(cmd.PersistentFlags())
	return cmd
}

// Execute runs cmd and returns the process exit code. Errors are printed to
// stderr along with any hints they carry.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", hint)
	}
	return int(runner.ExitFailure)
}

// readDocument reads the SQL text from the --query flag, the named file or
// stdin.
func readDocument(cmd *cobra.Command, query string, args []string) (string, error) {
	if query != "" {
		if len(args) > 0 {
			return "", errors.New("--query and a file argument are mutually exclusive")
		}
		return query, nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "read stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "read %s", args[0])
	}
	return string(data), nil
}

// CursorMarker marks the cursor inside the text when --cursor is -1.
const CursorMarker = "|"

// resolveCursor returns the document and byte offset to analyze. A cursor
// of -1 uses the first CursorMarker, which is removed from the text, or the
// end of the text when there is none.
func resolveCursor(doc string, cursor int) (string, int, error) {
	switch {
	case cursor == -1:
		if i := strings.Index(doc, CursorMarker); i >= 0 {
			return doc[:i] + doc[i+len(CursorMarker):], i, nil
		}
		return doc, len(doc), nil
	case cursor < 0:
		return "", 0, errors.Newf("invalid cursor %d", cursor)
	case cursor > len(doc):
		return "", 0, errors.WithHintf(
			errors.Newf("cursor %d is past the end of the text", cursor),
			"the text is %d bytes long", len(doc))
	}
	return doc, cursor, nil
}
