package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/MirrexOne/sqlctx/internal/configloader"
	"github.com/MirrexOne/sqlctx/internal/dsl"
	"github.com/MirrexOne/sqlctx/internal/lsp"
	"github.com/MirrexOne/sqlctx/internal/runner"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/tui"
	"github.com/MirrexOne/sqlctx/internal/version"
	"github.com/MirrexOne/sqlctx/internal/vet"
)

var errNoSchema = errors.WithHint(errors.New("no schema configured"),
	"pass --schema or --dsn, or set schema-file or dsn in .sqlctx.yaml")

func newTUICommand(o *options) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Try completion interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := o.engine(cmd)
			if err != nil {
				return err
			}
			return tui.Run(engine, query)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "e", "", "initial SQL text")
	return cmd
}

func newVetCommand(o *options) *cobra.Command {
	opts := runner.Options{}
	cmd := &cobra.Command{
		Use:   "vet [packages]",
		Short: "Check SQL in Go code against the schema",
		Long: `Vet loads Go packages and checks string constants passed to database calls
for unknown tables and for alias.column references to missing columns.

Exit status is 0 when clean, 1 for warnings only, 2 when errors were found
and 3 when the packages could not be analyzed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := o.schema(cmd.Context())
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return errNoSchema
			}

			opts.Patterns = args
			code := runner.Run(vet.NewAnalyzer(s), o.output(cmd), opts)
			if code != runner.ExitSuccess {
				return &ExitError{Code: int(code)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "directory to resolve packages in")
	cmd.Flags().BoolVar(&opts.Tests, "tests", false, "include test files")
	cmd.Flags().BoolVar(&opts.ShowStats, "stats", false, "print statistics")
	return cmd
}

func newSchemaCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema as YAML",
		Long: `Schema prints the tables and columns completion would use, as a YAML
mapping that --schema accepts. With --dsn the database is introspected, so
this also snapshots a live schema into a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := o.schema(cmd.Context())
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return errNoSchema
			}
			return schema.Encode(cmd.OutOrStdout(), s)
		},
	}
}

func newConfigCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect .sqlctx.yaml settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), dsl.JSONSchema())
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a settings file and compile its rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				found, err := configloader.FindConfig()
				if err != nil {
					return err
				}
				if found == "" {
					return errors.WithHintf(errors.New("no settings file found"),
						"create %s or pass a path", configloader.ConfigFileName)
				}
				path = found
			}

			cfg, err := configloader.LoadConfig(path)
			if err != nil {
				return err
			}
			if err := configloader.ValidateConfig(cfg); err != nil {
				return errors.Wrapf(err, "%s", path)
			}
			rules, err := dsl.FromSettings(*cfg, o.logger(cmd.ErrOrStderr()))
			if err != nil {
				return errors.Wrapf(err, "%s", path)
			}

			o.output(cmd).Success("%s is valid (%d rules)", path, rules.Len())
			return nil
		},
	})
	return cmd
}

func newLSPCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdin/stdout",
		Long: `Lsp speaks the Language Server Protocol over stdin and stdout. Logs go to
stderr. Editors start it themselves; point the client at "sqlctx lsp" for
the sql language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.settings()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := lsp.NewStdioServer(*cfg, o.logger(cmd.ErrOrStderr()))
			if err := server.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		},
	}
}

func newVersionCommand(o *options) *cobra.Command {
	var jsonMode bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			if jsonMode {
				return o.output(cmd).JSON(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVarP(&jsonMode, "json", "j", false, "print JSON")
	return cmd
}
