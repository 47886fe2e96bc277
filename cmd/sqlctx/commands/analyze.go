package commands

import (
	"github.com/spf13/cobra"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

type cursorFlags struct {
	cursor   int
	query    string
	jsonMode bool
}

func (f *cursorFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.cursor, "cursor", -1, "byte offset of the cursor; -1 uses a | marker or the end of the text")
	cmd.Flags().StringVarP(&f.query, "query", "e", "", "SQL text to use instead of a file")
	cmd.Flags().BoolVar(&f.jsonMode, "json", false, "print JSON")
}

func (f *cursorFlags) document(cmd *cobra.Command, args []string) (string, int, error) {
	doc, err := readDocument(cmd, f.query, args)
	if err != nil {
		return "", 0, err
	}
	return resolveCursor(doc, f.cursor)
}

func newAnalyzeCommand(o *options) *cobra.Command {
	f := &cursorFlags{}
	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Show the SQL context at a cursor",
		Long: `Analyze classifies the cursor position and lists the tables and aliases
of the statement around it. No schema is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, cursor, err := f.document(cmd, args)
			if err != nil {
				return err
			}

			ctx := sqlcontext.Analyze(doc, cursor)
			out := o.output(cmd)
			if f.jsonMode {
				return out.JSON(ctx)
			}
			out.PrintContext(ctx, messages.ContextDescription(ctx.Kind))
			if span := completion.WordBounds(doc, cursor); span.From < span.To {
				out.Debug("word under cursor: %q [%d,%d)", doc[span.From:span.To], span.From, span.To)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newCompleteCommand(o *options) *cobra.Command {
	f := &cursorFlags{}
	var limit int
	cmd := &cobra.Command{
		Use:   "complete [file|-]",
		Short: "List completion candidates at a cursor",
		Long: `Complete prints the candidates for the cursor, best first. With --json the
result is printed as is (candidates in the order they were produced), or
null when there is nothing to offer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, cursor, err := f.document(cmd, args)
			if err != nil {
				return err
			}
			engine, err := o.engine(cmd)
			if err != nil {
				return err
			}

			r := engine.Complete(doc, cursor)
			out := o.output(cmd)
			if f.jsonMode {
				return out.JSON(r)
			}
			if r != nil {
				completion.Sort(r.Candidates)
				if limit > 0 && len(r.Candidates) > limit {
					r.Candidates = r.Candidates[:limit]
				}
			}
			out.PrintResult(r)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n candidates")
	return cmd
}
