// Command sqlctx analyzes SQL cursor context and offers schema-aware
// completions.
//
// Usage:
//
//	sqlctx analyze -e 'SELECT * FROM users u WHERE u.|'
//	sqlctx complete --schema schema.yaml query.sql --cursor 42
//	sqlctx vet --schema schema.yaml ./...
//
// Run "sqlctx help" for the full command list.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/MirrexOne/sqlctx/cmd/sqlctx/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := commands.Execute(ctx, commands.NewRootCommand())
	stop()
	os.Exit(code)
}
