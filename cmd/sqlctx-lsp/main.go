// Command sqlctx-lsp runs the sqlctx Language Server Protocol server. It
// provides schema-aware SQL completion, hover and diagnostics in editors
// that support LSP.
//
// Usage:
//
//	sqlctx-lsp [--config .sqlctx.yaml] [--schema schema.yaml]
//
// The server communicates via stdin/stdout using JSON-RPC 2.0 and logs to
// stderr.
//
// Neovim (with nvim-lspconfig):
//
//	vim.lsp.start({ name = "sqlctx", cmd = { "sqlctx-lsp" } })
package main

import (
	"context"
	"os"

	"github.com/MirrexOne/sqlctx/cmd/sqlctx/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), commands.NewLSPRootCommand()))
}
