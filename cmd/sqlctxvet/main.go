// Command sqlctxvet runs the sqlctx schema check as a standalone analyzer,
// usable directly or through go vet:
//
//	sqlctxvet -schema schema.yaml ./...
//	go vet -vettool=$(which sqlctxvet) -schema=$PWD/schema.yaml ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/MirrexOne/sqlctx/internal/vet"
)

func main() {
	singlechecker.Main(vet.Analyzer)
}
