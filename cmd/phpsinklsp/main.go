// Command phpsinklsp runs an LSP server over stdio that republishes
// pkg/taint findings as textDocument/publishDiagnostics.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"go.lsp.dev/jsonrpc2"

	"github.com/taintwave/phpsentinel/cmd/phpsinklsp/internal/server"
)

func main() {
	var stdin bool
	flag.BoolVar(&stdin, "stdin", true, "use stdin/stdout for communication")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.Println("phpsinklsp: starting")

	stream := jsonrpc2.NewStream(struct {
		io.Reader
		io.Writer
		io.Closer
	}{
		os.Stdin,
		os.Stdout,
		os.Stdin,
	})

	ctx := context.Background()
	conn := jsonrpc2.NewConn(stream)
	log.Println("phpsinklsp: connection established")

	lspServer := server.New(conn)
	conn.Go(ctx, lspServer.Handle)

	log.Println("phpsinklsp: running, waiting for requests")
	<-conn.Done()

	if err := conn.Err(); err != nil {
		log.Fatalf("phpsinklsp: stopped with error: %v", err)
	}
	log.Println("phpsinklsp: shutdown complete")
}
