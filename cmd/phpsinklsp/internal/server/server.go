// Package server implements the phpsinklsp Language Server Protocol
// server: it republishes pkg/taint's findings as
// textDocument/publishDiagnostics whenever a PHP document is opened or
// saved.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/taintwave/phpsentinel/pkg/phpparse"
	"github.com/taintwave/phpsentinel/pkg/sinkcfg"
	"github.com/taintwave/phpsentinel/pkg/taint"
)

const debounceInterval = 300 * time.Millisecond

// Server is the phpsinklsp LSP server: a thin Handle dispatch switch over
// the connection, with scan state held per-document.
type Server struct {
	conn   jsonrpc2.Conn
	parser *phpparse.Service
	tracer *taint.Tracer

	mu      sync.Mutex
	timers  map[protocol.DocumentURI]*time.Timer
	sources map[protocol.DocumentURI][]byte
}

// New creates a phpsinklsp server bound to conn.
func New(conn jsonrpc2.Conn) *Server {
	parser := phpparse.NewService(128)
	return &Server{
		conn:    conn,
		parser:  parser,
		tracer:  taint.New(taint.DefaultConfig(), parser),
		timers:  make(map[protocol.DocumentURI]*time.Timer),
		sources: make(map[protocol.DocumentURI][]byte),
	}
}

// Handle dispatches one JSON-RPC request or notification.
func (s *Server) Handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	log.Printf("phpsinklsp: received %s", req.Method())

	switch req.Method() {
	case protocol.MethodInitialize:
		return s.handleInitialize(ctx, reply, req)
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidOpen:
		return s.handleDidOpen(ctx, reply, req)
	case protocol.MethodTextDocumentDidSave:
		return s.handleDidSave(ctx, reply, req)
	case protocol.MethodTextDocumentDidClose:
		return s.handleDidClose(ctx, reply, req)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		return s.conn.Close()
	default:
		log.Printf("phpsinklsp: unhandled method: %s", req.Method())
		return reply(ctx, nil, nil)
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return err
	}

	resp := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				Change:    protocol.TextDocumentSyncKindFull,
				OpenClose: true,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "phpsinklsp",
			Version: "0.1.0",
		},
	}
	return reply(ctx, resp, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return err
	}
	s.setSource(params.TextDocument.URI, []byte(params.TextDocument.Text))
	s.scheduleScan(ctx, params.TextDocument.URI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return err
	}
	if params.Text != "" {
		s.setSource(params.TextDocument.URI, []byte(params.Text))
	}
	s.scheduleScan(ctx, params.TextDocument.URI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sources, params.TextDocument.URI)
	if t, ok := s.timers[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.timers, params.TextDocument.URI)
	}
	s.mu.Unlock()
	return reply(ctx, nil, nil)
}

func (s *Server) setSource(uri protocol.DocumentURI, source []byte) {
	s.mu.Lock()
	s.sources[uri] = source
	s.mu.Unlock()
}

// scheduleScan debounces repeated opens/saves of the same document: a
// burst of edits within debounceInterval collapses into a single scan.
func (s *Server) scheduleScan(ctx context.Context, uri protocol.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[uri]; ok {
		t.Stop()
	}
	s.timers[uri] = time.AfterFunc(debounceInterval, func() {
		s.scanAndPublish(ctx, uri)
	})
}

func (s *Server) scanAndPublish(ctx context.Context, uri protocol.DocumentURI) {
	s.mu.Lock()
	source, ok := s.sources[uri]
	s.mu.Unlock()
	if !ok {
		return
	}

	filePath := uri.Filename()
	nodes, err := s.parser.Parse(filePath, source)
	if err != nil {
		log.Printf("phpsinklsp: parse %s: %v", filePath, err)
		return
	}

	sinkNames := make([]string, 0, len(sinkcfg.DefaultSinks))
	for _, sink := range sinkcfg.DefaultSinks {
		sinkNames = append(sinkNames, sink.Name)
	}

	var diagnostics []protocol.Diagnostic
	for _, line := range taint.SinkLines(nodes, sinkNames) {
		findings := s.tracer.Scan(source, filePath, sinkNames, line, nil)
		for _, f := range findings {
			diagnostics = append(diagnostics, toDiagnostic(f))
		}
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}
	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		log.Printf("phpsinklsp: publish diagnostics for %s: %v", filePath, err)
	}
}

func toDiagnostic(f taint.Finding) protocol.Diagnostic {
	line := f.SinkLine - 1
	if line < 0 {
		line = 0
	}
	severity := protocol.DiagnosticSeverityWarning
	if f.Code == taint.Controlled {
		severity = protocol.DiagnosticSeverityError
	}
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: 0},
			End:   protocol.Position{Line: uint32(line), Character: 200},
		},
		Severity: severity,
		Source:   "phpsinkscan",
		Message:  f.Source + " reaches " + f.Sink + " (" + f.Code.String() + ")",
	}
}
