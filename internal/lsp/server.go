// Package lsp implements a Language Server Protocol server for sqlctx.
// It offers schema-aware SQL completion, hover and diagnostics, plus the
// sqlctx/* extensions for pushing schemas and inspecting cursor contexts.
package lsp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/MirrexOne/sqlctx/internal/configloader"
	"github.com/MirrexOne/sqlctx/internal/logging"
	"github.com/MirrexOne/sqlctx/internal/lsp/protocol"
	"github.com/MirrexOne/sqlctx/internal/schema"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
	"github.com/MirrexOne/sqlctx/internal/version"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// errExit ends the message loop.
var errExit = errors.New("exit")

// Server implements the Language Server Protocol for sqlctx.
type Server struct {
	// reader reads JSON-RPC messages from the client (with Content-Length)
	reader *BaseReader
	// writer writes JSON-RPC messages to the client (with Content-Length)
	writer *BaseWriter
	// writerMu protects concurrent writes
	writerMu sync.Mutex

	// documents stores open documents by URI
	documents map[string]*Document
	// documentsMu protects the documents map
	documentsMu sync.RWMutex

	settings config.Settings

	// analyzer is replaced when initialize changes the settings
	analyzer atomic.Pointer[Analyzer]
	dsl      *DSLSupport
	watcher  *schema.Watcher

	variables *variableNotifier

	initialized bool
	shutdown    bool

	log *zap.SugaredLogger
}

// NewServer creates a new LSP server. Logs go to log, never to out.
func NewServer(in io.Reader, out io.Writer, settings config.Settings, log *zap.SugaredLogger) *Server {
	s := &Server{
		reader:    NewBaseReader(in),
		writer:    NewBaseWriter(out),
		documents: make(map[string]*Document),
		settings:  settings,
		dsl:       NewDSLSupport(),
		log:       logging.OrNop(log).Named("lsp"),
	}
	s.variables = newVariableNotifier(settings.VariablesDebounce, s.notifyVariables)

	engine, err := configloader.NewEngine(settings, nil, s.log)
	if err != nil {
		s.log.Warnw("invalid settings, using defaults", "error", err)
		engine, _ = configloader.NewEngine(config.DefaultSettings(), nil, s.log)
	}
	s.analyzer.Store(NewAnalyzer(engine))
	return s
}

// NewStdioServer creates a new LSP server using stdin/stdout.
func NewStdioServer(settings config.Settings, log *zap.SugaredLogger) *Server {
	return NewServer(os.Stdin, os.Stdout, settings, log)
}

// Run starts the main message loop. It returns nil after a shutdown
// request followed by exit, or when the client closes the stream.
func (s *Server) Run(ctx context.Context) error {
	s.log.Infow("server started", "version", version.Version)
	defer s.stopWatcher()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := s.handleMessage(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errExit):
			if !s.shutdown {
				return errors.New("exit received before shutdown")
			}
			return nil
		default:
			s.log.Warnw("error handling message", "error", err)
		}
	}
}

// handleMessage reads and processes a single JSON-RPC message.
func (s *Server) handleMessage(ctx context.Context) error {
	data, err := s.reader.Read()
	if err != nil {
		return err
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}

	s.log.Debugw("received", "method", msg.Method, "id", msg.ID)

	if !s.initialized && msg.Method != "initialize" && msg.Method != "exit" {
		if msg.ID != nil {
			return s.sendError(msg.ID, protocol.ServerNotInitialized, "server not initialized")
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(ctx, &msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(ctx, &msg)
	case "exit":
		return errExit
	case "textDocument/didOpen":
		return s.handleTextDocumentDidOpen(ctx, &msg)
	case "textDocument/didChange":
		return s.handleTextDocumentDidChange(ctx, &msg)
	case "textDocument/didClose":
		return s.handleTextDocumentDidClose(ctx, &msg)
	case "textDocument/didSave":
		return s.handleTextDocumentDidSave(ctx, &msg)
	case "textDocument/hover":
		return s.handleTextDocumentHover(ctx, &msg)
	case "textDocument/completion":
		return s.handleTextDocumentCompletion(ctx, &msg)
	case protocol.MethodSetSchema:
		return s.handleSetSchema(ctx, &msg)
	case protocol.MethodAnalyze:
		return s.handleAnalyze(ctx, &msg)
	default:
		// Unknown method - send error for requests, ignore notifications
		if msg.ID != nil {
			return s.sendError(msg.ID, protocol.MethodNotFound, "Method not found: "+msg.Method)
		}
		return nil
	}
}

// handleInitialize handles the initialize request.
func (s *Server) handleInitialize(ctx context.Context, msg *protocol.Message) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, protocol.ParseError, "Failed to parse initialize params")
	}

	s.log.Infow("client connected", "name", params.ClientInfo.Name, "version", params.ClientInfo.Version)

	settings := s.settings
	if len(params.InitializationOptions) > 0 {
		var opts protocol.InitializationOptions
		if err := json.Unmarshal(params.InitializationOptions, &opts); err != nil {
			return s.sendError(msg.ID, protocol.InvalidParams, "Invalid initializationOptions: "+err.Error())
		}
		if opts.SchemaFile != "" {
			settings.SchemaFile = opts.SchemaFile
			settings.DSN = ""
		}
		if opts.Dialect != "" {
			settings.Dialect = opts.Dialect
		}
		if opts.Qualify != "" {
			settings.Qualify = opts.Qualify
		}
	}

	if err := s.configure(ctx, settings); err != nil {
		return s.sendError(msg.ID, protocol.InvalidParams, err.Error())
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", " "},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "sqlctx-lsp",
			Version: version.Version,
		},
	}

	s.initialized = true
	return s.sendResult(msg.ID, result)
}

// configure rebuilds the engine for settings and loads the schema they
// name. A schema file is watched for changes.
func (s *Server) configure(ctx context.Context, settings config.Settings) error {
	loaded, err := configloader.LoadSchema(ctx, settings)
	if err != nil {
		return errors.Wrap(err, "load schema")
	}
	engine, err := configloader.NewEngine(settings, loaded, s.log)
	if err != nil {
		return err
	}

	s.settings = settings
	s.analyzer.Store(NewAnalyzer(engine))
	s.log.Infow("schema loaded", "tables", loaded.Len(), "qualify", settings.Qualify)

	s.stopWatcher()
	if settings.DSN == "" && settings.SchemaFile != "" {
		w, err := schema.NewWatcher(settings.SchemaFile, 0, s.setSchema, s.log)
		if err != nil {
			s.log.Warnw("schema file is not watched", "file", settings.SchemaFile, "error", err)
			return nil
		}
		w.Start()
		s.watcher = w
	}
	return nil
}

func (s *Server) stopWatcher() {
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
}

// setSchema replaces the schema and re-publishes diagnostics of open
// documents.
func (s *Server) setSchema(sch *schema.Schema) {
	a := s.analyzer.Load()
	a.Engine().SetSchema(sch)
	s.log.Infow("schema replaced", "tables", sch.Len(), "version", a.Engine().Version())

	s.documentsMu.RLock()
	docs := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	s.documentsMu.RUnlock()

	for _, doc := range docs {
		if err := s.publishDiagnostics(doc); err != nil {
			s.log.Warnw("publish diagnostics", "uri", doc.URI, "error", err)
		}
	}
}

// handleShutdown handles the shutdown request.
func (s *Server) handleShutdown(ctx context.Context, msg *protocol.Message) error {
	s.shutdown = true
	s.stopWatcher()
	return s.sendResult(msg.ID, nil)
}

// handleTextDocumentDidOpen handles textDocument/didOpen notification.
func (s *Server) handleTextDocumentDidOpen(ctx context.Context, msg *protocol.Message) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	doc := &Document{
		URI:        params.TextDocument.URI,
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	}

	s.documentsMu.Lock()
	s.documents[doc.URI] = doc
	s.documentsMu.Unlock()

	s.log.Debugw("opened document", "uri", doc.URI)
	return s.documentChanged(doc)
}

// handleTextDocumentDidChange handles textDocument/didChange notification.
func (s *Server) handleTextDocumentDidChange(ctx context.Context, msg *protocol.Message) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documentsMu.Lock()
	doc, ok := s.documents[params.TextDocument.URI]
	if ok && len(params.ContentChanges) > 0 {
		// Full sync: the last change holds the whole document.
		doc.Content = params.ContentChanges[len(params.ContentChanges)-1].Text
		doc.Version = params.TextDocument.Version
	}
	s.documentsMu.Unlock()

	if !ok {
		return nil
	}
	return s.documentChanged(doc)
}

// handleTextDocumentDidClose handles textDocument/didClose notification.
func (s *Server) handleTextDocumentDidClose(ctx context.Context, msg *protocol.Message) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documentsMu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.documentsMu.Unlock()

	s.variables.forget(params.TextDocument.URI)

	// Clear diagnostics for the closed document
	return s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// handleTextDocumentDidSave handles textDocument/didSave notification.
func (s *Server) handleTextDocumentDidSave(ctx context.Context, msg *protocol.Message) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documentsMu.Lock()
	doc, ok := s.documents[params.TextDocument.URI]
	if ok && params.Text != nil {
		doc.Content = *params.Text
	}
	s.documentsMu.Unlock()

	if !ok {
		return nil
	}
	return s.documentChanged(doc)
}

// documentChanged publishes diagnostics and schedules a variables
// notification when the set of {{ variables }} changed.
func (s *Server) documentChanged(doc *Document) error {
	s.documentsMu.Lock()
	vars := sqlcontext.ExtractVariables(doc.Content)
	changed := !slices.Equal(vars, doc.Variables)
	if changed {
		doc.Variables = vars
	}
	s.documentsMu.Unlock()

	if changed {
		s.variables.schedule(doc.URI, vars)
	}
	return s.publishDiagnostics(doc)
}

func (s *Server) notifyVariables(uri string, variables []string) {
	if variables == nil {
		variables = []string{}
	}
	s.log.Debugw("variables changed", "uri", uri, "variables", variables)
	err := s.sendNotification(protocol.MethodVariablesDetected, protocol.VariablesDetectedParams{
		URI:       uri,
		Variables: variables,
	})
	if err != nil {
		s.log.Warnw("send variables notification", "uri", uri, "error", err)
	}
}

// snapshot returns a copy of the open document uri.
func (s *Server) snapshot(uri string) (*Document, bool) {
	s.documentsMu.RLock()
	defer s.documentsMu.RUnlock()
	doc, ok := s.documents[uri]
	if !ok {
		return nil, false
	}
	cp := *doc
	return &cp, true
}

// handleTextDocumentHover handles textDocument/hover request.
func (s *Server) handleTextDocumentHover(ctx context.Context, msg *protocol.Message) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, protocol.ParseError, "Failed to parse hover params")
	}

	doc, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return s.sendResult(msg.ID, nil)
	}

	var hover *protocol.Hover
	if IsConfigFile(doc.URI) {
		hover = s.dsl.GetDSLHover(doc, params.Position)
	} else {
		hover = s.analyzer.Load().GetHover(doc, params.Position)
	}
	if hover == nil {
		return s.sendResult(msg.ID, nil)
	}
	return s.sendResult(msg.ID, hover)
}

// handleTextDocumentCompletion handles textDocument/completion request.
func (s *Server) handleTextDocumentCompletion(ctx context.Context, msg *protocol.Message) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, protocol.ParseError, "Failed to parse completion params")
	}

	doc, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return s.sendResult(msg.ID, protocol.CompletionList{Items: []protocol.CompletionItem{}})
	}

	if IsConfigFile(doc.URI) {
		items := s.dsl.GetDSLCompletions(doc, params.Position)
		if items == nil {
			items = []protocol.CompletionItem{}
		}
		return s.sendResult(msg.ID, protocol.CompletionList{Items: items})
	}

	list := s.analyzer.Load().GetCompletions(doc, params.Position)
	s.log.Debugw("completion", "uri", doc.URI, "position", params.Position, "items", len(list.Items))
	return s.sendResult(msg.ID, list)
}

// handleSetSchema handles the sqlctx/setSchema request.
func (s *Server) handleSetSchema(ctx context.Context, msg *protocol.Message) error {
	var params protocol.SetSchemaParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, protocol.ParseError, "Failed to parse setSchema params")
	}

	var sch *schema.Schema
	switch {
	case params.Tables != nil:
		sch = schema.New(params.Tables)
	case params.File != "":
		loaded, err := schema.LoadFile(params.File)
		if err != nil {
			return s.sendError(msg.ID, protocol.InvalidParams, err.Error())
		}
		sch = loaded
	default:
		return s.sendError(msg.ID, protocol.InvalidParams, "setSchema needs tables or file")
	}

	s.setSchema(sch)
	engine := s.analyzer.Load().Engine()
	return s.sendResult(msg.ID, protocol.SetSchemaResult{
		Version: engine.Version(),
		Tables:  sch.Len(),
	})
}

// handleAnalyze handles the sqlctx/analyze request.
func (s *Server) handleAnalyze(ctx context.Context, msg *protocol.Message) error {
	var params protocol.AnalyzeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, protocol.ParseError, "Failed to parse analyze params")
	}

	doc, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return s.sendError(msg.ID, protocol.InvalidParams, "document not open: "+params.TextDocument.URI)
	}
	return s.sendResult(msg.ID, s.analyzer.Load().Context(doc, params.Position))
}

// publishDiagnostics analyzes a document and sends its diagnostics.
func (s *Server) publishDiagnostics(doc *Document) error {
	cp, ok := s.snapshot(doc.URI)
	if !ok {
		return nil
	}
	return s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         cp.URI,
		Version:     cp.Version,
		Diagnostics: s.analyzer.Load().Analyze(cp),
	})
}

// sendResult sends a successful response.
func (s *Server) sendResult(id, result any) error {
	return s.send(protocol.Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// sendError sends an error response.
func (s *Server) sendError(id any, code int, message string) error {
	return s.send(protocol.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &protocol.ResponseError{
			Code:    code,
			Message: message,
		},
	})
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return s.send(protocol.Message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsJSON,
	})
}

// send writes a message to the client.
func (s *Server) send(msg any) error {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()
	return s.writer.WriteJSON(msg)
}
