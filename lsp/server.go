// Package lsp serves parse diagnostics and document symbols for Python
// files over the Language Server Protocol.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhamidi/pyfront/config"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "pyfront"

var log = commonlog.GetLogger("pyfront.lsp")

type Server struct {
	handler   protocol.Handler
	server    *server.Server
	version   string
	config    *config.Config
	discover  bool
	documents *DocumentStore
}

// NewServer creates a server that parses with cfg. A nil cfg means the
// config file found above the client's workspace root, or defaults.
func NewServer(version string, cfg *config.Config) *Server {
	ls := &Server{
		version:   version,
		config:    cfg,
		discover:  cfg == nil,
		documents: NewDocumentStore(),
	}
	if cfg == nil {
		ls.config = config.Default()
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

// Documents exposes the open documents.
func (ls *Server) Documents() *DocumentStore {
	return ls.documents
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := ""
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}
	if rootDir != "" && ls.discover {
		cfg, err := config.LoadFrom(rootDir)
		if err != nil {
			log.Warningf("ignoring workspace config: %s", err)
		} else {
			ls.config = cfg
		}
	}

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("parsing as Python %s", ls.config.Version)
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	ls.update(ctx, doc.URI, doc.Version, []byte(doc.Text))
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.update(ctx, params.TextDocument.URI, params.TextDocument.Version, []byte(whole.Text))
	}
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	version := int32(0)
	if doc := ls.documents.Get(params.TextDocument.URI); doc != nil {
		version = doc.Version
	}
	ls.update(ctx, params.TextDocument.URI, version, []byte(*params.Text))
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.documents.Remove(params.TextDocument.URI)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := ls.documents.Get(params.TextDocument.URI)
	if doc == nil || doc.Ast == nil {
		return nil, nil
	}
	return documentSymbols(doc.lines, doc.Ast.Root), nil
}

// update parses text and publishes its diagnostics unless a newer version
// has already been seen.
func (ls *Server) update(ctx *glsp.Context, uri string, version int32, text []byte) {
	doc, err := ls.Analyze(uri, version, text)
	if err != nil {
		log.Errorf("parse %s: %s", uri, err)
		return
	}
	if !ls.documents.Put(doc) {
		log.Debugf("dropping stale version %d of %s", version, uri)
		return
	}
	v := protocol.UInteger(version)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &v,
		Diagnostics: toProtocolDiagnostics(doc.lines, doc.Diagnostics),
	})
}

// Analyze parses one version of a document with the server's config.
func (ls *Server) Analyze(uri string, version int32, text []byte) (*Document, error) {
	opts, err := ls.config.ToOptions()
	if err != nil {
		return nil, err
	}
	file := uri
	if path, err := uriToPath(uri); err == nil {
		file = path
	}
	if strings.HasSuffix(file, ".pyi") {
		opts = append(opts, parser.WithStubFile())
	}
	sink := parser.NewCollectingSink()
	opts = append(opts, parser.WithFile(file), parser.WithErrorSink(sink))

	ast, err := parser.Parse(text, opts...)
	if err != nil {
		return nil, err
	}
	return &Document{
		URI:         uri,
		Version:     version,
		Text:        text,
		Ast:         ast,
		Diagnostics: sink.Diagnostics(),
		lines:       newLineIndex(text, ast.LineStarts),
	}, nil
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
