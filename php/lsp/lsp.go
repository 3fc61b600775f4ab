// Package lsp serves PHP completion and go-to-definition over the Language
// Server Protocol.
package lsp

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/intel"
	"github.com/dhamidi/phpintel/php/scanner"
	"github.com/dhamidi/phpintel/project"
)

const lsName = "phpintel"

var log = commonlog.GetLogger("phpintel.lsp")

type Options struct {
	// ConfigPath overrides the configuration file found in the project root.
	ConfigPath string
	// Watch rescans files changed outside the editor.
	Watch bool
}

type LSPServer struct {
	handler protocol.Handler
	server  *server.Server
	version string
	opts    Options

	intel       *intel.Intel
	scanner     *scanner.Scanner
	watcher     *scanner.Watcher
	unsubscribe func()

	mu   sync.Mutex
	docs map[string]string
}

func NewLSPServer(version string, opts Options) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
		docs:    make(map[string]string),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentDefinition: ls.textDocumentDefinition,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	switch {
	case params.RootPath != nil && *params.RootPath != "":
		rootDir = *params.RootPath
	case params.RootURI != nil && *params.RootURI != "":
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	case len(params.WorkspaceFolders) > 0:
		if path, err := uriToPath(params.WorkspaceFolders[0].URI); err == nil {
			rootDir = path
		}
	}

	p, err := project.LoadFrom(rootDir, ls.opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	in, err := p.Intel()
	if err != nil {
		return nil, err
	}
	ls.intel = in
	ls.scanner = p.Scanner(in)
	log.Infof("serving %s (roots: %s)", p.RootDir, strings.Join(in.Roots(), ", "))

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(false),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{">", ":"},
	}
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	updates, unsubscribe := ls.scanner.Subscribe()
	ls.unsubscribe = unsubscribe
	go func() {
		for p := range updates {
			if !p.Done() || p.Message == "" {
				continue
			}
			messageType := protocol.MessageTypeInfo
			if p.Err != nil && !errors.Is(p.Err, scanner.ErrAborted) {
				messageType = protocol.MessageTypeError
			}
			ctx.Notify(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{
				Type:    messageType,
				Message: p.Message,
			})
		}
	}()

	if !ls.intel.HasIntel() {
		log.Info("no intel yet, scanning all roots")
		ls.scanner.Enqueue(scanner.All)
	}

	if ls.opts.Watch {
		w, err := scanner.NewWatcher(ls.scanner)
		if err != nil {
			log.Errorf("watch: %v", err)
			return nil
		}
		ls.watcher = w
	}
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.scanner != nil {
		ls.scanner.Abort()
		ls.scanner.Wait()
	}
	if ls.watcher != nil {
		ls.watcher.Close()
	}
	if ls.unsubscribe != nil {
		ls.unsubscribe()
	}
	if ls.intel != nil {
		return ls.intel.Close()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.setDocument(path, params.TextDocument.Text)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.setDocument(path, textChange.Text)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	delete(ls.docs, path)
	ls.mu.Unlock()
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.setDocument(path, *params.Text)
	}
	ls.scanner.Enqueue(path)
	return nil
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	text, ok := ls.document(path)
	if !ok {
		return nil, nil
	}

	completions := ls.intel.Complete(text, offsetAt(text, params.Position))
	if len(completions) == 0 {
		return nil, nil
	}

	var items []protocol.CompletionItem
	for _, c := range completions {
		kind := toProtocolKind(c.Declaration)
		label := c.Name()
		detail := c.Detail
		insertText := c.InsertText
		format := protocol.InsertTextFormatSnippet

		item := protocol.CompletionItem{
			Label:            label,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insertText,
			InsertTextFormat: &format,
		}
		if doc := c.Declaration.Doc; doc != "" {
			item.Documentation = doc
		}
		items = append(items, item)
	}

	return items, nil
}

func (ls *LSPServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	text, ok := ls.document(path)
	if !ok {
		return nil, nil
	}

	decl, err := ls.intel.Definition(text, offsetAt(text, params.Position))
	if errors.Is(err, intel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return locationOf(decl), nil
}

func (ls *LSPServer) setDocument(path, text string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.docs[path] = text
}

// document returns the editor's copy of path, or the file on disk when the
// editor has not opened it.
func (ls *LSPServer) document(path string) (string, bool) {
	ls.mu.Lock()
	text, ok := ls.docs[path]
	ls.mu.Unlock()
	if ok {
		return text, true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warningf("read %s: %v", path, err)
		return "", false
	}
	return string(data), true
}

// offsetAt converts an LSP position, whose character counts UTF-16 code
// units, into a byte offset into text. Positions past the end of a line or
// of the text are clamped.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	units := protocol.UInteger(0)
	for offset < len(text) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		offset += size
	}
	return offset
}

func locationOf(d php.Declaration) protocol.Location {
	line := protocol.UInteger(0)
	if d.Line > 0 {
		line = protocol.UInteger(d.Line - 1)
	}
	pos := protocol.Position{Line: line}
	return protocol.Location{
		URI:   pathToURI(d.Path),
		Range: protocol.Range{Start: pos, End: pos},
	}
}

func toProtocolKind(d php.Declaration) protocol.CompletionItemKind {
	global := d.Class == php.GlobalClass
	switch {
	case d.Kind == php.KindFunc && global:
		return protocol.CompletionItemKindFunction
	case d.Kind == php.KindFunc:
		return protocol.CompletionItemKindMethod
	case d.Kind == php.KindVar && global:
		return protocol.CompletionItemKindVariable
	case d.Kind == php.KindVar:
		return protocol.CompletionItemKindField
	case d.Kind == php.KindClass:
		return protocol.CompletionItemKindClass
	default:
		return protocol.CompletionItemKindText
	}
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

func pathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
