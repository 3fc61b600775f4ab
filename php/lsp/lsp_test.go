package lsp

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/phpintel/php"
)

func TestOffsetAt(t *testing.T) {
	text := "<?php\n$a->b;\n$é = '😀x';\nend"
	tests := []struct {
		name string
		pos  protocol.Position
		want int
	}{
		{"start", protocol.Position{Line: 0, Character: 0}, 0},
		{"first line", protocol.Position{Line: 0, Character: 3}, 3},
		{"second line", protocol.Position{Line: 1, Character: 4}, 10},
		{"past end of line", protocol.Position{Line: 1, Character: 99}, 12},
		{"two byte rune", protocol.Position{Line: 2, Character: 2}, 16},
		// 😀 is two UTF-16 units and four bytes.
		{"surrogate pair", protocol.Position{Line: 2, Character: 8}, 24},
		{"past last line", protocol.Position{Line: 9, Character: 0}, len(text)},
		{"last line", protocol.Position{Line: 3, Character: 3}, len(text)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := offsetAt(text, tt.pos); got != tt.want {
				t.Errorf("offsetAt(%v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestURIs(t *testing.T) {
	path, err := uriToPath("file:///home/me/My%20Project/a.php")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/home/me/My Project/a.php" {
		t.Errorf("uriToPath() = %q, want %q", path, "/home/me/My Project/a.php")
	}
	if got := pathToURI(path); got != "file:///home/me/My%20Project/a.php" {
		t.Errorf("pathToURI() = %q", got)
	}
	if got, _ := uriToPath("untitled:1"); got != "untitled:1" {
		t.Errorf("uriToPath(untitled) = %q, want it unchanged", got)
	}
}

func TestToProtocolKind(t *testing.T) {
	tests := []struct {
		decl php.Declaration
		want protocol.CompletionItemKind
	}{
		{php.Declaration{Class: "A", Kind: php.KindFunc}, protocol.CompletionItemKindMethod},
		{php.Declaration{Class: php.GlobalClass, Kind: php.KindFunc}, protocol.CompletionItemKindFunction},
		{php.Declaration{Class: "A", Kind: php.KindVar}, protocol.CompletionItemKindField},
		{php.Declaration{Class: php.GlobalClass, Kind: php.KindVar}, protocol.CompletionItemKindVariable},
		{php.Declaration{Class: "A", Kind: php.KindClass}, protocol.CompletionItemKindClass},
	}
	for _, tt := range tests {
		if got := toProtocolKind(tt.decl); got != tt.want {
			t.Errorf("toProtocolKind(%s %s) = %v, want %v", tt.decl.Class, tt.decl.Kind, got, tt.want)
		}
	}
}

func TestLocationOf(t *testing.T) {
	loc := locationOf(php.Declaration{Path: "/src/A.php", Line: 3})
	if loc.URI != "file:///src/A.php" {
		t.Errorf("URI = %q, want %q", loc.URI, "file:///src/A.php")
	}
	if loc.Range.Start.Line != 2 {
		t.Errorf("Range.Start.Line = %d, want 2", loc.Range.Start.Line)
	}
}

// notifier records window/showMessage notifications.
type notifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifier) notify(method string, params any) {
	if method != protocol.ServerWindowShowMessage {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, params.(protocol.ShowMessageParams).Message)
}

func (n *notifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

func TestServerSession(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"composer.json": "{}",
		"src/Base.php":  "<?php\nclass Base {\n  public function save() {}\n}",
		"src/User.php":  "<?php\nclass User extends Base {\n  public $name;\n  public function greet($who) {}\n}",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ls := NewLSPServer("test", Options{})
	n := &notifier{}
	ctx := &glsp.Context{Notify: n.notify}

	rootURI := pathToURI(root)
	result, err := ls.initialize(ctx, &protocol.InitializeParams{RootURI: &rootURI})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	caps := result.(protocol.InitializeResult).Capabilities
	if caps.DefinitionProvider != true {
		t.Errorf("DefinitionProvider = %v, want true", caps.DefinitionProvider)
	}
	defer ls.shutdown(ctx)

	if err := ls.initialized(ctx, &protocol.InitializedParams{}); err != nil {
		t.Fatalf("initialized: %v", err)
	}
	ls.scanner.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.HasPrefix(n.last(), "Scan completed") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := n.last(); !strings.HasPrefix(got, "Scan completed") {
		t.Errorf("last message = %q, want scan completion", got)
	}

	editing := filepath.Join(root, "src", "main.php")
	uri := pathToURI(editing)
	text := "<?php\n/** @var User */\n$u = find();\n$u->"
	if err := ls.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "php", Text: text},
	}); err != nil {
		t.Fatal(err)
	}

	pos := protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: 3, Character: 4},
	}
	got, err := ls.textDocumentCompletion(ctx, &protocol.CompletionParams{TextDocumentPositionParams: pos})
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	var labels, inserts []string
	for _, item := range got.([]protocol.CompletionItem) {
		labels = append(labels, item.Label)
		inserts = append(inserts, *item.InsertText)
	}
	if diff := cmp.Diff([]string{"$name", "greet($who)", "save()"}, labels); diff != "" {
		t.Errorf("completion labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", `greet(${1:\$who})`, "save()"}, inserts); diff != "" {
		t.Errorf("completion inserts mismatch (-want +got):\n%s", diff)
	}

	changed := "<?php\n$x = new User();"
	if err := ls.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri}},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: changed}},
	}); err != nil {
		t.Fatal(err)
	}
	pos.Position = protocol.Position{Line: 1, Character: 12}
	def, err := ls.textDocumentDefinition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: pos})
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	loc, ok := def.(protocol.Location)
	if !ok {
		t.Fatalf("definition = %v, want a location", def)
	}
	if want := pathToURI(filepath.Join(root, "src", "User.php")); loc.URI != want {
		t.Errorf("definition URI = %q, want %q", loc.URI, want)
	}
	if loc.Range.Start.Line != 1 {
		t.Errorf("definition line = %d, want 1", loc.Range.Start.Line)
	}

	pos.Position = protocol.Position{Line: 0, Character: 2}
	if def, _ := ls.textDocumentDefinition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: pos}); def != nil {
		t.Errorf("definition of unknown symbol = %v, want nil", def)
	}
}

func TestSaveRescansFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "composer.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "A.php")
	if err := os.WriteFile(path, []byte("<?php class A {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ls := NewLSPServer("test", Options{})
	ctx := &glsp.Context{Notify: func(string, any) {}}
	if _, err := ls.initialize(ctx, &protocol.InitializeParams{RootPath: &root}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer ls.shutdown(ctx)

	if err := os.WriteFile(path, []byte("<?php class Saved {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ls.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI(path)},
	}); err != nil {
		t.Fatal(err)
	}
	ls.scanner.Wait()

	if !ls.intel.Load().Has("Saved") {
		t.Error("saved file was not rescanned")
	}
}
