package intel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
)

// ErrNotFound is returned when a symbol has no indexed declaration.
var ErrNotFound = errors.New("symbol not found")

type Options struct {
	Roots     []string
	Storage   string
	CacheDir  string
	Tokenizer parser.Tokenizer
	Rewriter  php.Rewriter
	// MinGlobalPrefix is the shortest bare identifier that triggers
	// class-name completion.
	MinGlobalPrefix int
}

// Intel answers completion and lookup queries for a set of project roots
// from their persisted indexes.
type Intel struct {
	roots           []string
	stores          []Store
	tokenizer       parser.Tokenizer
	resolver        *php.Resolver
	minGlobalPrefix int

	mu    sync.RWMutex
	index *Index
}

func New(opts Options) (*Intel, error) {
	if opts.Tokenizer == nil {
		opts.Tokenizer = parser.Native{}
	}
	in := &Intel{
		tokenizer:       opts.Tokenizer,
		resolver:        php.NewResolver(opts.Tokenizer, opts.Rewriter),
		minGlobalPrefix: opts.MinGlobalPrefix,
		index:           NewIndex(),
	}
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		store, err := OpenStore(opts.Storage, abs, opts.CacheDir)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.roots = append(in.roots, abs)
		in.stores = append(in.stores, store)
	}
	return in, nil
}

func (in *Intel) Roots() []string { return in.roots }
func (in *Intel) Stores() []Store { return in.stores }

func (in *Intel) Tokenizer() parser.Tokenizer { return in.tokenizer }

// StoreFor returns the store of the root containing path.
func (in *Intel) StoreFor(path string) (Store, bool) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	var best Store
	for i, root := range in.roots {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if best == nil || len(root) > len(best.Root()) {
			best = in.stores[i]
		}
	}
	return best, best != nil
}

// HasIntel reports whether any root has been scanned.
func (in *Intel) HasIntel() bool {
	for _, s := range in.stores {
		if s.Exists() {
			return true
		}
	}
	return false
}

// Load clears the in-memory index and reloads it from every root's store.
func (in *Intel) Load() *Index {
	index := NewIndex()
	for _, s := range in.stores {
		index.Merge(s.LoadIndex())
	}

	in.mu.Lock()
	in.index = index
	in.mu.Unlock()
	return index
}

// Index returns the most recently loaded index.
func (in *Intel) Index() *Index {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.index
}

// Complete returns the completion items for the cursor at offset, a byte
// offset into source.
func (in *Intel) Complete(source string, offset int) []CompletionItem {
	if !in.HasIntel() {
		return nil
	}
	return in.CompleteContext(in.resolver.ContextAt(source, offset))
}

func (in *Intel) CompleteContext(ctx php.Context) []CompletionItem {
	chain := ctx.Chain
	switch {
	case len(chain) == 0:
		return nil
	case len(chain) == 1 && ctx.Operator == php.OperatorNone:
		if len(chain[0]) < in.minGlobalPrefix {
			return nil
		}
		chain = []string{php.GlobalClass, chain[0]}
	case len(chain) == 1:
		return nil
	}

	v := in.view(in.Load())
	class, partial := ResolveClass(v, chain)
	if class == "" {
		return nil
	}
	log.Debugf("complete %v as %s::%s (%s, %s)", ctx.Chain, class, partial, ctx.Operator, ctx.Visibility)

	return Items(FindCompletions(v, Query{
		Class:      class,
		Partial:    partial,
		Operator:   ctx.Operator,
		Visibility: ctx.Visibility,
	}))
}

// Declarations returns everything indexed under class.
func (in *Intel) Declarations(class string) []php.Declaration {
	return in.view(in.Index()).Declarations(class)
}

// Goto finds the declaration of a class, or failing that of a file-scope
// function or constant, named symbol.
func (in *Intel) Goto(symbol string) (php.Declaration, error) {
	symbol = php.ShortName(strings.TrimSpace(symbol))
	if symbol == "" {
		return php.Declaration{}, ErrNotFound
	}
	v := in.view(in.Load())

	for _, d := range v.Declarations(symbol) {
		if d.Kind == php.KindClass {
			return d, nil
		}
	}
	for _, d := range v.Declarations(php.GlobalClass) {
		if d.MatchesName(symbol) {
			return d, nil
		}
	}
	return php.Declaration{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
}

// Definition finds the declaration of the identifier under the cursor. A
// member access is resolved through its chain; anything else is looked up
// with Goto.
func (in *Intel) Definition(source string, offset int) (php.Declaration, error) {
	end := wordEnd(source, offset)
	ctx := in.resolver.ContextAt(source, end)
	if len(ctx.Chain) < 2 {
		return in.Goto(wordAt(source, offset))
	}

	v := in.view(in.Load())
	class, name := ResolveClass(v, ctx.Chain)
	if class == "" || name == "" {
		return php.Declaration{}, ErrNotFound
	}
	visited := map[string]bool{}
	for class != "" && !visited[class] {
		visited[class] = true
		decls := v.Declarations(class)
		for _, d := range decls {
			if d.Kind != php.KindClass && d.MatchesName(name) {
				return d, nil
			}
		}
		class = extendsOf(decls)
	}
	return php.Declaration{}, fmt.Errorf("%s: %w", name, ErrNotFound)
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b == '\\' || b >= 0x80 ||
		b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func wordEnd(source string, offset int) int {
	offset = max(0, min(offset, len(source)))
	for offset < len(source) && isWordByte(source[offset]) {
		offset++
	}
	return offset
}

func wordAt(source string, offset int) string {
	end := wordEnd(source, offset)
	start := min(offset, end)
	for start > 0 && isWordByte(source[start-1]) {
		start--
	}
	return strings.TrimPrefix(source[start:end], "$")
}

func (in *Intel) Close() error {
	var errs []error
	for _, s := range in.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// view answers Source queries for one request, loading each file's
// declaration set at most once.
type view struct {
	intel *Intel
	index *Index
	files map[string][]php.Declaration
}

func (in *Intel) view(index *Index) *view {
	return &view{intel: in, index: index, files: make(map[string][]php.Declaration)}
}

func (v *view) Has(class string) bool { return v.index.Has(class) }
func (v *view) Classes() []string     { return v.index.Classes() }

func (v *view) Declarations(class string) []php.Declaration {
	var decls []php.Declaration
	for _, file := range v.index.Files(class) {
		for _, d := range v.load(file) {
			if d.Class == class {
				decls = append(decls, d)
			}
		}
	}
	return decls
}

func (v *view) load(file string) []php.Declaration {
	if decls, ok := v.files[file]; ok {
		return decls
	}
	var decls []php.Declaration
	if store, ok := v.intel.StoreFor(file); ok {
		decls = store.LoadDeclarations(file)
	} else {
		for _, s := range v.intel.stores {
			if decls = s.LoadDeclarations(file); decls != nil {
				break
			}
		}
	}
	v.files[file] = decls
	return decls
}
