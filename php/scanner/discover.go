package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dhamidi/phpintel/php/intel"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".idea":        {},
	"node_modules": {},
}

// Filter decides which files under a root are scanned.
type Filter struct {
	// Extensions lists accepted file extensions including the dot.
	Extensions []string
	// Blacklist excludes every path containing one of its entries.
	Blacklist    []string
	UseGitignore bool
	CacheDir     string
}

func DefaultFilter() Filter {
	return Filter{
		Extensions:   []string{".php"},
		UseGitignore: true,
		CacheDir:     intel.DefaultCacheDir,
	}
}

// Blacklisted reports whether path contains a blacklist entry.
func (f Filter) Blacklisted(path string) bool {
	for _, b := range f.Blacklist {
		if b != "" && strings.Contains(path, b) {
			return true
		}
	}
	return false
}

func (f Filter) HasExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range f.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Accepts reports whether path should be scanned. The gitignore check needs
// the root the path belongs to.
func (f Filter) Accepts(root, path string) bool {
	return newWalker(root, f).accepts(path)
}

// Walk calls fn for every accepted file under root in lexical order.
// Symbolic links to directories are followed once per target. Walk stops
// early when ctx is done or fn returns an error.
func Walk(ctx context.Context, root string, f Filter, fn func(path string) error) error {
	w := newWalker(root, f)
	w.ctx = ctx
	w.fn = fn
	return w.walk(root, root)
}

// Files returns every accepted file under root.
func Files(root string, f Filter) ([]string, error) {
	var files []string
	err := Walk(context.Background(), root, f, func(path string) error {
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

type walker struct {
	ctx       context.Context
	root      string
	filter    Filter
	gitignore *ignore.GitIgnore
	fn        func(string) error
	visited   map[string]bool
}

func newWalker(root string, f Filter) *walker {
	w := &walker{
		ctx:     context.Background(),
		root:    root,
		filter:  f,
		visited: make(map[string]bool),
	}
	if f.UseGitignore {
		w.gitignore = loadGitignore(root)
	}
	return w
}

// walk descends into dir, which is reached through the path logical.
// Reported paths stay under the logical path even inside linked
// directories.
func (w *walker) walk(dir, logical string) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil
	}
	if w.visited[real] {
		return nil
	}
	w.visited[real] = true

	return filepath.WalkDir(real, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if err := w.ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(real, path)
		if relErr != nil {
			return nil
		}
		display := filepath.Join(logical, rel)

		if d.IsDir() {
			if path == real {
				return nil
			}
			if w.skipDir(d.Name(), display) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if w.skipDir(d.Name(), display) {
					return nil
				}
				return w.walk(path, display)
			}
		}

		if !w.accepts(display) {
			return nil
		}
		return w.fn(display)
	})
}

func (w *walker) skipDir(name, path string) bool {
	if _, skip := skipDirs[name]; skip {
		return true
	}
	if w.filter.CacheDir != "" && name == w.filter.CacheDir {
		return true
	}
	return w.ignored(path + string(filepath.Separator))
}

func (w *walker) accepts(path string) bool {
	if !w.filter.HasExtension(path) || w.filter.Blacklisted(path) {
		return false
	}
	return !w.ignored(path)
}

func (w *walker) ignored(path string) bool {
	if w.gitignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		rel += "/"
	}
	return w.gitignore.MatchesPath(filepath.ToSlash(rel))
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warningf("load .gitignore in %s: %v", root, err)
		}
		return nil
	}
	return gi
}
