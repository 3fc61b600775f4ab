// Package project locates a PHP project on disk and wires its
// configuration into the intel service and scanner.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/phpintel/php/intel"
	"github.com/dhamidi/phpintel/php/parser"
	"github.com/dhamidi/phpintel/php/scanner"
)

var log = commonlog.GetLogger("phpintel.project")

// markers identify a project root, most specific first.
var markers = []string{
	ConfigName + ".yaml",
	ConfigName + ".yml",
	ConfigName + ".json",
	ConfigName + ".toml",
	"composer.json",
	".git",
}

// Project represents a PHP code base with one or more scanned roots.
type Project struct {
	RootDir string
	Config  *Config
}

// Load finds the project containing the current directory.
func Load() (*Project, error) {
	return LoadFrom(".", "")
}

// LoadFrom finds the project containing dir and reads its configuration,
// or the file at configPath when given.
func LoadFrom(dir, configPath string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	root := FindRoot(abs)

	cfg, err := LoadConfig(configPath, root)
	if err != nil {
		return nil, err
	}
	return &Project{RootDir: root, Config: cfg}, nil
}

// FindRoot walks up from dir to the nearest directory holding a project
// marker. Without one, dir itself is the root.
func FindRoot(dir string) string {
	for current := dir; ; {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func (p *Project) Roots() []string {
	return p.Config.RootsIn(p.RootDir)
}

// Intel opens the intel service over the project's roots.
func (p *Project) Intel() (*intel.Intel, error) {
	tokenizer, err := parser.Backend(p.Config.Tokenizer)
	if err != nil {
		return nil, err
	}
	return intel.New(intel.Options{
		Roots:           p.Roots(),
		Storage:         p.Config.Storage,
		CacheDir:        p.Config.CacheDir,
		Tokenizer:       tokenizer,
		Rewriter:        p.Config.Patterns(),
		MinGlobalPrefix: p.Config.MinGlobalPrefix,
	})
}

// Scanner creates a scanner that keeps in current.
func (p *Project) Scanner(in *intel.Intel) *scanner.Scanner {
	return scanner.New(in, scanner.Options{
		Filter:    p.Config.Filter(),
		SaveEvery: p.Config.SaveEvery,
	})
}
