package project

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dhamidi/phpintel/php/scanner"
)

func TestFindRoot(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		start  string
	}{
		{"composer", "composer.json", "src/Models"},
		{"config file", ".phpintel.yaml", "lib"},
		{"git dir", ".git/HEAD", "a/b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, tt.marker, "{}")
			writeFile(t, root, filepath.Join(tt.start, "x.php"), "<?php")

			got := FindRoot(filepath.Join(root, tt.start))
			if got != root {
				t.Errorf("FindRoot() = %q, want %q", got, root)
			}
		})
	}
}

func TestLoadFromScansConfiguredRoots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "composer.json", "{}")
	writeFile(t, root, ".phpintel.yaml", "roots: [app]\nstorage: sqlite\n")
	writeFile(t, root, "app/User.php", "<?php class User { public function name(): string {} }")
	writeFile(t, root, "other/Skipped.php", "<?php class Skipped {}")

	p, err := LoadFrom(filepath.Join(root, "app"), "")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if p.RootDir != root {
		t.Errorf("RootDir = %q, want %q", p.RootDir, root)
	}

	in, err := p.Intel()
	if err != nil {
		t.Fatalf("Intel: %v", err)
	}
	defer in.Close()

	if err := p.Scanner(in).Run(context.Background(), scanner.All); err != nil {
		t.Fatalf("Run: %v", err)
	}

	index := in.Load()
	if !index.Has("User") {
		t.Error("User was not indexed")
	}
	if index.Has("Skipped") {
		t.Error("class outside the configured roots was indexed")
	}

	source := "<?php\n/** @var User */\n$u = find();\n$u->"
	items := in.Complete(source, len(source))
	if len(items) != 1 || items[0].Name() != "name()" {
		t.Errorf("Complete() = %v, want name()", items)
	}
}

func TestIntelUnknownTokenizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tokenizer = "bogus"
	p := &Project{RootDir: t.TempDir(), Config: cfg}
	if _, err := p.Intel(); err == nil {
		t.Error("Intel() error = nil, want unknown tokenizer error")
	}
}
