package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dhamidi/phpintel/php"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".phpintel.yaml", `
roots: [src, /opt/lib]
blacklist: [/vendor/]
storage: sqlite
save_every: 10
custom_factories:
  - pattern: 'Model::factory\(.(\w+).\)'
    class: 'new %1'
    capitalize: true
factories:
  - pattern: 'app\(.(\w+).\)'
    class: 'new %1'
log:
  verbosity: 2
`)

	cfg, err := LoadConfig("", root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Storage != "sqlite" {
		t.Errorf("Storage = %q, want %q", cfg.Storage, "sqlite")
	}
	if cfg.SaveEvery != 10 {
		t.Errorf("SaveEvery = %d, want 10", cfg.SaveEvery)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("Log.Verbosity = %d, want 2", cfg.Log.Verbosity)
	}
	if diff := cmp.Diff([]string{".php"}, cfg.Extensions); diff != "" {
		t.Errorf("Extensions mismatch (-want +got):\n%s", diff)
	}
	wantCustom := []php.Rule{{Pattern: `Model::factory\(.(\w+).\)`, Class: "new %1", Capitalize: true}}
	if diff := cmp.Diff(wantCustom, cfg.CustomFactories); diff != "" {
		t.Errorf("CustomFactories mismatch (-want +got):\n%s", diff)
	}
	wantRoots := []string{filepath.Join(root, "src"), "/opt/lib"}
	if diff := cmp.Diff(wantRoots, cfg.RootsIn(root)); diff != "" {
		t.Errorf("RootsIn mismatch (-want +got):\n%s", diff)
	}

	rewritten := cfg.Patterns().Rewrite("$p = Model::factory('post')->")
	if rewritten != "$p = new Post->" {
		t.Errorf("Patterns().Rewrite() = %q, want %q", rewritten, "$p = new Post->")
	}
	if got := cfg.Patterns().Rewrite("$s = app('session')->"); got != "$s = new session->" {
		t.Errorf("Patterns().Rewrite() = %q, want %q", got, "$s = new session->")
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.json", `{"tokenizer": "treesitter", "min_global_prefix": 3}`)

	cfg, err := LoadConfig(path, t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tokenizer != "treesitter" {
		t.Errorf("Tokenizer = %q, want %q", cfg.Tokenizer, "treesitter")
	}
	if cfg.MinGlobalPrefix != 3 {
		t.Errorf("MinGlobalPrefix = %d, want 3", cfg.MinGlobalPrefix)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("PHPINTEL_STORAGE", "sqlite")
	t.Setenv("PHPINTEL_LOG_PATH", "/tmp/phpintel.log")

	cfg, err := LoadConfig("", t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage != "sqlite" {
		t.Errorf("Storage = %q, want %q", cfg.Storage, "sqlite")
	}
	if cfg.Log.Path != "/tmp/phpintel.log" {
		t.Errorf("Log.Path = %q, want %q", cfg.Log.Path, "/tmp/phpintel.log")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("invalid storage", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".phpintel.yaml", "storage: redis\n")
		_, err := LoadConfig("", root)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "storage" {
			t.Errorf("LoadConfig() error = %v, want storage ConfigError", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".phpintel.yaml", "roots: [unclosed\n")
		if _, err := LoadConfig("", root); err == nil {
			t.Error("LoadConfig() error = nil, want parse error")
		}
	})
}

func TestFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Blacklist = []string{"legacy"}
	f := cfg.Filter()
	if !f.HasExtension("a.php") || f.HasExtension("a.js") {
		t.Errorf("Filter extensions = %v", f.Extensions)
	}
	if !f.Blacklisted("/src/legacy/a.php") {
		t.Error("Blacklisted(legacy) = false")
	}
}
