package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/intel"
	"github.com/dhamidi/phpintel/php/scanner"
)

// ConfigName is the base name of the configuration file looked up in a
// project root, with any extension viper reads (.yaml, .json, .toml).
const ConfigName = ".phpintel"

type Config struct {
	// Roots are the directories that are scanned, relative to the
	// project root. Empty means the project root itself.
	Roots        []string `mapstructure:"roots" json:"roots" yaml:"roots"`
	Extensions   []string `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	Blacklist    []string `mapstructure:"blacklist" json:"blacklist" yaml:"blacklist"`
	UseGitignore bool     `mapstructure:"use_gitignore" json:"use_gitignore" yaml:"use_gitignore"`
	CacheDir     string   `mapstructure:"cache_dir" json:"cache_dir" yaml:"cache_dir"`
	// Storage is "files" or "sqlite".
	Storage string `mapstructure:"storage" json:"storage" yaml:"storage"`
	// Tokenizer is "native" or "treesitter".
	Tokenizer       string `mapstructure:"tokenizer" json:"tokenizer" yaml:"tokenizer"`
	SaveEvery       int    `mapstructure:"save_every" json:"save_every" yaml:"save_every"`
	MinGlobalPrefix int    `mapstructure:"min_global_prefix" json:"min_global_prefix" yaml:"min_global_prefix"`

	CustomFactories []php.Rule `mapstructure:"custom_factories" json:"custom_factories" yaml:"custom_factories"`
	Factories       []php.Rule `mapstructure:"factories" json:"factories" yaml:"factories"`

	Log LogConfig `mapstructure:"log" json:"log" yaml:"log"`
}

type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity" json:"verbosity" yaml:"verbosity"`
	Path      string `mapstructure:"path" json:"path" yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Extensions:      []string{".php"},
		UseGitignore:    true,
		CacheDir:        intel.DefaultCacheDir,
		Storage:         "files",
		Tokenizer:       "native",
		SaveEvery:       scanner.DefaultSaveEvery,
		MinGlobalPrefix: 2,
	}
}

// LoadConfig reads the configuration of the project at root. An explicit
// path overrides the lookup of ConfigName in root. A missing file yields
// the defaults. Environment variables prefixed PHPINTEL_ override file
// values, e.g. PHPINTEL_STORAGE=sqlite or PHPINTEL_LOG_VERBOSITY=2.
func LoadConfig(path, root string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("roots", defaults.Roots)
	v.SetDefault("extensions", defaults.Extensions)
	v.SetDefault("blacklist", defaults.Blacklist)
	v.SetDefault("use_gitignore", defaults.UseGitignore)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("storage", defaults.Storage)
	v.SetDefault("tokenizer", defaults.Tokenizer)
	v.SetDefault("save_every", defaults.SaveEvery)
	v.SetDefault("min_global_prefix", defaults.MinGlobalPrefix)
	v.SetDefault("log.verbosity", defaults.Log.Verbosity)
	v.SetDefault("log.path", defaults.Log.Path)

	v.SetEnvPrefix("PHPINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(root)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Debugf("using config %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case "", "files", "sqlite":
	default:
		return &ConfigError{Field: "storage", Message: fmt.Sprintf("unknown storage %q", c.Storage)}
	}
	if c.SaveEvery < 0 {
		return &ConfigError{Field: "save_every", Message: "must not be negative"}
	}
	return nil
}

// RootsIn resolves the configured roots against the project root.
func (c *Config) RootsIn(root string) []string {
	if len(c.Roots) == 0 {
		return []string{root}
	}
	roots := make([]string, len(c.Roots))
	for i, r := range c.Roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(root, r)
		}
		roots[i] = filepath.Clean(r)
	}
	return roots
}

// Patterns returns the rewrite rules applied before context resolution:
// the custom factories first, then the general ones.
func (c *Config) Patterns() php.Rewriter {
	return php.Chain{php.Rules(c.CustomFactories), php.Rules(c.Factories)}
}

func (c *Config) Filter() scanner.Filter {
	return scanner.Filter{
		Extensions:   c.Extensions,
		Blacklist:    c.Blacklist,
		UseGitignore: c.UseGitignore,
		CacheDir:     c.CacheDir,
	}
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
