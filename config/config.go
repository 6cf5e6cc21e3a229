// Package config loads mathkernel settings from YAML or TOML files, .env
// files and MATHKERNEL_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mathkernel/engine"
	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/kernel"
	"github.com/wippyai/mathkernel/toolchain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MATHKERNEL_"

// FileNames are searched in order by Find.
var FileNames = []string{"mathkernel.yaml", "mathkernel.yml", "mathkernel.toml"}

// Config is the file and environment representation of a kernel setup.
type Config struct {
	Toolchain Toolchain `yaml:"toolchain" toml:"toolchain"`
	Engine    Engine    `yaml:"engine" toml:"engine"`
	Log       Log       `yaml:"log" toml:"log"`

	// Seed replaces the default random seed when set.
	Seed *int64 `yaml:"seed" toml:"seed"`

	// Path of the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// Toolchain selects how the full module is compiled.
type Toolchain struct {
	// Name is builtin, external, auto or none.
	Name string `yaml:"name" toml:"name"`
	// Path to the external compiler; empty searches PATH for wat2wasm.
	Path string `yaml:"path" toml:"path"`
	// Timeout for one external compilation, e.g. "10s".
	Timeout string `yaml:"timeout" toml:"timeout"`
}

// Engine configures the wazero sandbox.
type Engine struct {
	MemoryPages uint32 `yaml:"memory_pages" toml:"memory_pages"`
	Interpreter bool   `yaml:"interpreter" toml:"interpreter"`
}

// Log configures the zap logger built by Logger.
type Log struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`
	// Format is console or json.
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Toolchain: Toolchain{Name: toolchain.NameBuiltin},
		Engine:    Engine{MemoryPages: 1},
		Log:       Log{Level: "warn", Format: "console"},
	}
}

// Find returns the first config file from FileNames present in dir, or ""
// when there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads a config file over the defaults. The format follows the file
// extension: .yaml, .yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "cannot read "+path)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, errors.Unsupported(errors.PhaseConfig, "config format "+ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse error in "+path)
	}
	cfg.Path = path
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are skipped; variables already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "cannot load "+f)
		}
	}
	return nil
}

// ApplyEnv overrides fields from MATHKERNEL_* variables found by lookup.
// Pass os.LookupEnv for the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		return lookup(EnvPrefix + key)
	}

	if v, ok := get("TOOLCHAIN"); ok {
		c.Toolchain.Name = v
	}
	if v, ok := get("TOOLCHAIN_PATH"); ok {
		c.Toolchain.Path = v
	}
	if v, ok := get("TOOLCHAIN_TIMEOUT"); ok {
		c.Toolchain.Timeout = v
	}
	if v, ok := get("MEMORY_PAGES"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return envError("MEMORY_PAGES", v, err)
		}
		c.Engine.MemoryPages = uint32(n)
	}
	if v, ok := get("INTERPRETER"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("INTERPRETER", v, err)
		}
		c.Engine.Interpreter = b
	}
	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return envError("SEED", v, err)
		}
		c.Seed = &n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

func envError(key, value string, cause error) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(EnvPrefix + key).Value(value).Cause(cause).
		Detail("invalid value %q", value).
		Build()
}

// Validate checks field values without building anything.
func (c *Config) Validate() error {
	if _, err := toolchain.FromName(c.Toolchain.Name, c.Toolchain.Path); err != nil {
		return err
	}
	if _, err := c.timeout(); err != nil {
		return err
	}
	if c.Engine.MemoryPages > 65536 {
		return errors.New(errors.PhaseConfig, errors.KindOutOfBounds).
			Path("engine", "memory_pages").Value(c.Engine.MemoryPages).
			Detail("memory_pages must be at most 65536").
			Build()
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log", "format").Value(c.Log.Format).
			Detail("unknown log format %q (want console or json)", c.Log.Format).
			Build()
	}
	return nil
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Toolchain.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Toolchain.Timeout)
	if err != nil || d < 0 {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("toolchain", "timeout").Value(c.Toolchain.Timeout).Cause(err).
			Detail("invalid duration %q", c.Toolchain.Timeout).
			Build()
	}
	return d, nil
}

func (c *Config) level() (zapcore.Level, error) {
	if c.Log.Level == "" {
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log", "level").Value(c.Log.Level).Cause(err).
			Detail("unknown log level %q", c.Log.Level).
			Build()
	}
	return lvl, nil
}

// KernelConfig converts the settings into a kernel configuration.
func (c *Config) KernelConfig() (kernel.Config, error) {
	if err := c.Validate(); err != nil {
		return kernel.Config{}, err
	}
	p, _ := toolchain.FromName(c.Toolchain.Name, c.Toolchain.Path)
	d, _ := c.timeout()
	switch v := p.(type) {
	case *toolchain.External:
		v.Timeout = d
	case toolchain.Chain:
		for _, q := range v {
			if e, ok := q.(*toolchain.External); ok {
				e.Timeout = d
			}
		}
	}

	kc := kernel.DefaultConfig()
	kc.Toolchain = p
	kc.Seed = c.Seed
	kc.Engine = engine.Config{
		MemoryLimitPages:   c.Engine.MemoryPages,
		Interpreter:        c.Engine.Interpreter,
		CloseOnContextDone: true,
	}
	return kc, nil
}

// Logger builds a zap logger writing to stderr at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
