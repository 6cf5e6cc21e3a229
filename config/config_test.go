package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/toolchain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "mathkernel.yaml",
			content: `toolchain:
  name: external
  path: /opt/wabt/bin/wat2wasm
  timeout: 5s
engine:
  memory_pages: 4
  interpreter: true
log:
  level: debug
  format: json
seed: 42
`,
		},
		{
			name: "toml",
			file: "mathkernel.toml",
			content: `seed = 42

[toolchain]
name = "external"
path = "/opt/wabt/bin/wat2wasm"
timeout = "5s"

[engine]
memory_pages = 4
interpreter = true

[log]
level = "debug"
format = "json"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Path != path {
				t.Errorf("Path = %q", cfg.Path)
			}
			if cfg.Toolchain.Name != "external" || cfg.Toolchain.Path != "/opt/wabt/bin/wat2wasm" || cfg.Toolchain.Timeout != "5s" {
				t.Errorf("toolchain = %+v", cfg.Toolchain)
			}
			if cfg.Engine.MemoryPages != 4 || !cfg.Engine.Interpreter {
				t.Errorf("engine = %+v", cfg.Engine)
			}
			if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
				t.Errorf("log = %+v", cfg.Log)
			}
			if cfg.Seed == nil || *cfg.Seed != 42 {
				t.Errorf("seed = %v", cfg.Seed)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "partial.yaml", "seed: 7\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Toolchain != def.Toolchain || cfg.Engine != def.Engine || cfg.Log != def.Log {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		kind errors.Kind
	}{
		{"missing", filepath.Join(dir, "absent.yaml"), errors.KindNotFound},
		{"format", writeFile(t, dir, "config.json", "{}"), errors.KindUnsupported},
		{"yaml syntax", writeFile(t, dir, "bad.yaml", "toolchain: [unclosed"), errors.KindInvalidData},
		{"toml syntax", writeFile(t, dir, "bad.toml", "[toolchain\nname ="), errors.KindInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want config/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find in empty dir = %q", got)
	}
	toml := writeFile(t, dir, "mathkernel.toml", "")
	if got := Find(dir); got != toml {
		t.Errorf("Find = %q, want %q", got, toml)
	}
	yml := writeFile(t, dir, "mathkernel.yaml", "")
	if got := Find(dir); got != yml {
		t.Errorf("Find prefers %q, want %q", got, yml)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MATHKERNEL_TOOLCHAIN":         "auto",
		"MATHKERNEL_TOOLCHAIN_PATH":    "/usr/bin/wat2wasm",
		"MATHKERNEL_TOOLCHAIN_TIMEOUT": "1m",
		"MATHKERNEL_MEMORY_PAGES":      "2",
		"MATHKERNEL_INTERPRETER":       "true",
		"MATHKERNEL_SEED":              "-5",
		"MATHKERNEL_LOG_LEVEL":         "info",
		"MATHKERNEL_LOG_FORMAT":        "json",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	want := Config{
		Toolchain: Toolchain{Name: "auto", Path: "/usr/bin/wat2wasm", Timeout: "1m"},
		Engine:    Engine{MemoryPages: 2, Interpreter: true},
		Log:       Log{Level: "info", Format: "json"},
	}
	if cfg.Toolchain != want.Toolchain || cfg.Engine != want.Engine || cfg.Log != want.Log {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != -5 {
		t.Errorf("seed = %v", cfg.Seed)
	}

	for _, key := range []string{"MATHKERNEL_MEMORY_PAGES", "MATHKERNEL_INTERPRETER", "MATHKERNEL_SEED"} {
		t.Run(key, func(t *testing.T) {
			bad := func(k string) (string, bool) {
				if k == key {
					return "bogus", true
				}
				return "", false
			}
			err := Default().ApplyEnv(bad)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseConfig || e.Path[0] != key {
				t.Errorf("ApplyEnv(%s=bogus) = %v", key, err)
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "MATHKERNEL_TEST_ENV_FILE=loaded\n")
	t.Cleanup(func() { os.Unsetenv("MATHKERNEL_TEST_ENV_FILE") })

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("MATHKERNEL_TEST_ENV_FILE"); got != "loaded" {
		t.Errorf("env = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"toolchain", func(c *Config) { c.Toolchain.Name = "gcc" }},
		{"timeout", func(c *Config) { c.Toolchain.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Toolchain.Timeout = "-1s" }},
		{"pages", func(c *Config) { c.Engine.MemoryPages = 70000 }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseConfig {
				t.Errorf("Validate = %v", err)
			}
			if _, err := cfg.KernelConfig(); err == nil {
				t.Error("KernelConfig accepted invalid config")
			}
		})
	}
}

func TestKernelConfig(t *testing.T) {
	seed := int64(9)
	cfg := Default()
	cfg.Toolchain = Toolchain{Name: "auto", Path: "/x/wat2wasm", Timeout: "3s"}
	cfg.Engine = Engine{MemoryPages: 2, Interpreter: true}
	cfg.Seed = &seed

	kc, err := cfg.KernelConfig()
	if err != nil {
		t.Fatal(err)
	}
	chain, ok := kc.Toolchain.(toolchain.Chain)
	if !ok || len(chain) != 2 {
		t.Fatalf("toolchain = %#v", kc.Toolchain)
	}
	ext, ok := chain[0].(*toolchain.External)
	if !ok || ext.Path != "/x/wat2wasm" || ext.Timeout != 3*time.Second {
		t.Errorf("external = %#v", chain[0])
	}
	if kc.Engine.MemoryLimitPages != 2 || !kc.Engine.Interpreter || !kc.Engine.CloseOnContextDone {
		t.Errorf("engine = %+v", kc.Engine)
	}
	if kc.Seed == nil || *kc.Seed != 9 {
		t.Errorf("seed = %v", kc.Seed)
	}

	cfg.Toolchain = Toolchain{Name: "none"}
	kc, err = cfg.KernelConfig()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := kc.Toolchain.(toolchain.Unavailable); !ok {
		t.Errorf("none toolchain = %#v", kc.Toolchain)
	}
}

func TestLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		cfg := Default()
		cfg.Log = Log{Level: "error", Format: format}
		l, err := cfg.Logger()
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if l.Core().Enabled(-1) {
			t.Errorf("%s: debug enabled at error level", format)
		}
	}
}
