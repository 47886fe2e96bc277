package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MirrexOne/sqlctx/pkg/config"
)

func TestConfigFileName(t *testing.T) {
	if ConfigFileName != ".sqlctx.yaml" {
		t.Errorf("ConfigFileName = %s, want .sqlctx.yaml", ConfigFileName)
	}
	if AlternateConfigFileName != ".sqlctx.yml" {
		t.Errorf("AlternateConfigFileName = %s, want .sqlctx.yml", AlternateConfigFileName)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("valid config", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "valid.yaml")
		writeFile(t, configPath, `
dialect: sqlite
schema-file: db/schema.yaml
qualify: table
cache-size: 64
hide-system-tables: false
variables-debounce: 500ms
rules:
  - id: no-temp
    pattern: tmp_$ANY
    kinds: [table]
  - id: ids-first
    pattern: $ANY_id
    action: boost
    boost: 3
`)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if cfg.Dialect != "sqlite" {
			t.Errorf("Dialect = %s, want sqlite", cfg.Dialect)
		}
		if want := filepath.Join(tmpDir, "db", "schema.yaml"); cfg.SchemaFile != want {
			t.Errorf("SchemaFile = %s, want %s", cfg.SchemaFile, want)
		}
		if cfg.Qualify != config.QualifyTable {
			t.Errorf("Qualify = %s, want table", cfg.Qualify)
		}
		if cfg.CacheSize != 64 {
			t.Errorf("CacheSize = %d, want 64", cfg.CacheSize)
		}
		if cfg.HideSystemTables {
			t.Error("HideSystemTables should be false")
		}
		if cfg.VariablesDebounce != 500*time.Millisecond {
			t.Errorf("VariablesDebounce = %v, want 500ms", cfg.VariablesDebounce)
		}
		if len(cfg.Rules) != 2 {
			t.Fatalf("Rules len = %d, want 2", len(cfg.Rules))
		}
		if cfg.Rules[1].Action != config.ActionBoost || cfg.Rules[1].Boost != 3 {
			t.Errorf("Rules[1] = %+v, want boost 3", cfg.Rules[1])
		}
	})

	t.Run("absolute schema file kept", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "abs.yaml")
		abs := filepath.Join(tmpDir, "elsewhere", "schema.yaml")
		writeFile(t, configPath, "schema-file: "+abs)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.SchemaFile != abs {
			t.Errorf("SchemaFile = %s, want %s", cfg.SchemaFile, abs)
		}
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err == nil {
			t.Error("LoadConfig() should return error for nonexistent file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		writeFile(t, configPath, "rules: [invalid yaml content\n")

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("LoadConfig() should return error for invalid YAML")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "unknown.yaml")
		writeFile(t, configPath, "severity: error\n")

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("LoadConfig() should reject unknown keys")
		}
	})

	t.Run("empty config", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "empty.yaml")
		writeFile(t, configPath, "")

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		defaults := config.DefaultSettings()
		if cfg.Qualify != defaults.Qualify || cfg.CacheSize != defaults.CacheSize {
			t.Errorf("empty config = %+v, want defaults %+v", cfg, defaults)
		}
		if !cfg.HideSystemTables {
			t.Error("HideSystemTables should default to true")
		}
	})
}

func TestFindConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "dir")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origDir) }()

	t.Run("no config", func(t *testing.T) {
		if err := os.Chdir(subDir); err != nil {
			t.Fatal(err)
		}

		// The result depends on parent directories; only errors matter.
		if _, err := FindConfig(); err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
	})

	t.Run("config in current dir", func(t *testing.T) {
		configPath := filepath.Join(subDir, ConfigFileName)
		writeFile(t, configPath, "qualify: table")
		defer os.Remove(configPath)

		if err := os.Chdir(subDir); err != nil {
			t.Fatal(err)
		}

		path, err := FindConfig()
		if err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
		if path != configPath {
			t.Errorf("FindConfig() = %s, want %s", path, configPath)
		}
	})

	t.Run("config in parent dir", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ConfigFileName)
		writeFile(t, configPath, "qualify: alias")
		defer os.Remove(configPath)

		if got := FindConfigFrom(subDir); got != configPath {
			t.Errorf("FindConfigFrom() = %s, want %s", got, configPath)
		}
	})

	t.Run("alternate config name", func(t *testing.T) {
		configPath := filepath.Join(subDir, AlternateConfigFileName)
		writeFile(t, configPath, "qualify: alias")
		defer os.Remove(configPath)

		if got := FindConfigFrom(subDir); got != configPath {
			t.Errorf("FindConfigFrom() = %s, want %s", got, configPath)
		}
	})

	t.Run("primary name wins", func(t *testing.T) {
		primary := filepath.Join(subDir, ConfigFileName)
		alternate := filepath.Join(subDir, AlternateConfigFileName)
		writeFile(t, primary, "")
		writeFile(t, alternate, "")
		defer os.Remove(primary)
		defer os.Remove(alternate)

		if got := FindConfigFrom(subDir); got != primary {
			t.Errorf("FindConfigFrom() = %s, want %s", got, primary)
		}
	})
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("explicit path", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		writeFile(t, configPath, "qualify: table")

		cfg, err := LoadOrDefault(configPath)
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.Qualify != config.QualifyTable {
			t.Errorf("Qualify = %s, want table", cfg.Qualify)
		}
	})

	t.Run("explicit path not found", func(t *testing.T) {
		_, err := LoadOrDefault(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err == nil {
			t.Error("LoadOrDefault() should return error for nonexistent explicit path")
		}
	})

	t.Run("found config is loaded", func(t *testing.T) {
		origDir, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = os.Chdir(origDir) }()

		dir := filepath.Join(tmpDir, "project")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(dir, ConfigFileName), "cache-size: 8")
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadOrDefault("")
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.CacheSize != 8 {
			t.Errorf("CacheSize = %d, want 8", cfg.CacheSize)
		}
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func(mutate func(*config.Settings)) *config.Settings {
		cfg := config.DefaultSettings()
		mutate(&cfg)
		return &cfg
	}

	tests := []struct {
		name    string
		cfg     *config.Settings
		wantErr bool
	}{
		{
			name:    "defaults",
			cfg:     valid(func(*config.Settings) {}),
			wantErr: false,
		},
		{
			name:    "empty dialect",
			cfg:     &config.Settings{},
			wantErr: false,
		},
		{
			name:    "invalid dialect",
			cfg:     valid(func(c *config.Settings) { c.Dialect = "oracle" }),
			wantErr: true,
		},
		{
			name:    "invalid qualify",
			cfg:     valid(func(c *config.Settings) { c.Qualify = "schema" }),
			wantErr: true,
		},
		{
			name:    "negative debounce",
			cfg:     valid(func(c *config.Settings) { c.VariablesDebounce = -time.Second }),
			wantErr: true,
		},
		{
			name: "valid rules",
			cfg: valid(func(c *config.Settings) {
				c.Rules = []config.RuleSpec{
					{ID: "a", Pattern: "tmp_$ANY"},
					{ID: "b", Pattern: "$ANY", When: `kind == "column"`, Action: "boost", Boost: 1},
				}
			}),
			wantErr: false,
		},
		{
			name: "duplicate rule id",
			cfg: valid(func(c *config.Settings) {
				c.Rules = []config.RuleSpec{{ID: "a", Pattern: "x"}, {ID: "a", Pattern: "y"}}
			}),
			wantErr: true,
		},
		{
			name: "rule without pattern",
			cfg: valid(func(c *config.Settings) {
				c.Rules = []config.RuleSpec{{ID: "a"}}
			}),
			wantErr: true,
		},
		{
			name: "rule with broken condition",
			cfg: valid(func(c *config.Settings) {
				c.Rules = []config.RuleSpec{{ID: "a", Pattern: "x", When: "unknown_var > 1"}}
			}),
			wantErr: true,
		},
		{
			name: "rule with unknown kind",
			cfg: valid(func(c *config.Settings) {
				c.Rules = []config.RuleSpec{{ID: "a", Pattern: "x", Kinds: []string{"view"}}}
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
