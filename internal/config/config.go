package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/record"
)

const (
	EnvDatabaseURL    = "FIXCONV_DATABASE_URL"
	envDatabaseURLAlt = "DATABASE_URL"
	EnvServerAddr     = "FIXCONV_ADDR"
	EnvDictionaryDir  = "FIXCONV_DICTIONARY_DIR"
	EnvAPIToken       = "FIXCONV_API_TOKEN"
)

type Config struct {
	DictionaryDir       string            `toml:"dictionary_dir"`
	DefaultVersion      string            `toml:"default_version"`
	VerifyChecksum      bool              `toml:"verify_checksum"`
	VerifyBodyLength    bool              `toml:"verify_body_length"`
	VerifyMsgType       bool              `toml:"verify_msg_type"`
	DictionaryOverrides map[string]string `toml:"dictionary_overrides"`
	Server              ServerConfig      `toml:"server"`
	Output              OutputConfig      `toml:"output"`
	Database            DatabaseConfig    `toml:"database"`
	Criteria            map[string]any    `toml:"criteria"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	// APIToken, when set, is required on every /v1 request.
	APIToken string `toml:"api_token"`
}

type OutputConfig struct {
	Compression string `toml:"compression"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

func Default() Config {
	return Config{
		DictionaryDir:       protocol.DefaultDictionaryDir,
		DefaultVersion:      protocol.ID44,
		VerifyChecksum:      true,
		VerifyBodyLength:    true,
		VerifyMsgType:       false,
		DictionaryOverrides: map[string]string{},
		Server: ServerConfig{
			Addr:        ":8088",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Output: OutputConfig{Compression: "null"},
	}
}

type fileConfig struct {
	DictionaryDir       string            `toml:"dictionary_dir"`
	DefaultVersion      string            `toml:"default_version"`
	VerifyChecksum      bool              `toml:"verify_checksum"`
	VerifyBodyLength    bool              `toml:"verify_body_length"`
	VerifyMsgType       bool              `toml:"verify_msg_type"`
	DictionaryOverrides map[string]string `toml:"dictionary_overrides"`
	Server              struct {
		Addr        string   `toml:"addr"`
		CorsOrigins []string `toml:"cors_origins"`
		APIToken    string   `toml:"api_token"`
	} `toml:"server"`
	Output struct {
		Compression string `toml:"compression"`
	} `toml:"output"`
	Database struct {
		URL string `toml:"url"`
	} `toml:"database"`
	Criteria map[string]any `toml:"criteria"`
}

// Load reads path over Default. Keys absent from the file keep their
// default, so verify_checksum = false is honored while a missing key is not.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("dictionary_dir") {
		cfg.DictionaryDir = strings.TrimSpace(raw.DictionaryDir)
	}
	if meta.IsDefined("default_version") {
		cfg.DefaultVersion = strings.TrimSpace(raw.DefaultVersion)
	}
	if meta.IsDefined("verify_checksum") {
		cfg.VerifyChecksum = raw.VerifyChecksum
	}
	if meta.IsDefined("verify_body_length") {
		cfg.VerifyBodyLength = raw.VerifyBodyLength
	}
	if meta.IsDefined("verify_msg_type") {
		cfg.VerifyMsgType = raw.VerifyMsgType
	}
	if meta.IsDefined("dictionary_overrides") {
		for id, ref := range raw.DictionaryOverrides {
			cfg.DictionaryOverrides[strings.TrimSpace(id)] = strings.TrimSpace(ref)
		}
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeList(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "api_token") {
		cfg.Server.APIToken = strings.TrimSpace(raw.Server.APIToken)
	}
	if meta.IsDefined("output", "compression") {
		cfg.Output.Compression = strings.ToLower(strings.TrimSpace(raw.Output.Compression))
	}
	if meta.IsDefined("database", "url") {
		cfg.Database.URL = strings.TrimSpace(raw.Database.URL)
	}
	if meta.IsDefined("criteria") {
		cfg.Criteria = raw.Criteria
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, or Default when path is empty.
func LoadOrDefault(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overlays values from the environment onto cfg.
func ApplyEnv(cfg *Config) {
	if v := firstEnv(EnvDatabaseURL, envDatabaseURLAlt); v != "" {
		cfg.Database.URL = v
	}
	if v := firstEnv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := firstEnv(EnvDictionaryDir); v != "" {
		cfg.DictionaryDir = v
	}
	if v := firstEnv(EnvAPIToken); v != "" {
		cfg.Server.APIToken = v
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.DictionaryDir) == "" {
		return fmt.Errorf("dictionary_dir is required")
	}
	if _, err := protocol.NewRegistry(cfg.DictionaryDir).Version(cfg.DefaultVersion); err != nil {
		return fmt.Errorf("default_version %q: %w", cfg.DefaultVersion, err)
	}
	for id, ref := range cfg.DictionaryOverrides {
		if _, err := protocol.NewRegistry(cfg.DictionaryDir).Version(id); err != nil {
			return fmt.Errorf("dictionary_overrides[%s]: %w", id, err)
		}
		if ref == "" {
			return fmt.Errorf("dictionary_overrides[%s] is empty", id)
		}
	}
	if !record.ValidCompression(cfg.Output.Compression) {
		return fmt.Errorf("output.compression %q is not one of null, deflate, snappy", cfg.Output.Compression)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Registry builds the version registry with the configured overrides applied.
func (c Config) Registry() (*protocol.Registry, error) {
	reg := protocol.NewRegistry(c.DictionaryDir)
	for id, ref := range c.DictionaryOverrides {
		if err := reg.SetOverride(id, ref); err != nil {
			return nil, fmt.Errorf("dictionary override %s: %w", id, err)
		}
	}
	return reg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
