package site

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jlrickert/halopub/pkg/internal"
)

// EnvConfigPath overrides the configuration file location when set.
const EnvConfigPath = "HALOPUB_CONFIG"

const appName = "halopub"

// Config is the persisted halopub configuration: the global
// publish-by-default behavior and the configured sites.
type Config struct {
	PublishByDefault bool   `yaml:"publishByDefault"`
	Sites            []Site `yaml:"sites"`
}

// DefaultConfig returns the configuration used before any file exists.
func DefaultConfig() Config {
	return Config{PublishByDefault: true}
}

// Registry builds the validated site registry from the configuration.
func (c Config) Registry() *Registry {
	return NewRegistry(c.Sites)
}

// DefaultPath returns the configuration file location: the EnvConfigPath
// override when set, else config.yaml under the user config dir.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := internal.GetConfigDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration at path. A missing file yields the default
// configuration, not an error.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration atomically. The file is created with 0600:
// it carries access tokens.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdirall %s: %w", dir, err)
	}
	if err := internal.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	return nil
}
