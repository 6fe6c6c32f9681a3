package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/tasker-lines/internal/fileutil"
)

const (
	FileName        = "config.yaml"
	DefaultDataFile = "tasks.txt"
	EnvRoot         = "TASKER_ROOT"
	envPrefix       = "TASKER"
)

var ErrUnknownKey = errors.New("unknown config key")

// Config is the on-disk configuration for one store root.
type Config struct {
	// DataFile is the task record file. Relative paths resolve against the root.
	DataFile string `mapstructure:"data_file" yaml:"data_file"`

	// Banner controls the greeting printed when an interactive session starts.
	Banner bool `mapstructure:"banner" yaml:"banner"`

	// Lock holds an exclusive lock on the data file for the whole session.
	Lock bool `mapstructure:"lock" yaml:"lock"`
}

// Keys lists the settable configuration keys.
var Keys = []string{"data_file", "banner", "lock"}

func Default() Config {
	return Config{
		DataFile: DefaultDataFile,
		Banner:   true,
		Lock:     true,
	}
}

// DefaultRoot returns TASKER_ROOT, or ~/.tasker, or .tasker when there is no home.
func DefaultRoot() string {
	if env := os.Getenv(EnvRoot); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	if home != "" {
		return filepath.Join(home, ".tasker")
	}
	return ".tasker"
}

func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads <root>/config.yaml with TASKER_* environment overrides.
// A missing file yields the defaults.
func Load(root string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(Path(root))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("data_file", def.DataFile)
	v.SetDefault("banner", def.Banner)
	v.SetDefault("lock", def.Lock)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("reading config %s: %w", Path(root), err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", Path(root), err)
	}
	if strings.TrimSpace(cfg.DataFile) == "" {
		cfg.DataFile = def.DataFile
	}
	return cfg, nil
}

// Save writes cfg to <root>/config.yaml.
func Save(root string, cfg Config) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(Path(root), b, 0o644)
}

// DataPath resolves the data file against root.
func (c Config) DataPath(root string) string {
	p := expandHome(strings.TrimSpace(c.DataFile))
	if p == "" {
		p = DefaultDataFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Set updates one key from its string form.
func Set(cfg *Config, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	switch key {
	case "data_file":
		if value == "" || value == "none" || value == "null" {
			cfg.DataFile = DefaultDataFile
		} else {
			cfg.DataFile = value
		}
	case "banner":
		v, ok := ParseBool(value)
		if !ok {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		cfg.Banner = v
	case "lock":
		v, ok := ParseBool(value)
		if !ok {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		cfg.Lock = v
	default:
		return fmt.Errorf("%w: %s (allowed: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

// Get returns the string form of one key.
func Get(cfg Config, key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "data_file":
		return cfg.DataFile, nil
	case "banner":
		return strconv.FormatBool(cfg.Banner), nil
	case "lock":
		return strconv.FormatBool(cfg.Lock), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
