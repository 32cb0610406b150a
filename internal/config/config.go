package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"stripdrop/internal/processor"
)

const (
	keySaveEnabled   = "save_enabled"
	keySaveDirectory = "save_directory"
	keyJPEGQuality   = "jpeg_quality"
	keyWorkers       = "workers"
	keyLogLevel      = "log_level"
	keyLogFormat     = "log_format"
)

// Preferences are the persisted user choices. Only the shell reads and
// writes them; the processor receives a Settings value per batch.
type Preferences struct {
	SaveEnabled   bool   `mapstructure:"save_enabled"`
	SaveDirectory string `mapstructure:"save_directory"`
	JPEGQuality   int    `mapstructure:"jpeg_quality"`
	Workers       int    `mapstructure:"workers"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
}

func (p Preferences) Settings() processor.Settings {
	return processor.Settings{
		SaveEnabled:   p.SaveEnabled,
		SaveDirectory: p.SaveDirectory,
		JPEGQuality:   p.JPEGQuality,
		Workers:       p.Workers,
	}
}

// SaveDirectoryMissing reports whether a remembered directory has gone away.
func (p Preferences) SaveDirectoryMissing() bool {
	if p.SaveDirectory == "" {
		return false
	}
	info, err := os.Stat(p.SaveDirectory)
	return err != nil || !info.IsDir()
}

type Store struct {
	v    *viper.Viper
	path string
}

// DefaultPath is config.yaml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config directory")
	}
	return filepath.Join(dir, "stripdrop", "config.yaml"), nil
}

// Open reads the config file at path, or the default location when path
// is empty. A missing file is not an error. STRIPDROP_* environment
// variables override file values.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("stripdrop")
	v.AutomaticEnv()

	v.SetDefault(keySaveEnabled, false)
	v.SetDefault(keySaveDirectory, "")
	v.SetDefault(keyJPEGQuality, 75)
	v.SetDefault(keyWorkers, runtime.NumCPU())
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return &Store{v: v, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() (Preferences, error) {
	var p Preferences
	if err := s.v.Unmarshal(&p); err != nil {
		return Preferences{}, errors.Wrap(err, "decode config")
	}
	return p, nil
}

// Save persists the shell-owned keys.
func (s *Store) Save(p Preferences) error {
	s.v.Set(keySaveEnabled, p.SaveEnabled)
	s.v.Set(keySaveDirectory, p.SaveDirectory)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errors.Wrapf(err, "write config %s", s.path)
	}
	return nil
}
