// Package conf loads TOML configuration with viper, layering environment
// variables and an optional .env file on top.
package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options describes where configuration comes from.
type Options struct {
	// File is an explicit config file. When empty, Dir/config.toml is used
	// if it exists.
	File string
	Dir  string
	// EnvPrefix maps SQUADIO_DATABASE_MAX_OPEN_CONNS to database.max_open_conns.
	EnvPrefix string
	// EnvFile is loaded into the process environment first; missing is fine.
	EnvFile string
	// Bind maps extra variable names onto keys, e.g. DATABASE_URL to database.dsn.
	Bind map[string]string
	// Defaults are applied below every other source.
	Defaults map[string]any
}

// Loader owns one viper instance.
type Loader struct {
	v    *viper.Viper
	opts Options
	mu   sync.Mutex
}

func New(opts Options) (*Loader, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType(Name)
	for k, val := range opts.Defaults {
		v.SetDefault(k, val)
	}
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for env, key := range opts.Bind {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	switch {
	case opts.File != "":
		v.SetConfigFile(opts.File)
	case opts.Dir != "":
		v.AddConfigPath(opts.Dir)
		v.SetConfigName("config")
	}

	if opts.File != "" || opts.Dir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if opts.File != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration file: %w", err)
			}
			log.Debugw("no configuration file, using defaults and environment", "dir", opts.Dir)
		} else {
			log.Infow("configuration loaded", "file", v.ConfigFileUsed())
		}
	}

	return &Loader{v: v, opts: opts}, nil
}

// Unmarshal decodes the merged configuration into out, a pointer.
func (l *Loader) Unmarshal(out any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

// Watch re-reads the file on change and hands the fresh viper state to fn.
// It does nothing when no file was loaded.
func (l *Loader) Watch(fn func(l *Loader)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("configuration changed, reloading", "file", e.Name, "op", e.Op.String())
		fn(l)
	})
	l.v.WatchConfig()
}

func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// AllSettings returns the merged key space, for display.
func (l *Loader) AllSettings() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v.AllSettings()
}
