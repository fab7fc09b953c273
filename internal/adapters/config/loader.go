// Package config loads the client configuration from wick.yaml.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path and applies defaults for every unset value.
// A missing file yields the default configuration.
func Load(path string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var wf Wickfile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	if err := apply(&cfg, &wf, filepath.Dir(path)); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return &cfg, nil
}

// apply merges the file values into cfg. Relative paths are resolved against dir.
func apply(cfg *domain.Config, wf *Wickfile, dir string) error {
	if wf.CheckInterval < 0 {
		return zerr.With(domain.ErrInvalidConfig, "checkInterval", wf.CheckInterval)
	}
	if wf.GraceDelay < 0 {
		return zerr.With(domain.ErrInvalidConfig, "graceDelay", wf.GraceDelay)
	}
	if wf.HTTP.Timeout < 0 {
		return zerr.With(domain.ErrInvalidConfig, "http.timeout", wf.HTTP.Timeout)
	}

	if wf.Namespace != "" {
		cfg.Namespace = wf.Namespace
	}
	if wf.Salt != "" {
		cfg.Salt = wf.Salt
		cfg.RandomSalt = false
	}
	if wf.CheckInterval > 0 {
		cfg.CheckInterval = time.Duration(wf.CheckInterval) * time.Second
	}
	if wf.GraceDelay > 0 {
		cfg.GraceDelay = time.Duration(wf.GraceDelay) * time.Second
	}
	if wf.HTTP.Timeout > 0 {
		cfg.HTTPTimeout = time.Duration(wf.HTTP.Timeout) * time.Second
	}
	cfg.LogJSON = wf.LogJSON

	if wf.Store.Driver != "" {
		if err := validateDriver(wf.Store.Driver); err != nil {
			return err
		}
		cfg.Store.Driver = wf.Store.Driver
	}
	if wf.Store.Path != "" {
		cfg.Store.Path = resolvePath(dir, wf.Store.Path)
	}
	if wf.Store.Addr != "" {
		cfg.Store.Addr = wf.Store.Addr
	}
	if wf.Store.Origin != "" {
		cfg.Store.Origin = wf.Store.Origin
	}

	cfg.Preload = make([]string, 0, len(wf.Preload))
	for _, p := range wf.Preload {
		cfg.Preload = append(cfg.Preload, resolvePath(dir, p))
	}
	return nil
}

// Override applies command line options on top of cfg.
func Override(cfg *domain.Config, opts Options) error {
	if opts.Namespace != "" {
		cfg.Namespace = opts.Namespace
	}
	if opts.Salt != "" {
		cfg.Salt = opts.Salt
		cfg.RandomSalt = false
	}
	if opts.StoreDriver != "" {
		if err := validateDriver(opts.StoreDriver); err != nil {
			return err
		}
		cfg.Store.Driver = opts.StoreDriver
	}
	if opts.StorePath != "" {
		cfg.Store.Path = opts.StorePath
	}
	if opts.LogJSON {
		cfg.LogJSON = true
	}
	return nil
}

func validateDriver(driver string) error {
	switch driver {
	case domain.StoreDriverBolt, domain.StoreDriverRedis, domain.StoreDriverFile, domain.StoreDriverMemory:
		return nil
	default:
		return zerr.With(domain.ErrUnknownStoreDriver, "driver", driver)
	}
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
