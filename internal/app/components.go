package app

import (
	"errors"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	Client    *Client
	Config    *domain.Config
	Logger    ports.Logger
	Store     ports.KeyValueStore
	Telemetry ports.Telemetry
}

// Close flushes telemetry and releases the store.
func (c *Components) Close() error {
	var errs error
	if c.Telemetry != nil {
		errs = errors.Join(errs, c.Telemetry.Close())
	}
	if c.Store != nil {
		errs = errors.Join(errs, c.Store.Close())
	}
	return errs
}
