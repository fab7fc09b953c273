// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/wick/internal/adapters/checksum"
	_ "go.trai.ch/wick/internal/adapters/config"
	_ "go.trai.ch/wick/internal/adapters/kv"
	_ "go.trai.ch/wick/internal/adapters/logger"
	_ "go.trai.ch/wick/internal/adapters/report"
	_ "go.trai.ch/wick/internal/adapters/star"
	_ "go.trai.ch/wick/internal/adapters/telemetry"
	_ "go.trai.ch/wick/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/wick/internal/adapters/transport"
	// Register app and engine nodes.
	_ "go.trai.ch/wick/internal/app"
	_ "go.trai.ch/wick/internal/engine/fetcher"
	_ "go.trai.ch/wick/internal/engine/loader"
	_ "go.trai.ch/wick/internal/engine/modcache"
	_ "go.trai.ch/wick/internal/engine/registry"
	_ "go.trai.ch/wick/internal/engine/scheduler"
	_ "go.trai.ch/wick/internal/engine/updater"
)
