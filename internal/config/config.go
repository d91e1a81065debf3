// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all arena tuning parameters.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// ARENA / FIELD CONFIGURATION
// =============================================================================

// ArenaConfig holds the geometric and kinematic constants of the simulation.
// The field is the rectangle [-AspectRatio, AspectRatio] x [-1, 1].
type ArenaConfig struct {
	AspectRatio float64 // A: half-width of the field, height is fixed at [-1,1]
	LineWidth   float64 // trail half-thickness used for fat-AABB collision
	MoveSpeed   float64 // units per second along the current direction

	TickRate      int // ticks per second
	SubTickRate   int // sub-ticks per tick
	NumPartitions int // N: spatial grid is N*N per player

	MinSpawnDist float64 // minimum distance from any edge for a spawn point
}

// DefaultArena returns the default arena configuration (spec defaults).
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		AspectRatio:   1.5,
		LineWidth:     0.002,
		MoveSpeed:     0.3,
		TickRate:      30,
		SubTickRate:   2,
		NumPartitions: 10,
		MinSpawnDist:  0.1,
	}
}

// ArenaFromEnv returns the arena configuration with environment overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if v := getEnvFloat("ASPECT_RATIO", -1); v >= 0 {
		cfg.AspectRatio = v
	}
	if v := getEnvFloat("LINE_WIDTH", -1); v >= 0 {
		cfg.LineWidth = v
	}
	if v := getEnvFloat("MOVE_SPEED", -1); v >= 0 {
		cfg.MoveSpeed = v
	}
	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvInt("SUB_TICK_RATE", 0); v > 0 {
		cfg.SubTickRate = v
	}
	if v := getEnvInt("NUM_PARTITIONS", 0); v > 0 {
		cfg.NumPartitions = v
	}
	if v := getEnvFloat("MIN_SPAWN_DIST", -1); v >= 0 {
		cfg.MinSpawnDist = v
	}

	return cfg
}

// =============================================================================
// ROUND / SESSION TIMING
// =============================================================================

// TimingConfig holds the lifecycle timers of a round and a client session.
type TimingConfig struct {
	RoundStartDelayMs   int // countdown duration before Playing begins
	SessionTimeoutMs    int // grace period before a disconnected session is dropped
	HeartbeatIntervalMs int // expected client heartbeat cadence
}

// DefaultTiming returns the default timing configuration.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		RoundStartDelayMs:   3000,
		SessionTimeoutMs:    3000,
		HeartbeatIntervalMs: 1000,
	}
}

// TimingFromEnv returns the timing configuration with environment overrides.
func TimingFromEnv() TimingConfig {
	cfg := DefaultTiming()

	if v := getEnvInt("ROUND_START_DELAY_MS", 0); v > 0 {
		cfg.RoundStartDelayMs = v
	}
	if v := getEnvInt("SESSION_TIMEOUT_MS", 0); v > 0 {
		cfg.SessionTimeoutMs = v
	}
	if v := getEnvInt("HEARTBEAT_INTERVAL_MS", 0); v > 0 {
		cfg.HeartbeatIntervalMs = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/websocket server settings.
type ServerConfig struct {
	Port       int
	MaxPlayers int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       3000,
		MaxPlayers: 32,
	}
}

// ServerFromEnv returns the server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Arena  ArenaConfig
	Timing TimingConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Arena:  ArenaFromEnv(),
		Timing: TimingFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
