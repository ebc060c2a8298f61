package authcore

import "time"

/*
====================================
CONFIG PRESETS
====================================
*/

// HighSecurityConfig returns a preset tuned for short-lived tokens,
// aggressive hashing parameters, and every operational guard enabled.
// Callers still have to supply JWT.Secret before the config passes
// [Config.Validate].
//
// HighSecurityConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func HighSecurityConfig() Config {
	cfg := defaultConfig()

	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.JWT.Leeway = 0

	cfg.Password.Memory = 128 * 1024
	cfg.Password.Time = 4
	cfg.Password.Parallelism = 4
	cfg.Password.KeyLength = 32

	// Hourly sweep keeps the blacklist close to the live token set.
	cfg.Blacklist.SweepEnabled = true
	cfg.Blacklist.SweepSpec = "0 * * * *"

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Window = 15 * time.Minute
	cfg.RateLimit.MaxAttempts = 5

	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 4096
	cfg.Audit.DropIfFull = true

	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	return cfg
}

// HighThroughputConfig returns a preset that trades hashing cost and
// observability volume for request throughput. Token lifetimes stay well
// below the permissive defaults. Callers still have to supply JWT.Secret
// before the config passes [Config.Validate].
//
// HighThroughputConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func HighThroughputConfig() Config {
	cfg := defaultConfig()

	cfg.JWT.AccessTTL = time.Hour
	cfg.JWT.RefreshTTL = 30 * 24 * time.Hour

	cfg.Password.Memory = 32 * 1024
	cfg.Password.Time = 2
	cfg.Password.Parallelism = 4

	cfg.RateLimit.Enabled = false

	cfg.Audit.Enabled = false

	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = false

	return cfg
}
