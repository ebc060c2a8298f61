package authcore

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

/*
====================================
CONFIG LINT
====================================
*/

// LintSeverity ranks a lint warning. Severities are ordered; comparisons
// like severity >= [LintHigh] are meaningful.
type LintSeverity uint8

const (
	// LintLow is an exported constant or variable used by the authentication engine.
	LintLow LintSeverity = iota
	// LintMedium is an exported constant or variable used by the authentication engine.
	LintMedium
	// LintHigh is an exported constant or variable used by the authentication engine.
	LintHigh
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s LintSeverity) String() string {
	switch s {
	case LintLow:
		return "LOW"
	case LintMedium:
		return "MEDIUM"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one advisory finding from [Config.Lint]. Code is stable
// and machine-matchable; Message is for humans.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the ordered result of [Config.Lint].
type LintWarnings []LintWarning

// Codes describes the codes operation and its observable behavior.
//
// Codes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min, preserving order.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError collapses the warnings at or above min into a single error, or
// nil when none reach the threshold. Useful as a deploy gate.
func (ws LintWarnings) AsError(min LintSeverity) error {
	matched := ws.BySeverity(min)
	if len(matched) == 0 {
		return nil
	}

	parts := make([]string, 0, len(matched))
	for _, w := range matched {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", w.Code, w.Severity, w.Message))
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint reports advisory findings about the configuration. Unlike
// [Config.Validate] it never rejects a config: every finding is legal to
// run with, just worth an operator's attention. Findings are ordered by
// the section they concern.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	warn := func(code string, severity LintSeverity, message string) {
		ws = append(ws, LintWarning{Code: code, Severity: severity, Message: message})
	}

	if c.JWT.AccessTTL > time.Hour {
		warn("access_ttl_long", LintMedium,
			fmt.Sprintf("access tokens live %s; a revoked token stays usable anywhere the blacklist is not consulted", c.JWT.AccessTTL))
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		warn("refresh_ttl_long", LintMedium,
			fmt.Sprintf("refresh tokens live %s; a stolen refresh token mints access tokens until it expires", c.JWT.RefreshTTL))
	}
	if c.JWT.Leeway > time.Minute {
		warn("leeway_large", LintMedium,
			fmt.Sprintf("clock leeway of %s extends every token's effective lifetime", c.JWT.Leeway))
	}

	if c.Password.Memory < 64*1024 {
		warn("argon2_memory_low", LintMedium,
			fmt.Sprintf("argon2 memory is %d KB; below the 64 MB baseline brute-force cost drops sharply", c.Password.Memory))
	}

	if !c.Blacklist.SweepEnabled {
		warn("sweep_disabled", LintMedium,
			"blacklist sweeping is off; revoked-token entries accumulate without bound")
	}

	if insecureHTTPURL(c.Reset.FrontendURL) {
		warn("reset_url_insecure", LintHigh,
			"password reset links are delivered over plain http to a non-loopback host")
	}
	if insecureHTTPURL(c.Webhook.URL) {
		warn("webhook_insecure", LintMedium,
			"webhook events carry account data over plain http to a non-loopback host")
	}

	if !c.RateLimit.Enabled {
		warn("rate_limit_disabled", LintLow,
			"login and reset throttling is off; credential stuffing is unthrottled")
	}
	if !c.Audit.Enabled {
		warn("audit_disabled", LintLow,
			"audit trail is off; authentication activity leaves no record")
	}

	return ws
}

// insecureHTTPURL reports whether raw is a plain-http URL pointing at a
// non-loopback host. Unparseable and non-http values are not this
// function's concern.
func insecureHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}

	host := u.Hostname()
	if host == "" || host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}
