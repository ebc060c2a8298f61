package authcore

import "time"

// SecurityReport is a flat snapshot of the engine's security-relevant
// configuration, safe to log or expose on an operator endpoint. It carries
// no secrets.
type SecurityReport struct {
	SigningAlgorithm string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	Leeway     time.Duration

	Argon2 PasswordConfigReport

	TOTPIssuer string
	TOTPDigits int

	SweepEnabled bool
	SweepSpec    string

	RateLimitingActive bool
	AuditEnabled       bool
	MetricsEnabled     bool
	MailConfigured     bool
	WebhookConfigured  bool
}

// PasswordConfigReport mirrors the argon2id cost parameters in effect.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SigningAlgorithm: "HS256",

		AccessTTL:  e.config.JWT.AccessTTL,
		RefreshTTL: e.config.JWT.RefreshTTL,
		ResetTTL:   e.config.JWT.ResetTTL,
		Leeway:     e.config.JWT.Leeway,

		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},

		TOTPIssuer: e.config.TOTP.Issuer,
		TOTPDigits: e.config.TOTP.Digits,

		SweepEnabled: e.config.Blacklist.SweepEnabled,
		SweepSpec:    e.config.Blacklist.SweepSpec,

		RateLimitingActive: e.config.RateLimit.Enabled,
		AuditEnabled:       e.config.Audit.Enabled,
		MetricsEnabled:     e.config.Metrics.Enabled,
		MailConfigured:     e.config.Mail.Host != "",
		WebhookConfigured:  e.config.Webhook.URL != "",
	}
}
