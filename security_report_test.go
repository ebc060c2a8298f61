package authcore

import (
	"testing"
	"time"
)

func TestSecurityReportReflectsConfig(t *testing.T) {
	env := newTestEngineWithConfig(t, func(cfg *Config) {
		cfg.JWT.Leeway = 30 * time.Second
		cfg.RateLimit.Enabled = true
		cfg.Webhook.URL = "https://hooks.example.com/auth"
		cfg.Mail.Host = ""
	})

	report := env.engine.SecurityReport()

	if report.SigningAlgorithm != "HS256" {
		t.Fatalf("SigningAlgorithm = %q", report.SigningAlgorithm)
	}
	if report.AccessTTL != 21*24*time.Hour || report.RefreshTTL != 12*7*24*time.Hour {
		t.Fatalf("token lifetimes = %v / %v", report.AccessTTL, report.RefreshTTL)
	}
	if report.Leeway != 30*time.Second {
		t.Fatalf("Leeway = %v", report.Leeway)
	}
	if report.Argon2.Memory != 8192 || report.Argon2.Time != 1 {
		t.Fatalf("Argon2 = %+v", report.Argon2)
	}
	if report.TOTPIssuer != "YourAppName" || report.TOTPDigits != 6 {
		t.Fatalf("TOTP = %q/%d", report.TOTPIssuer, report.TOTPDigits)
	}
	if report.SweepEnabled {
		t.Fatal("SweepEnabled should mirror the disabled test config")
	}
	if !report.RateLimitingActive || !report.AuditEnabled || !report.MetricsEnabled {
		t.Fatalf("operational flags = %+v", report)
	}
	if report.MailConfigured {
		t.Fatal("MailConfigured without a mail host")
	}
	if !report.WebhookConfigured {
		t.Fatal("WebhookConfigured with a webhook URL set")
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var e *Engine
	if got := e.SecurityReport(); got != (SecurityReport{}) {
		t.Fatalf("nil engine report = %+v", got)
	}
}
