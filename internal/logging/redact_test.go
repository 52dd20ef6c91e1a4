package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactingEncoderFieldNames(t *testing.T) {
	encoderCfg := zap.NewProductionEncoderConfig()
	base := zapcore.NewJSONEncoder(encoderCfg)

	enc, err := NewRedactingEncoder(base, RedactionConfig{
		Enabled: true,
		Fields:  []string{"api_key", "Token"},
	})
	if err != nil {
		t.Fatal(err)
	}

	enc.AddString("api_key", "sk-live-12345")
	enc.AddString("TOKEN", "abc")
	enc.AddString("query", "what is my copay")

	buf, err := enc.EncodeEntry(zapcore.Entry{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "sk-live-12345") || strings.Contains(out, `"abc"`) {
		t.Errorf("secret leaked into output: %s", out)
	}
	if !strings.Contains(out, "what is my copay") {
		t.Errorf("non-sensitive field was redacted: %s", out)
	}
}

func TestRedactingEncoderValuePatterns(t *testing.T) {
	encoderCfg := zap.NewProductionEncoderConfig()
	base := zapcore.NewJSONEncoder(encoderCfg)

	enc, err := NewRedactingEncoder(base, RedactionConfig{
		Enabled:  true,
		Patterns: []string{`(?i)bearer\s+\S+`},
	})
	if err != nil {
		t.Fatal(err)
	}

	enc.AddString("header", "Bearer eyJhbGci")
	buf, err := enc.EncodeEntry(zapcore.Entry{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "eyJhbGci") {
		t.Errorf("bearer token leaked: %s", buf.String())
	}
}

func TestRedactingEncoderRejectsBadPatterns(t *testing.T) {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if _, err := NewRedactingEncoder(base, RedactionConfig{
		Enabled:  true,
		Patterns: []string{"("},
	}); err == nil {
		t.Error("invalid pattern should be rejected")
	}
}

func TestRedactedString(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	logger.Info("auth", RedactedString("api_key", "sk-12345"))

	entry := observed.All()[0]
	if entry.ContextMap()["api_key"] != "[REDACTED:8]" {
		t.Errorf("api_key = %v, want [REDACTED:8]", entry.ContextMap()["api_key"])
	}
}
