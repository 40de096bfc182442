package internal

import (
	"strings"
	"testing"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if len(cfg.Marginalia.Tags) != 4 {
		t.Errorf("default tags = %d, want 4", len(cfg.Marginalia.Tags))
	}
	if cfg.Marginalia.Tags[0].Prefix != "!" || cfg.Marginalia.Tags[0].Color != "#ffea00" {
		t.Errorf("first default tag = %+v", cfg.Marginalia.Tags[0])
	}
}

func TestMarginaliaConfig_EmptyAlignmentDefaultsRight(t *testing.T) {
	cfg := MarginaliaConfig{MarginWidth: 30}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty alignment should default: %v", err)
	}
	if cfg.Alignment != AlignRight {
		t.Errorf("alignment = %q, want %q", cfg.Alignment, AlignRight)
	}
}

func TestMarginaliaConfig_MarginWidthBounds(t *testing.T) {
	for _, width := range []int{14, 61} {
		cfg := MarginaliaConfig{Alignment: AlignRight, MarginWidth: width}
		if err := cfg.Validate(); err == nil {
			t.Errorf("margin width %d should fail validation", width)
		}
	}
	cfg := MarginaliaConfig{Alignment: AlignLeft, MarginWidth: 15}
	if err := cfg.Validate(); err != nil {
		t.Errorf("margin width 15 should pass: %v", err)
	}
}

func TestMarginaliaConfig_IncompleteTag(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Marginalia.Tags = append(cfg.Marginalia.Tags, models.Tag{Prefix: "Z-"})
	err := cfg.Validate()
	if err == nil {
		t.Fatal("tag without color should fail validation")
	}
	if !strings.Contains(err.Error(), "prefix and color") {
		t.Errorf("unexpected error: %v", err)
	}
}
