package google

import (
	"context"
	"testing"
)

func TestNewProviderConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false}},
		{"missing client id", Config{Enabled: true, ClientSecret: "s", RedirectURL: "u"}},
		{"missing client secret", Config{Enabled: true, ClientID: "c", RedirectURL: "u"}},
		{"missing redirect url", Config{Enabled: true, ClientID: "c", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), &tt.cfg); err == nil {
				t.Error("expected configuration error, got nil")
			}
		})
	}
}
