package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "/tls/cert.pem", KeyFile: "/tls/key.pem"},
		},
		{
			name: "server mode with vault content",
			tls:  TLSConfig{Mode: "server", CertContent: "-----BEGIN CERT", KeyContent: "-----BEGIN KEY"},
		},
		{
			name:        "server mode missing key",
			tls:         TLSConfig{Mode: "server", CertFile: "/tls/cert.pem"},
			expectError: true,
			errorMsg:    "TLS private key is required for server mode",
		},
		{
			name:        "server mode cert from both sources",
			tls:         TLSConfig{Mode: "server", CertFile: "/tls/cert.pem", CertContent: "pem", KeyFile: "/tls/key.pem"},
			expectError: true,
			errorMsg:    "cannot specify both file and content for TLS certificate",
		},
		{
			name: "mutual mode valid",
			tls:  TLSConfig{Mode: "mutual", CertFile: "/tls/cert.pem", KeyFile: "/tls/key.pem", CAFile: "/tls/ca.pem", ClientAuthPolicy: "verify"},
		},
		{
			name:        "mutual mode missing CA",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/tls/cert.pem", KeyFile: "/tls/key.pem"},
			expectError: true,
			errorMsg:    "TLS CA certificate is required for mutual mode",
		},
		{
			name:        "mutual mode bad policy",
			tls:         TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", ClientAuthPolicy: "maybe"},
			expectError: true,
			errorMsg:    "invalid clientAuthPolicy: maybe",
		},
		{
			name:        "bad min version",
			tls:         TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", MinVersion: "1.1"},
			expectError: true,
			errorMsg:    "invalid TLS minVersion: 1.1",
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "invalid"},
			expectError: true,
			errorMsg:    "invalid TLS mode: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
