// filename: internal/common/tls/tls_test.go
package tls

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestServerTLSConfigDisabled(t *testing.T) {
	_, err := ServerTLSConfig(Config{Enabled: false})
	if err == nil {
		t.Fatal("Expected error for disabled TLS")
	}
}

func TestServerTLSConfigMissingFiles(t *testing.T) {
	_, err := ServerTLSConfig(Config{Enabled: true})
	if err == nil {
		t.Fatal("Expected error for missing cert_file and key_file")
	}

	_, err = ServerTLSConfig(Config{
		Enabled:  true,
		CertFile: "/nonexistent/server.crt",
		KeyFile:  "/nonexistent/server.key",
	})
	if err == nil {
		t.Fatal("Expected error for nonexistent certificate")
	}
}

func TestServerTLSConfigSelfSigned(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	config, err := ServerTLSConfig(Config{
		Enabled:    true,
		CertFile:   certFile,
		KeyFile:    keyFile,
		MinVersion: "1.3",
		SelfSigned: true,
	})
	if err != nil {
		t.Fatalf("Failed to build TLS config: %v", err)
	}

	if len(config.Certificates) != 1 {
		t.Errorf("Expected 1 certificate, got %d", len(config.Certificates))
	}
	if config.MinVersion != tls.VersionTLS13 {
		t.Errorf("Expected TLS 1.3 min version, got %x", config.MinVersion)
	}

	// Сгенерированный сертификат валиден прямо сейчас
	if err := ValidateCertificate(certFile); err != nil {
		t.Errorf("Generated certificate failed validation: %v", err)
	}
}

func TestMinVersionDefaults(t *testing.T) {
	if minVersion("") != tls.VersionTLS12 {
		t.Error("Expected TLS 1.2 default")
	}
	if minVersion("1.0") != tls.VersionTLS10 {
		t.Error("Expected TLS 1.0")
	}
	if minVersion("garbage") != tls.VersionTLS12 {
		t.Error("Expected TLS 1.2 fallback for unknown version")
	}
}

func TestValidateCertificateMissing(t *testing.T) {
	if err := ValidateCertificate("/nonexistent/server.crt"); err == nil {
		t.Fatal("Expected error for missing certificate file")
	}
}
