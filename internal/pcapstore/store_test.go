// filename: internal/pcapstore/store_test.go
package pcapstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain pcap", "traffic.pcap", "traffic.pcap", false},
		{"plain pcapng", "traffic.pcapng", "traffic.pcapng", false},
		{"uppercase extension", "TRAFFIC.PCAP", "TRAFFIC.PCAP", false},
		{"path traversal", "../../etc/passwd.pcap", "passwd.pcap", false},
		{"windows path", "C:\\captures\\dump.pcap", "dump.pcap", false},
		{"special characters", "my capture (1).pcap", "my_capture__1_.pcap", false},
		{"wrong extension", "malware.exe", "", true},
		{"no basename", ".pcap", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectLinkTypePcap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}
	f.Close()

	linkType, err := DetectLinkType(path)
	if err != nil {
		t.Fatal(err)
	}
	if linkType != layers.LinkTypeEthernet.String() {
		t.Errorf("Expected ethernet link type, got %q", linkType)
	}
}

func TestDetectLinkTypeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pcap")
	if err := os.WriteFile(path, []byte("this is not a capture file at all"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := DetectLinkType(path); err == nil {
		t.Error("Expected error for non-capture content")
	}
}

func TestDetectLinkTypeMissingFile(t *testing.T) {
	if _, err := DetectLinkType(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Error("Expected error for missing file")
	}
}
