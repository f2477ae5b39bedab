// filename: internal/validator/command_test.go
package validator

import (
	"strings"
	"testing"
)

func argsContain(args []string, flag, value string) bool {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildCommandValidate(t *testing.T) {
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false

	cmd := BuildCommand(cfg, "/usr/bin/suricata", "/rules/vul-1.rules", "/pcaps/a.pcap", "/logs/run-1", ModeValidate)

	if cmd.Path != "/usr/bin/suricata" {
		t.Errorf("Expected binary path, got %s", cmd.Path)
	}
	if !argsContain(cmd.Args, "-c", cfg.ConfigFile) {
		t.Error("Expected -c with config file")
	}
	if !argsContain(cmd.Args, "-S", "/rules/vul-1.rules") {
		t.Error("Expected -S with exclusive rule file")
	}
	if !argsContain(cmd.Args, "-k", "none") {
		t.Error("Expected checksum verification disabled")
	}
	if !argsContain(cmd.Args, "-r", "/pcaps/a.pcap") {
		t.Error("Expected -r with capture file")
	}
	if !argsContain(cmd.Args, "-l", "/logs/run-1") {
		t.Error("Expected -l with run log directory")
	}

	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "outputs.0.fast.enabled=yes") {
		t.Error("Expected fast.log output enabled")
	}
	if strings.Contains(joined, "-T") {
		t.Error("Validate mode must not pass -T")
	}
}

func TestBuildCommandSyntaxCheck(t *testing.T) {
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false

	cmd := BuildCommand(cfg, "/usr/bin/suricata", "/rules/syntax-1.rules", "", "", ModeSyntaxCheck)

	if cmd.Args[0] != "-T" {
		t.Errorf("Expected -T first, got %v", cmd.Args)
	}
	if !argsContain(cmd.Args, "-S", "/rules/syntax-1.rules") {
		t.Error("Expected -S with rule file")
	}

	joined := strings.Join(cmd.Args, " ")
	if strings.Contains(joined, "-r ") || strings.Contains(joined, "-l ") {
		t.Error("Syntax check must not reference captures or log directory")
	}
}

func TestBuildCommandDefaultConfigOmitsConfigFlag(t *testing.T) {
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = true

	cmd := BuildCommand(cfg, "/usr/bin/suricata", "/rules/vul-1.rules", "/pcaps/a.pcap", "/logs/run-1", ModeValidate)

	for _, arg := range cmd.Args {
		if arg == "-c" {
			t.Error("Default config mode must not pass -c")
		}
	}
}
