package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestParsePolicyJSON(t *testing.T) {
	doc := []byte(`{
		// settings files tolerate comments and trailing commas
		"enabled": true,
		"unsandboxedCommands": ["git status", "npm run *",],
		"filesystem": {
			"denyRead": ["~/.ssh"],
			"allowWrite": ["./build"],
			"denyWrite": [".env", "*.pem"], /* secrets */
		},
	}`)

	p, err := ParsePolicy(doc, FormatJSON)
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}
	if !p.IsEnabled() {
		t.Error("enabled not parsed")
	}
	if !slices.Equal(p.UnsandboxedCommands, []string{"git status", "npm run *"}) {
		t.Errorf("UnsandboxedCommands = %q", p.UnsandboxedCommands)
	}
	if !slices.Equal(p.Filesystem.DenyWrite, []string{".env", "*.pem"}) {
		t.Errorf("DenyWrite = %q", p.Filesystem.DenyWrite)
	}
}

func TestParsePolicyYAML(t *testing.T) {
	doc := []byte(`
enabled: false
unsandboxedCommands:
  - go test *
filesystem:
  denyRead:
    - ~/.aws
`)
	p, err := ParsePolicy(doc, FormatYAML)
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}
	if p.IsEnabled() {
		t.Error("enabled: false not parsed")
	}
	if !slices.Equal(p.Filesystem.DenyRead, []string{"~/.aws"}) {
		t.Errorf("DenyRead = %q", p.Filesystem.DenyRead)
	}
}

func TestParsePolicyAbsentFields(t *testing.T) {
	p, err := ParsePolicy([]byte(`{}`), FormatJSON)
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}
	if p.Enabled != nil {
		t.Error("absent enabled should stay nil")
	}
	if len(p.Filesystem.DenyRead) != 0 || len(p.UnsandboxedCommands) != 0 {
		t.Error("absent lists should behave as empty")
	}
}

func TestParsePolicyMalformed(t *testing.T) {
	if _, err := ParsePolicy([]byte(`{"filesystem": [1,2]}`), FormatJSON); err == nil {
		t.Error("malformed json accepted")
	}
	if _, err := ParsePolicy([]byte("filesystem: [a: b"), FormatYAML); err == nil {
		t.Error("malformed yaml accepted")
	}
	if _, err := ParsePolicy([]byte(`{}`), PolicyFormat(99)); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "policy.jsonc")
	if err := os.WriteFile(jsonPath, []byte(`{"filesystem": {"denyRead": ["~/.ssh"]}} // x`), 0o600); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(yamlPath, []byte("unsandboxedCommands: ['ls *']\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(jsonPath)
	if err != nil {
		t.Fatalf("LoadPolicy(jsonc) error: %v", err)
	}
	if !slices.Equal(p.Filesystem.DenyRead, []string{"~/.ssh"}) {
		t.Errorf("DenyRead = %q", p.Filesystem.DenyRead)
	}

	p, err = LoadPolicy(yamlPath)
	if err != nil {
		t.Fatalf("LoadPolicy(yaml) error: %v", err)
	}
	if !slices.Equal(p.UnsandboxedCommands, []string{"ls *"}) {
		t.Errorf("UnsandboxedCommands = %q", p.UnsandboxedCommands)
	}

	if _, err := LoadPolicy(filepath.Join(dir, "policy.toml")); err == nil {
		t.Error("unsupported extension accepted")
	}
	if _, err := LoadPolicy(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
