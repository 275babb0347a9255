package sandbox

import "testing"

func TestIsUnsandboxedCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		patterns []string
		want     bool
	}{
		{"prefix match", "npm run build", []string{"npm run *"}, true},
		{"prefix with extra tokens", "npm run build --watch", []string{"npm run *"}, true},
		{"command shorter than prefix", "npm", []string{"npm run *"}, false},
		{"prefix boundary exact", "npm run", []string{"npm run *"}, true},
		{"exact match", "git status", []string{"git status"}, true},
		{"exact rejects extra token", "git status -s", []string{"git status"}, false},
		{"exact rejects missing token", "git", []string{"git status"}, false},
		{"compound never matches", "npm test && rm -rf /", []string{"npm test", "*"}, false},
		{"safe redirect stripped", "cmd 2>/dev/null", []string{"cmd"}, true},
		{"unsafe redirect is compound", "cmd > out.txt", []string{"cmd"}, false},
		{"degenerate star", "anything at all", []string{"*"}, true},
		{"no patterns", "ls", nil, false},
		{"empty pattern skipped", "ls", []string{"", "ls"}, true},
		{"whitespace trimmed", "  npm test  ", []string{" npm test "}, true},
		{"quoting normalized", `git commit -m "a b"`, []string{"git commit -m 'a b'"}, true},
		{"second pattern matches", "go vet ./...", []string{"go test *", "go vet *"}, true},
		{"pipe never bypassed", "ls | wc -l", []string{"ls *"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnsandboxedCommand(tt.command, tt.patterns); got != tt.want {
				t.Errorf("IsUnsandboxedCommand(%q, %q) = %v, want %v", tt.command, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestIsUnsandboxedCommandPatternOrder(t *testing.T) {
	// Matching is equality-based, so configuration order cannot change the
	// outcome, only which pattern matches first.
	patterns := []string{"npm *", "npm run *"}
	reversed := []string{"npm run *", "npm *"}
	for _, cmd := range []string{"npm run build", "npm install", "yarn build"} {
		if IsUnsandboxedCommand(cmd, patterns) != IsUnsandboxedCommand(cmd, reversed) {
			t.Errorf("pattern order changed outcome for %q", cmd)
		}
	}
}
