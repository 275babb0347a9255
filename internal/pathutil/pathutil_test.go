package pathutil

import (
	"regexp"
	"testing"
)

func TestExpandUser(t *testing.T) {
	const home = "/home/user"
	tests := []struct {
		pattern string
		want    string
	}{
		{"~", "/home/user"},
		{"~/.ssh", "/home/user/.ssh"},
		{"~/a/b", "/home/user/a/b"},
		{"~bob/.ssh", "~bob/.ssh"},
		{"/etc/passwd", "/etc/passwd"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandUser(tt.pattern, home); got != tt.want {
			t.Errorf("ExpandUser(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestHasGlobMeta(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"*.pem", true},
		{"file?.txt", true},
		{"[abc]", true},
		{"/plain/path", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasGlobMeta(tt.s); got != tt.want {
			t.Errorf("HasGlobMeta(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestIsPathWithin(t *testing.T) {
	tests := []struct {
		path, root string
		want       bool
	}{
		{"/a/b", "/a/b", true},
		{"/a/b/c", "/a/b", true},
		{"/a/b/c/d", "/a/b", true},
		{"/a/bc", "/a/b", false},
		{"/tmp/foo-bar", "/tmp/foo", false},
		{"/a", "/a/b", false},
		{"/anything", "/", true},
		{"/", "/", true},
	}
	for _, tt := range tests {
		if got := IsPathWithin(tt.path, tt.root); got != tt.want {
			t.Errorf("IsPathWithin(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
		}
	}
}

func TestGlobToRegex(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.pem", "cert.pem", true},
		{"*.pem", "dir/cert.pem", false},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"file?.txt", "file/.txt", false},
		{"/a/*/c", "/a/b/c", true},
		{"/a/*/c", "/a/b/d/c", false},
		{"/a/**/c", "/a/c", true},
		{"/a/**/c", "/a/b/c", true},
		{"/a/**/c", "/a/b/d/c", true},
		{"/a/**", "/a/b", true},
		{"/a/**", "/a/b/c", true},
		{"**/node_modules", "x/y/node_modules", true},
		{"**/node_modules", "node_modules", true},
		{"[abc].txt", "a.txt", true},
		{"[abc].txt", "d.txt", false},
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"a+b", "a+b", true},
		{"(x)", "(x)", true},
		{"[unterminated", "[unterminated", true},
	}
	for _, tt := range tests {
		re, err := regexp.Compile(GlobToRegex(tt.pattern))
		if err != nil {
			t.Fatalf("GlobToRegex(%q) produced invalid regexp: %v", tt.pattern, err)
		}
		if got := re.MatchString(tt.path); got != tt.want {
			t.Errorf("glob %q vs %q = %v, want %v (regex %s)", tt.pattern, tt.path, got, tt.want, re)
		}
	}
}

func TestContainsNullByte(t *testing.T) {
	if !ContainsNullByte("a\x00b") {
		t.Error("ContainsNullByte(a\\x00b) = false")
	}
	if ContainsNullByte("plain") {
		t.Error("ContainsNullByte(plain) = true")
	}
}
