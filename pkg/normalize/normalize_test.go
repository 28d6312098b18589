package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Example.COM.", "example.com"},
		{"  foo.bar  ", "foo.bar"},
		{"already-lower.com", "already-lower.com"},
		{"https://Example.COM/path?x=1", "example.com"},
		{"http://example.com:8080/", "example.com"},
		{"example.com:443", "example.com"},
		{"[::1]:8443", "::1"},
		{"[2001:db8::1]", "2001:db8::1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDomain_Idempotent(t *testing.T) {
	for _, in := range []string{"HTTPS://Example.COM:443/foo", "10.0.0.1", "[::1]:53", "plain.example.net."} {
		once := Domain(in)
		twice := Domain(once)
		if once != twice {
			t.Errorf("Domain not idempotent for %q: Domain(x)=%q, Domain(Domain(x))=%q", in, once, twice)
		}
	}
}

func TestGuessAssetType(t *testing.T) {
	assert.Equal(t, "ip", GuessAssetType("192.0.2.1"))
	assert.Equal(t, "ip", GuessAssetType("::1"))
	assert.Equal(t, "host", GuessAssetType("example.com"))
}

func TestIsIP(t *testing.T) {
	require.True(t, IsIP("192.0.2.1"))
	require.True(t, IsIP("::1"))
	require.False(t, IsIP("example.com"))
}

func TestURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"HTTP://Example.COM:80/", "http://example.com"},
		{"https://example.com:443/path", "https://example.com/path"},
		{"https://example.com:8443/path", "https://example.com:8443/path"},
	}
	for _, tt := range tests {
		got, err := URL(tt.in)
		if err != nil {
			t.Fatalf("URL(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURL_Relative(t *testing.T) {
	if _, err := URL("/just/a/path"); err == nil {
		t.Error("expected error for relative URL")
	}
}

func TestHostPort(t *testing.T) {
	host, port := HostPort("Example.com:8080")
	if host != "example.com" || port != "8080" {
		t.Errorf("HostPort = (%q, %q), want (example.com, 8080)", host, port)
	}
}
