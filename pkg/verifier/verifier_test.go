package verifier

import (
	"errors"
	"testing"
)

func TestIsDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"name or service not known", errors.New("dial tcp: lookup foo: name or service not known"), true},
		{"temporary failure", errors.New("lookup foo: Temporary failure in name resolution"), true},
		{"nodename nor servname", errors.New("nodename nor servname provided, or not known"), true},
		{"connection refused", errors.New("dial tcp 1.2.3.4:80: connect: connection refused"), false},
		{"timeout", errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDNSError(tt.err); got != tt.want {
				t.Errorf("isDNSError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
