package queue

import (
	"testing"
	"time"
)

func TestBackoff_Exponential(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.retryCount); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}

func TestBackoff_CapsAtMax(t *testing.T) {
	got := Backoff(20)
	if got != time.Hour {
		t.Errorf("Backoff(20) = %v, want capped at %v", got, time.Hour)
	}
}

func TestBackoff_NegativeRetryCount(t *testing.T) {
	got := Backoff(-1)
	if got != time.Hour {
		t.Errorf("Backoff(-1) = %v, want capped at %v", got, time.Hour)
	}
}
