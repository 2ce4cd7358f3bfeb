package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/reportgest/internal/fetch"
)

func TestBackoff_Bounds(t *testing.T) {
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, c := range cases {
		for range 20 {
			got := Backoff(c.attempt)
			if got < c.base || got >= c.base+c.base/2 {
				t.Fatalf("attempt %d: backoff %v outside [%v, %v)", c.attempt, got, c.base, c.base+c.base/2)
			}
		}
	}
}

func TestIsRetryable(t *testing.T) {
	transient := &fetch.RetryableError{Err: errors.New("status 503")}
	if !IsRetryable(transient) {
		t.Error("expected RetryableError to be retryable")
	}
	if !IsRetryable(fmt.Errorf("attempt 2: %w", transient)) {
		t.Error("expected wrapped RetryableError to be retryable")
	}
	if IsRetryable(errors.New("status 404")) {
		t.Error("expected plain error to be permanent")
	}
}
