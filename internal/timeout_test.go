// Unit tests for timeout.go

package threadpool_internal

import (
	"testing"
	"time"
)

func TestTimeoutIndefinite(t *testing.T) {
	for _, d := range []time.Duration{0, -1, -time.Second} {
		to := NewTimeout(d)
		if to.Expired() {
			t.Errorf("NewTimeout(%s).Expired(): want: false, got: true", d)
		}
		if to.Remaining() <= 0 {
			t.Errorf("NewTimeout(%s).Remaining(): want: > 0, got: %s", d, to.Remaining())
		}
	}
}

func TestTimeoutExpires(t *testing.T) {
	to := NewTimeout(20 * time.Millisecond)
	if to.Expired() {
		t.Fatal("Expired(): want: false immediately after construction")
	}
	time.Sleep(40 * time.Millisecond)
	if !to.Expired() {
		t.Error("Expired(): want: true after the deadline has passed")
	}
	if to.Remaining() != 0 {
		t.Errorf("Remaining(): want: 0 once expired, got: %s", to.Remaining())
	}
}
