package auth

import (
	"testing"
	"time"
)

func TestMemoryAttemptTracker(t *testing.T) {
	t.Run("Locks at the threshold", func(t *testing.T) {
		tracker := NewMemoryAttemptTracker(3, time.Minute)

		for i := 0; i < 2; i++ {
			tracker.RecordFailure("alice")
			if locked, _ := tracker.Locked("alice"); locked {
				t.Fatalf("locked after %d failures, threshold is 3", i+1)
			}
		}

		tracker.RecordFailure("alice")
		locked, remaining := tracker.Locked("alice")
		if !locked {
			t.Fatal("expected lock after 3 failures")
		}
		if remaining <= 0 || remaining > time.Minute {
			t.Errorf("unexpected remaining window: %v", remaining)
		}
	})

	t.Run("Keys are independent", func(t *testing.T) {
		tracker := NewMemoryAttemptTracker(2, time.Minute)
		tracker.RecordFailure("alice")
		tracker.RecordFailure("alice")

		if locked, _ := tracker.Locked("bob"); locked {
			t.Error("bob must not be affected by alice's failures")
		}
	})

	t.Run("Success clears the counter", func(t *testing.T) {
		tracker := NewMemoryAttemptTracker(3, time.Minute)
		tracker.RecordFailure("alice")
		tracker.RecordFailure("alice")
		tracker.RecordSuccess("alice")

		tracker.RecordFailure("alice")
		tracker.RecordFailure("alice")
		if locked, _ := tracker.Locked("alice"); locked {
			t.Error("counter must restart after a success")
		}
	})

	t.Run("Lock expires after the window", func(t *testing.T) {
		tracker := NewMemoryAttemptTracker(1, 10*time.Millisecond)
		tracker.RecordFailure("alice")
		if locked, _ := tracker.Locked("alice"); !locked {
			t.Fatal("expected immediate lock at threshold 1")
		}

		time.Sleep(20 * time.Millisecond)
		if locked, _ := tracker.Locked("alice"); locked {
			t.Error("lock must expire after the window")
		}
	})

	t.Run("Failures during a lock do not extend it", func(t *testing.T) {
		tracker := NewMemoryAttemptTracker(1, 30*time.Millisecond)
		tracker.RecordFailure("alice")
		_, first := tracker.Locked("alice")

		time.Sleep(10 * time.Millisecond)
		tracker.RecordFailure("alice")
		_, second := tracker.Locked("alice")
		if second > first {
			t.Errorf("lock window extended: %v > %v", second, first)
		}
	})
}
