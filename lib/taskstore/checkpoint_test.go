// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore_test

import (
	"testing"
	"time"

	"github.com/saorsa-labs/x0x-go/lib/clock"
	"github.com/saorsa-labs/x0x-go/lib/taskstore"
)

func newScheduler(t *testing.T) (*taskstore.CheckpointScheduler, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.UnixMilli(1_000_000))
	scheduler := taskstore.NewCheckpointScheduler(taskstore.CheckpointPolicy{
		MutationThreshold: 4,
		DirtyTimeFloor:    5 * time.Minute,
		DebounceFloor:     2 * time.Second,
	}, fake)
	return scheduler, fake
}

func TestSchedulerSkipsClean(t *testing.T) {
	scheduler, _ := newScheduler(t)
	if got := scheduler.Decide(false); got != taskstore.ActionSkipClean {
		t.Errorf("clean decision = %v", got)
	}
	// Even an explicit request skips when nothing changed.
	if got := scheduler.Decide(true); got != taskstore.ActionSkipClean {
		t.Errorf("explicit clean decision = %v", got)
	}
}

func TestSchedulerMutationThreshold(t *testing.T) {
	scheduler, _ := newScheduler(t)

	for i := 0; i < 3; i++ {
		scheduler.NoteMutation()
	}
	if got := scheduler.Decide(false); got != taskstore.ActionSkipPolicy {
		t.Errorf("below threshold decision = %v", got)
	}

	scheduler.NoteMutation()
	if got := scheduler.Decide(false); got != taskstore.ActionPersist {
		t.Errorf("at threshold decision = %v", got)
	}
}

func TestSchedulerDirtyTimeFloor(t *testing.T) {
	scheduler, fake := newScheduler(t)

	scheduler.NoteMutation()
	if got := scheduler.Decide(false); got != taskstore.ActionSkipPolicy {
		t.Errorf("fresh dirt decision = %v", got)
	}

	fake.Advance(5 * time.Minute)
	if got := scheduler.Decide(false); got != taskstore.ActionPersist {
		t.Errorf("aged dirt decision = %v", got)
	}
}

func TestSchedulerDebounce(t *testing.T) {
	scheduler, fake := newScheduler(t)

	scheduler.NoteMutation()
	if got := scheduler.Decide(true); got != taskstore.ActionPersist {
		t.Fatalf("explicit decision = %v", got)
	}
	scheduler.NoteCaptured()

	// New dirt right after a capture is debounced, even explicitly.
	scheduler.NoteMutation()
	if got := scheduler.Decide(true); got != taskstore.ActionSkipDebounced {
		t.Errorf("immediate re-capture decision = %v", got)
	}

	fake.Advance(2 * time.Second)
	if got := scheduler.Decide(true); got != taskstore.ActionPersist {
		t.Errorf("post-debounce decision = %v", got)
	}
}

func TestSchedulerCaptureResetsDirt(t *testing.T) {
	scheduler, fake := newScheduler(t)
	for i := 0; i < 10; i++ {
		scheduler.NoteMutation()
	}
	scheduler.NoteCaptured()
	if scheduler.Pending() != 0 {
		t.Errorf("pending after capture = %d", scheduler.Pending())
	}
	fake.Advance(time.Hour)
	if got := scheduler.Decide(false); got != taskstore.ActionSkipClean {
		t.Errorf("post-capture decision = %v", got)
	}
}
