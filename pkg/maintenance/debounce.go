package maintenance

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCooldown is the minimum gap between two notifications for the
	// same task.
	DefaultCooldown = 5 * time.Minute

	// pruneAfter is how long an idle entry survives before Prune drops it.
	pruneAfter = 24 * time.Hour
)

// Debouncer suppresses duplicate notifications for a task within a cooldown
// window. State is in-memory only; a process restart clears all cooldowns,
// which may duplicate a notification but can never lose one.
type Debouncer struct {
	mu           sync.Mutex
	lastNotified map[uuid.UUID]time.Time
	cooldown     time.Duration
	now          func() time.Time
}

// NewDebouncer creates a Debouncer with the given cooldown. A zero cooldown
// uses DefaultCooldown. now is the clock source; pass nil for time.Now.
func NewDebouncer(cooldown time.Duration, now func() time.Time) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Debouncer{
		lastNotified: make(map[uuid.UUID]time.Time),
		cooldown:     cooldown,
		now:          now,
	}
}

// CanNotify reports whether a notification for the task may fire now. A true
// result records the current time as the task's last notification; a false
// result leaves state untouched.
func (d *Debouncer) CanNotify(taskID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.lastNotified[taskID]; ok && now.Sub(last) < d.cooldown {
		return false
	}

	d.lastNotified[taskID] = now
	return true
}

// Prune drops entries older than 24 hours to bound memory.
func (d *Debouncer) Prune() {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-pruneAfter)
	for taskID, last := range d.lastNotified {
		if last.Before(cutoff) {
			delete(d.lastNotified, taskID)
		}
	}
}

// Len returns the number of tracked tasks.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lastNotified)
}
