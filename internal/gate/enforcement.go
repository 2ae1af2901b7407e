package gate

import "sync"

// Enforcement is the armed/disarmed state for automatic eviction. It is
// deliberately independent from the channel's remote overwrite table: an
// operator can arm eviction without hard-locking the channel, and vice
// versa. Arming has no effect on members already connected; only future
// join events are evaluated.
type Enforcement struct {
	mu    sync.Mutex
	armed bool
	save  Persister
}

func NewEnforcement(armed bool, save Persister) *Enforcement {
	return &Enforcement{armed: armed, save: save}
}

// Arm activates eviction of non-allow-listed joiners. The returned error is
// the persistence outcome; the flag flips regardless.
func (e *Enforcement) Arm() error {
	return e.set(true)
}

// Disarm deactivates automatic eviction.
func (e *Enforcement) Disarm() error {
	return e.set(false)
}

func (e *Enforcement) Armed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed
}

func (e *Enforcement) set(armed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.armed = armed
	return e.save.SaveLockFlag(armed)
}
