// timer/timer.go
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is one running round timer. It ticks every second with the
// remaining time and fires the expiry callback exactly once, whether the
// countdown runs out or loses a cancellation race.
type Countdown struct {
	mutex    sync.Mutex
	finished bool
	seconds  int
	stop     chan struct{}
}

// Remaining reports the whole seconds left before expiry.
func (c *Countdown) Remaining() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.seconds
}

func (c *Countdown) tick() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.seconds--
	return c.seconds
}

// Cancel stops the countdown. Safe to call multiple times and safe to call
// after expiry; a cancelled countdown never fires its expiry callback.
func (c *Countdown) Cancel() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	close(c.stop)
}

// finish claims the expiry slot. Only one caller ever wins.
func (c *Countdown) finish() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.finished {
		return false
	}
	c.finished = true
	return true
}

// Manager runs at most one countdown per key. Starting a new countdown for
// a key cancels the previous one, so a session can never have two live
// round timers.
type Manager struct {
	clock      clockwork.Clock
	mutex      sync.Mutex
	countdowns map[string]*Countdown
}

func NewManager() *Manager {
	return NewManagerWithClock(clockwork.NewRealClock())
}

func NewManagerWithClock(clock clockwork.Clock) *Manager {
	return &Manager{
		clock:      clock,
		countdowns: make(map[string]*Countdown),
	}
}

// Start begins a countdown of whole seconds for key. onTick receives the
// seconds remaining after each elapsed second; onExpire fires once when the
// countdown reaches zero. Tick delivery is best effort, expiry is not.
func (m *Manager) Start(key string, duration time.Duration, onTick func(remaining int), onExpire func()) *Countdown {
	c := &Countdown{
		seconds: int(duration / time.Second),
		stop:    make(chan struct{}),
	}

	m.mutex.Lock()
	if prev, exists := m.countdowns[key]; exists {
		prev.Cancel()
	}
	m.countdowns[key] = c
	m.mutex.Unlock()

	go m.run(key, c, onTick, onExpire)
	return c
}

// Remaining reports the seconds left on the countdown for key, if one is
// running. Session snapshots read it so a reconnecting client sees the live
// countdown without waiting for the next tick.
func (m *Manager) Remaining(key string) (int, bool) {
	m.mutex.Lock()
	c, exists := m.countdowns[key]
	m.mutex.Unlock()

	if !exists {
		return 0, false
	}
	return c.Remaining(), true
}

// Cancel stops the countdown for key, if one is running.
func (m *Manager) Cancel(key string) {
	m.mutex.Lock()
	c, exists := m.countdowns[key]
	if exists {
		delete(m.countdowns, key)
	}
	m.mutex.Unlock()

	if exists {
		c.Cancel()
	}
}

func (m *Manager) run(key string, c *Countdown, onTick func(remaining int), onExpire func()) {
	ticker := m.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			remaining := c.tick()
			if remaining > 0 {
				if onTick != nil {
					onTick(remaining)
				}
				continue
			}
			if c.finish() {
				m.forget(key, c)
				if onExpire != nil {
					onExpire()
				}
			}
			return
		case <-c.stop:
			m.forget(key, c)
			return
		}
	}
}

// forget drops the countdown from the map unless a newer one replaced it.
func (m *Manager) forget(key string, c *Countdown) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.countdowns[key] == c {
		delete(m.countdowns, key)
	}
}
