package proc

import "sync"

// TicketLock is a FIFO mutual-exclusion primitive. Each acquirer draws a
// monotonically increasing ticket and blocks until the serving counter
// reaches it; unlock advances the counter and wakes all waiters.
//
// Unlike sync.Mutex, handoff between contenders is strictly in arrival
// order. The two stream readers rely on this to take turns at line
// boundaries without either starving the other.
type TicketLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

// NewTicketLock creates an unlocked ticket lock.
func NewTicketLock() *TicketLock {
	l := &TicketLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Lock draws a ticket and blocks until it is being served.
func (l *TicketLock) Lock() {
	l.mu.Lock()
	ticket := l.next
	l.next++
	for ticket != l.serving {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

// Unlock serves the next ticket. Must only be called by the holder.
func (l *TicketLock) Unlock() {
	l.mu.Lock()
	l.serving++
	l.cond.Broadcast()
	l.mu.Unlock()
}
