// Package signalstest provides an instrumented signals.Notifier for tests.
package signalstest

import (
	"os"
	"sync"
)

// Dispositions reported by Notifier.State.
const (
	Capture = "capture"
	Default = "default"
)

// Notifier records the disposition each signal was given instead of touching
// the process's real signal handling.
type Notifier struct {
	mu          sync.Mutex
	disposition map[os.Signal]string
	ch          chan<- os.Signal

	NotifyCalls int
	ResetCalls  int
	// Installs counts signals passed to Notify across all calls.
	Installs int
}

// NewNotifier returns a Notifier with every signal at its default.
func NewNotifier() *Notifier {
	return &Notifier{disposition: make(map[os.Signal]string)}
}

// Notify marks sig as captured and remembers c for Deliver.
func (n *Notifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.NotifyCalls++
	n.ch = c
	for _, s := range sig {
		n.disposition[s] = Capture
		n.Installs++
	}
}

// Reset marks sig as default.
func (n *Notifier) Reset(sig ...os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ResetCalls++
	for _, s := range sig {
		n.disposition[s] = Default
	}
}

// State returns Capture or Default for s.
func (n *Notifier) State(s os.Signal) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if d, ok := n.disposition[s]; ok {
		return d
	}
	return Default
}

// Counts returns NotifyCalls, ResetCalls and Installs under the lock.
func (n *Notifier) Counts() (notify, reset, installs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.NotifyCalls, n.ResetCalls, n.Installs
}

// Deliver simulates the OS delivering s. It reports false when s is not
// currently captured.
func (n *Notifier) Deliver(s os.Signal) bool {
	n.mu.Lock()
	ch := n.ch
	captured := n.disposition[s] == Capture
	n.mu.Unlock()
	if !captured || ch == nil {
		return false
	}
	ch <- s
	return true
}
