// Package signals owns the set of OS signals monitored for crash capture.
//
// A Registry swaps signal dispositions as a unit: every call to SetMonitored
// restores the default disposition of signals leaving the set and installs the
// capture channel for every signal in the new set. Calls are serialized, so
// the final OS state always matches the last requested set.
package signals

import (
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
)

// Notifier abstracts signal registration so tests can observe dispositions.
type Notifier interface {
	// Notify routes the given signals to c (installs the capture handler).
	Notify(c chan<- os.Signal, sig ...os.Signal)
	// Reset restores the default disposition of the given signals.
	Reset(sig ...os.Signal)
}

type osNotifier struct{}

func (osNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osNotifier) Reset(sig ...os.Signal)                      { signal.Reset(sig...) }

// OS is the Notifier backed by os/signal.
var OS Notifier = osNotifier{}

// Handler is invoked on the registry's dispatch goroutine for every delivered
// signal.
type Handler func(os.Signal)

// Registry tracks the monitored signal set and dispatches deliveries.
type Registry struct {
	mu       sync.Mutex
	notifier Notifier
	current  map[os.Signal]struct{}

	ch      chan os.Signal
	handler Handler
	done    chan struct{}
	once    sync.Once
}

// New creates a Registry and starts its dispatch goroutine. A nil notifier
// means OS.
func New(n Notifier, h Handler) *Registry {
	if n == nil {
		n = OS
	}
	r := &Registry{
		notifier: n,
		current:  make(map[os.Signal]struct{}),
		// os/signal drops deliveries when the channel is full.
		ch:      make(chan os.Signal, 16),
		handler: h,
		done:    make(chan struct{}),
	}
	go r.dispatch()
	return r
}

func (r *Registry) dispatch() {
	for {
		select {
		case sig := <-r.ch:
			if r.handler != nil {
				r.handler(sig)
			}
		case <-r.done:
			return
		}
	}
}

// SetMonitored replaces the monitored set. A set equal to the current one is
// a no-op and touches no disposition.
func (r *Registry) SetMonitored(sigs []os.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[os.Signal]struct{}, len(sigs))
	for _, s := range sigs {
		next[s] = struct{}{}
	}
	if sameSet(r.current, next) {
		return
	}

	var removed []os.Signal
	for s := range r.current {
		if _, ok := next[s]; !ok {
			removed = append(removed, s)
		}
	}
	if len(removed) > 0 {
		r.notifier.Reset(sortSignals(removed)...)
	}

	if len(next) > 0 {
		added := make([]os.Signal, 0, len(next))
		for s := range next {
			added = append(added, s)
		}
		r.notifier.Notify(r.ch, sortSignals(added)...)
	}

	r.current = next
}

// Monitored returns the current set in ascending signal-number order.
func (r *Registry) Monitored() []os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]os.Signal, 0, len(r.current))
	for s := range r.current {
		out = append(out, s)
	}
	return sortSignals(out)
}

// Restore gives sig back its default disposition and drops it from the
// monitored set, so a later SetMonitored that includes sig claims it again.
// The capture handler calls it right before re-raising.
func (r *Registry) Restore(sig os.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifier.Reset(sig)
	delete(r.current, sig)
}

// Close empties the monitored set and stops dispatch. It is safe to call more
// than once.
func (r *Registry) Close() {
	r.SetMonitored(nil)
	r.once.Do(func() { close(r.done) })
}

func sameSet(a, b map[os.Signal]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for s := range a {
		if _, ok := b[s]; !ok {
			return false
		}
	}
	return true
}

func sortSignals(sigs []os.Signal) []os.Signal {
	sort.Slice(sigs, func(i, j int) bool { return number(sigs[i]) < number(sigs[j]) })
	return sigs
}

func number(s os.Signal) int {
	if ss, ok := s.(syscall.Signal); ok {
		return int(ss)
	}
	return -1
}
