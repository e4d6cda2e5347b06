// Package panics observes uncaught panics before they terminate the process.
//
// Go has no runtime hook for uncaught panics, so interception is opt-in at the
// points where a panic would otherwise escape: the top of main and the top of
// every goroutine. Defer Recover there (or start goroutines with Go):
//
//	func main() {
//		defer panics.Recover()
//		...
//	}
//
// Recover hands the panic to the registered Handler and then re-panics with
// the same value, so the runtime's normal crash output and exit status follow.
// Fatal runtime errors that bypass recover (concurrent map writes, out of
// memory) are not observed.
package panics

import (
	"fmt"
	"sync/atomic"

	"github.com/blackwell-systems/crashkeep/internal/report"
)

// Exception describes an uncaught panic.
type Exception struct {
	// Name is the dynamic type of the panic value, e.g. "runtime.boundsError".
	Name string
	// Reason is the panic value rendered as text.
	Reason string
	// Frames is the panicking goroutine's stack, innermost first.
	Frames []string
}

// Handler receives an uncaught panic. It runs on the panicking goroutine,
// before the process terminates.
type Handler func(Exception)

// Interceptor holds the single registered Handler.
type Interceptor struct {
	handler atomic.Pointer[Handler]
}

// New returns an Interceptor with no handler.
func New() *Interceptor {
	return &Interceptor{}
}

// SetHandler registers h, replacing whatever handler was registered before,
// including one registered by unrelated code sharing this Interceptor. There
// is no chaining. A nil h unregisters.
func (i *Interceptor) SetHandler(h Handler) {
	if h == nil {
		i.handler.Store(nil)
		return
	}
	i.handler.Store(&h)
}

// Handler returns the registered handler, or nil.
func (i *Interceptor) Handler() Handler {
	if h := i.handler.Load(); h != nil {
		return *h
	}
	return nil
}

// Recover must be called directly by defer. It reports a panic in progress to
// the handler and then re-panics.
func (i *Interceptor) Recover() {
	r := recover()
	if r == nil {
		return
	}
	i.report(r, report.Callers(1))
	panic(r)
}

// Go runs fn on a new goroutine with Recover deferred.
func (i *Interceptor) Go(fn func()) {
	go func() {
		defer i.Recover()
		fn()
	}()
}

func (i *Interceptor) report(r any, frames []string) {
	h := i.Handler()
	if h == nil {
		return
	}
	// A failing handler must not replace the original panic.
	defer func() { _ = recover() }()
	h(NewException(r, frames))
}

// NewException builds an Exception from a recovered panic value.
func NewException(r any, frames []string) Exception {
	return Exception{
		Name:   fmt.Sprintf("%T", r),
		Reason: reason(r),
		Frames: frames,
	}
}

func reason(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Default is the process-wide interceptor used by the package-level
// functions.
var Default = New()

// SetUncaughtHandler registers h on Default. See Interceptor.SetHandler.
func SetUncaughtHandler(h Handler) {
	Default.SetHandler(h)
}

// Recover is Default.Recover for use as `defer panics.Recover()`.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	Default.report(r, report.Callers(1))
	panic(r)
}

// Go runs fn on a new goroutine guarded by Default.
func Go(fn func()) {
	Default.Go(fn)
}
