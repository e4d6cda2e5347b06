// Package crash captures fatal process conditions and hands the reports of a
// previous run to the next one.
//
// A Manager owns the process-scoped hook state: the handler registered on a
// panics.Interceptor and the monitored set of a signals.Registry. Install
// claims both and starts a background harvest of the reports left by earlier
// runs; Uninstall releases them.
//
// Example usage:
//
//	paths := config.CacheRoot("")
//	m := crash.New(crashstore.New(paths, crashstore.SystemClock{}))
//	m.Install(func(reports []string) {
//		for _, r := range reports {
//			log.Println(r)
//		}
//	})
//	defer panics.Recover()
//
// Only one Manager should be installed at a time. Install and Uninstall must
// not race with each other or with the harvest of a previous Install; that is
// the caller's responsibility.
package crash

import (
	"io"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
	"github.com/blackwell-systems/crashkeep/internal/panics"
	"github.com/blackwell-systems/crashkeep/internal/report"
	"github.com/blackwell-systems/crashkeep/internal/signals"
)

// State is the install state of a Manager.
type State int

const (
	Uninstalled State = iota
	Installed
)

func (s State) String() string {
	switch s {
	case Installed:
		return "installed"
	default:
		return "uninstalled"
	}
}

// stackBufferSize bounds the goroutine dump captured for a signal report.
const stackBufferSize = 256 << 10

// HarvestFunc receives the bodies of every report left by earlier runs.
type HarvestFunc func(reports []string)

// Manager wires crash capture to a crashstore.Store.
type Manager struct {
	store       *crashstore.Store
	registry    *signals.Registry
	interceptor *panics.Interceptor
	notifier    signals.Notifier
	terminate   func(os.Signal)
	logger      *log.Logger
	base        uint64
	baseSet     bool

	mu      sync.Mutex
	state   State
	closed  bool
	harvest sync.WaitGroup

	// Capture buffers, allocated once. Only the registry's dispatch
	// goroutine touches them.
	stackBuf  []byte
	reportBuf []byte
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier replaces the os/signal backed notifier.
func WithNotifier(n signals.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithInterceptor registers the exception handler on i instead of
// panics.Default.
func WithInterceptor(i *panics.Interceptor) Option {
	return func(m *Manager) { m.interceptor = i }
}

// WithTerminate replaces the step that re-raises a captured signal.
func WithTerminate(fn func(os.Signal)) Option {
	return func(m *Manager) { m.terminate = fn }
}

// WithLogger reports lifecycle events to l.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithImageBase fixes the base address written into report headers.
func WithImageBase(base uint64) Option {
	return func(m *Manager) {
		m.base = base
		m.baseSet = true
	}
}

// New creates an uninstalled Manager. The image base and capture buffers are
// resolved here so that capture itself does no lookups.
func New(store *crashstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		interceptor: panics.Default,
		notifier:    signals.OS,
		terminate:   reraise,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.baseSet {
		m.base = report.ImageBase()
	}
	m.stackBuf = make([]byte, stackBufferSize)
	m.reportBuf = make([]byte, 0, stackBufferSize+report.SignalBufferSize)
	m.registry = signals.New(m.notifier, m.captureSignal)
	return m
}

// Install starts the background harvest of earlier reports, registers the
// exception handler and monitors FatalSignals. onHarvest is called at most
// once per Install, and only when at least one report exists; the store is
// purged afterwards whether or not it was called. Installing twice re-runs
// the whole sequence. Install after Close does nothing.
func (m *Manager) Install(onHarvest HarvestFunc) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		m.logger.Printf("crash: install after close ignored")
		return
	}

	m.harvest.Add(1)
	go func() {
		defer m.harvest.Done()
		m.harvestReports(onHarvest)
	}()

	m.interceptor.SetHandler(m.captureException)
	m.registry.SetMonitored(FatalSignals)

	m.mu.Lock()
	m.state = Installed
	m.mu.Unlock()
}

// Uninstall unregisters the exception handler and restores the default
// disposition of every monitored signal.
func (m *Manager) Uninstall() {
	m.interceptor.SetHandler(nil)
	m.registry.SetMonitored(nil)

	m.mu.Lock()
	m.state = Uninstalled
	m.mu.Unlock()
}

// Close uninstalls and stops signal dispatch. The Manager cannot be
// installed again afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.Uninstall()
	m.registry.Close()
}

// State reports whether the Manager is installed.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Wait blocks until every harvest started by Install has finished.
func (m *Manager) Wait() {
	m.harvest.Wait()
}

// Monitored returns the signals currently claimed by the Manager.
func (m *Manager) Monitored() []os.Signal {
	return m.registry.Monitored()
}

func (m *Manager) harvestReports(onHarvest HarvestFunc) {
	defer m.DeleteAllCrashReports()

	reports := m.ListCrashReports()
	if len(reports) == 0 {
		return
	}
	m.logger.Printf("crash: harvested %d report(s)", len(reports))
	if onHarvest != nil {
		onHarvest(reports)
	}
}

// captureException is the panics.Handler registered while installed.
func (m *Manager) captureException(e panics.Exception) {
	body := report.Format(report.Report{
		Name:        e.Name,
		Reason:      e.Reason,
		Frames:      e.Frames,
		BaseAddress: m.base,
	})
	m.store.Save(body, crashstore.Exception)
}

// captureSignal runs on the registry's dispatch goroutine. It only uses the
// pre-allocated buffers and the store's raw write path, then hands the signal
// back to the OS.
func (m *Manager) captureSignal(sig os.Signal) {
	n := runtime.Stack(m.stackBuf, true)
	m.reportBuf = report.AppendSignal(m.reportBuf[:0], m.base, signals.Name(sig), m.stackBuf[:n])
	m.store.SaveBytes(m.reportBuf, crashstore.Signal)

	m.registry.Restore(sig)
	m.terminate(sig)
}

// ListCrashReports returns the body of every stored report, signals first.
func (m *Manager) ListCrashReports() []string {
	var reports []string
	for _, ct := range crashstore.Types {
		reports = append(reports, m.store.ReadAll(ct)...)
	}
	return reports
}

// ReadCrashReport returns one stored report by file name.
func (m *Manager) ReadCrashReport(fileName string, ct crashstore.CrashType) (string, bool) {
	return m.store.ReadOne(fileName, ct)
}

// DeleteAllCrashReports removes every stored report of every type.
func (m *Manager) DeleteAllCrashReports() {
	for _, ct := range crashstore.Types {
		m.store.DeleteAll(ct)
	}
}

// DeleteCrashReport removes one stored report by file name.
func (m *Manager) DeleteCrashReport(fileName string, ct crashstore.CrashType) {
	m.store.DeleteOne(fileName, ct)
}
