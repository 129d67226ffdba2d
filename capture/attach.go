package capture

import (
	"net/http"
	"sync"
)

// recordingTransport is implemented by round trippers that already capture exchanges
type recordingTransport interface {
	recording()
}

var installed struct {
	mu     sync.RWMutex
	stages []StageSupplier
}

// NewClient builds an *http.Client whose transport records every exchange into sink
// before delegating to opts.Base.
func NewClient(sink ExchangeSink, opts Options) (*http.Client, error) {
	recorder, err := NewRecorder(sink, opts)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: recorder}, nil
}

// Stage returns a supplier that places a recorder in front of whatever transport it is given
func Stage(sink ExchangeSink, opts Options) (StageSupplier, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	return func(next http.RoundTripper) http.RoundTripper {
		stageOpts := opts
		stageOpts.Base = next
		return newRecorder(sink, stageOpts)
	}, nil
}

// Install registers a process wide stage consulted by Wrap and Client.
// stages apply in install order, the first installed ends up outermost.
func Install(stage StageSupplier) {
	if stage == nil {
		return
	}
	installed.mu.Lock()
	installed.stages = append(installed.stages, stage)
	installed.mu.Unlock()
}

// Uninstall removes every installed stage
func Uninstall() {
	installed.mu.Lock()
	installed.stages = nil
	installed.mu.Unlock()
}

// Installed reports whether any stage is installed
func Installed() bool {
	installed.mu.RLock()
	defer installed.mu.RUnlock()
	return len(installed.stages) > 0
}

// Wrap applies the installed stages around base, http.DefaultTransport when nil.
// a transport that already records is returned as is, so clients are never wrapped twice.
func Wrap(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if _, ok := base.(recordingTransport); ok {
		return base
	}

	installed.mu.RLock()
	stages := make([]StageSupplier, len(installed.stages))
	copy(stages, installed.stages)
	installed.mu.RUnlock()

	rt := base
	for i := len(stages) - 1; i >= 0; i-- {
		rt = stages[i](rt)
	}
	return rt
}

// Client returns a new *http.Client over Wrap(base)
func Client(base http.RoundTripper) *http.Client {
	return &http.Client{Transport: Wrap(base)}
}
