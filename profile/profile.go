// Package profile wraps github.com/pkg/profile for scrollkitd's headless
// harness: a command-selectable profiling mode plus a per-tick recorder
// hook, in place of the per-frame Gio recorder a GUI host would use.
package profile

import (
	"github.com/pkg/profile"
)

// Profiler starts/stops a pkg/profile session and optionally records a
// per-tick counter while the harness loop runs.
type Profiler struct {
	Starter  func(p *profile.Profile)
	Stopper  func()
	Recorder func(tick int)
}

// Start profiling.
func (pfn *Profiler) Start() {
	if pfn.Starter != nil {
		pfn.Stopper = profile.Start(pfn.Starter).Stop
	}
}

// Stop profiling.
func (pfn *Profiler) Stop() {
	if pfn.Stopper != nil {
		pfn.Stopper()
	}
}

// Record reports the harness's current tick count, if a recorder is wired.
func (pfn Profiler) Record(tick int) {
	if pfn.Recorder != nil {
		pfn.Recorder(tick)
	}
}

// Opt specifies the various profiling options.
type Opt string

const (
	None      Opt = "none"
	CPU       Opt = "cpu"
	Memory    Opt = "mem"
	Block     Opt = "block"
	Goroutine Opt = "goroutine"
	Mutex     Opt = "mutex"
	Trace     Opt = "trace"
)

// NewProfiler creates a profiler based on the selected option.
func (p Opt) NewProfiler() Profiler {
	switch p {
	case CPU:
		return Profiler{Starter: profile.CPUProfile}
	case Memory:
		return Profiler{Starter: profile.MemProfile}
	case Block:
		return Profiler{Starter: profile.BlockProfile}
	case Goroutine:
		return Profiler{Starter: profile.GoroutineProfile}
	case Mutex:
		return Profiler{Starter: profile.MutexProfile}
	case Trace:
		return Profiler{Starter: profile.TraceProfile}
	default:
		return Profiler{}
	}
}
