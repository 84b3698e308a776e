// Package settings holds the process-wide tunables described in spec.md §3:
// the log verbosity threshold, the debug assert-skip counter, and the two
// memory-manager gating flags. There is exactly one Settings value per
// process, constructed by Init and readable from any goroutine thereafter.
package settings

import "sync/atomic"

// ReleaseLevel mirrors HX_RELEASE from the original: 0 is the most verbose
// debug build; from 2 up, debug asserts are no-ops and assertion logs carry
// a file-name hash instead of the path.
type ReleaseLevel int32

const (
	// ReleaseLevelDebug keeps all asserts and logs file paths verbatim.
	ReleaseLevelDebug ReleaseLevel = 0
	// ReleaseLevelDevelopment behaves like ReleaseLevelDebug: asserts are
	// kept and file paths are logged verbatim.
	ReleaseLevelDevelopment ReleaseLevel = 1
	// ReleaseLevelShip makes debug asserts no-ops and hashes file names
	// instead of embedding path strings; release asserts stay checked.
	ReleaseLevelShip ReleaseLevel = 2
	// ReleaseLevelFinal behaves like ReleaseLevelShip.
	ReleaseLevelFinal ReleaseLevel = 3
)

// Settings is the process singleton described by spec.md §3.
//
// Field mutation is low-frequency (config-time); reads from any goroutine
// are safe once Init has returned, because every field access below goes
// through atomics rather than a plain struct read.
type Settings struct {
	logLevel                atomic.Int32
	assertsToSkip            atomic.Int32
	deallocatePermanentFlag  atomic.Bool
	memoryManagerDisabled    atomic.Bool
	releaseLevel             atomic.Int32
}

var global Settings

var initialized atomic.Bool

// Init (re)initializes the process singleton. Called once at program start,
// before constructing the memory manager; safe to call again in tests to
// reset state between cases.
func Init() *Settings {
	global.logLevel.Store(int32(LevelWarning))
	global.assertsToSkip.Store(0)
	global.deallocatePermanentFlag.Store(false)
	global.memoryManagerDisabled.Store(false)
	global.releaseLevel.Store(int32(ReleaseLevelDebug))
	initialized.Store(true)
	return &global
}

// Global returns the process singleton, constructing it with defaults via
// Init if it has never been initialized. Mirrors hxSettings's "constructed
// by first call to hxInit()" contract.
func Global() *Settings {
	if !initialized.Load() {
		Init()
	}
	return &global
}

// Level is one of the four log severities named in spec.md §4.12.
type Level int32

const (
	LevelTrace Level = iota
	LevelConsole
	LevelWarning
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelConsole:
		return "console"
	case LevelWarning:
		return "warning"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// LogLevel returns the current log verbosity threshold; messages below this
// level are discarded by hlog.
func (s *Settings) LogLevel() Level { return Level(s.logLevel.Load()) }

// SetLogLevel updates the log verbosity threshold.
func (s *Settings) SetLogLevel(l Level) { s.logLevel.Store(int32(l)) }

// ReleaseLevel returns the compile-time-equivalent release tuning level.
func (s *Settings) ReleaseLevel() ReleaseLevel { return ReleaseLevel(s.releaseLevel.Load()) }

// SetReleaseLevel updates the release tuning level; test harnesses use this
// to exercise the path-vs-hash log formatting and assert-skip behavior.
func (s *Settings) SetReleaseLevel(l ReleaseLevel) { s.releaseLevel.Store(int32(l)) }

// AssertsToSkip returns the number of future debug assertions that should be
// silently ignored rather than aborting the process.
func (s *Settings) AssertsToSkip() int32 { return s.assertsToSkip.Load() }

// SetAssertsToSkip sets the assert-skip counter, primarily for tests that
// intentionally trip an assertion and want to observe the skip rather than
// aborting.
func (s *Settings) SetAssertsToSkip(n int32) { s.assertsToSkip.Store(n) }

// ConsumeAssertSkip decrements the assert-skip counter if positive and
// reports whether it consumed one, per spec.md §7 ("Assertion (debug-only)").
func (s *Settings) ConsumeAssertSkip() bool {
	for {
		n := s.assertsToSkip.Load()
		if n <= 0 {
			return false
		}
		if s.assertsToSkip.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// DeallocatePermanentAllowed reports whether the permanent allocator's Free
// is considered legal (spec.md §3, "a setting gates whether free is
// considered legal").
func (s *Settings) DeallocatePermanentAllowed() bool { return s.deallocatePermanentFlag.Load() }

// SetDeallocatePermanentAllowed updates the permanent-deallocation gate.
func (s *Settings) SetDeallocatePermanentAllowed(v bool) { s.deallocatePermanentFlag.Store(v) }

// MemoryManagerDisabled reports whether the memory manager has been
// disabled (HX_MEM_DIAGNOSTIC_LEVEL >= 1 semantics): when true, allocate
// falls back directly to the OS heap for every allocator id, bypassing
// scope-based routing. Freeing into the permanent region is gated only by
// DeallocatePermanentAllowed, independently of this flag.
func (s *Settings) MemoryManagerDisabled() bool { return s.memoryManagerDisabled.Load() }

// SetMemoryManagerDisabled toggles the memory-manager-disabled flag.
func (s *Settings) SetMemoryManagerDisabled(v bool) { s.memoryManagerDisabled.Store(v) }
