package console

import (
	"runtime"

	"github.com/joeycumines/hatchling/hlog"
)

// assertRelease mirrors memory.assertRelease: always-checked, reports the
// caller's site (spec.md §7).
func assertRelease(cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	hlog.AssertRelease(false, file, line, format, args...)
}

// assertDebug is the debug-only counterpart, a no-op at
// settings.ReleaseLevelShip and above - used for the range-clamp checks on
// numeric console parameters (spec.md §4.10), which clamp rather than fail
// even when the check itself is compiled out.
func assertDebug(cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	hlog.Assert(false, file, line, format, args...)
}
