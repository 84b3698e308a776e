package container

import (
	"runtime"

	"github.com/joeycumines/hatchling/hlog"
)

// assertRelease mirrors memory.assertRelease: always-checked, captures the
// caller's file/line the way the original's hxAssertRelease macro captures
// __FILE__/__LINE__ at the call site (spec.md §7).
func assertRelease(cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	hlog.AssertRelease(false, file, line, format, args...)
}

// assertDebug is the debug-only counterpart, a no-op at
// settings.ReleaseLevelShip and above.
func assertDebug(cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	hlog.Assert(false, file, line, format, args...)
}
