package taskqueue

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
