// Package testharness implements the Hatchling unit-test harness: a
// suite/case registry, a bounded-output assertion dispatcher, and ULP-based
// float equality (spec.md §2, §9's "test harness" row), grounded on
// hxtest.hpp - a zero-allocation, partial Google Test reimplementation.
// Registration happens the same way console commands do: package-level
// var initializers calling Register before any RunAll call, the Go
// analogue of hxtest's TEST()-macro static constructors.
package testharness

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/joeycumines/hatchling/hlog"
)

// Func is a single test case body, given a *T to report conditions through.
type Func func(t *T)

type registeredCase struct {
	suite, name string
	fn          Func
	seq         int
}

// maxFailMessages bounds how many failure messages a single case prints
// before the dispatcher goes quiet for the rest of that case, matching
// hxtest_::max_fail_messages_ - useful on a log sink that would otherwise
// be flooded by a loop-driven assertion.
const maxFailMessages = 5

// Dispatcher is the test registry and runner, the Go rendition of
// hxdetail_::hxtest_. The package-level Default is what the package-level
// Register/RunAll operate on.
type Dispatcher struct {
	cases []registeredCase
	seq   int

	// LeakCheck, if set, is called after every case and must report the
	// allocation count and byte total of whatever scope the harness is
	// expected to reset between cases (spec.md §4.6's temporary-stack
	// scope, in the original's integration). A non-zero result fails the
	// case with "test_leaks", matching run_all_tests_'s post-case check.
	LeakCheck func() (count, bytes uintptr)
}

// Default is the process-wide dispatcher used by the package-level
// Register and RunAll.
var Default = &Dispatcher{}

// Register adds fn under suite/name to the Default dispatcher.
func Register(suite, name string, fn Func) { Default.Register(suite, name, fn) }

// Register adds fn under suite/name to d.
func (d *Dispatcher) Register(suite, name string, fn Func) {
	d.cases = append(d.cases, registeredCase{suite: suite, name: name, fn: fn, seq: d.seq})
	d.seq++
}

// Result summarizes one RunAll invocation.
type Result struct {
	Passed, Failed, Skipped int
	TotalAssertions         int
}

// Success reports whether every case that ran passed and at least one ran.
func (r Result) Success() bool { return r.Failed == 0 && r.Passed > 0 }

// RunAll runs every case registered on the Default dispatcher whose suite
// matches suiteFilter (run everything if suiteFilter is empty).
func RunAll(suiteFilter string) Result { return Default.RunAll(suiteFilter) }

// RunAll is the Dispatcher-scoped form of the package-level RunAll. Cases
// run in suite, then registration, order - the Go stand-in for the
// original's suite-then-source-line sort, since Go has no portable
// equivalent of __LINE__ at the call site of a test macro.
func (d *Dispatcher) RunAll(suiteFilter string) Result {
	ordered := append([]registeredCase(nil), d.cases...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].suite != ordered[j].suite {
			return ordered[i].suite < ordered[j].suite
		}
		return ordered[i].seq < ordered[j].seq
	})

	hlog.Console().Str("filter", displayFilter(suiteFilter)).Msg("running tests")

	var result Result
	for _, c := range ordered {
		if suiteFilter != "" && c.suite != suiteFilter {
			continue
		}
		if d.runOne(c) {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	result.Skipped = len(ordered) - result.Passed - result.Failed

	if result.Passed != 0 && result.Failed == 0 {
		hlog.Console().Int("passed", result.Passed).Msg("PASSED")
	} else {
		hlog.Warning().Int("failed", result.Failed).Msg("FAILED")
	}
	return result
}

func displayFilter(suiteFilter string) string {
	if suiteFilter == "" {
		return "All"
	}
	return suiteFilter
}

func (d *Dispatcher) runOne(c registeredCase) bool {
	hlog.Console().Str("suite", c.suite).Str("case", c.name).Msg("RUN")

	t := &T{suite: c.suite, name: c.name}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(assertFailure); ok {
					return // an ASSERT_* failure already reported itself
				}
				t.recordFailure("", 0, fmt.Sprintf("unexpected_panic: %v", r), true)
			}
		}()
		c.fn(t)
	}()

	if t.state == stateNothingAsserted {
		t.recordFailure("", 0, "nothing_tested", false)
	}

	if d.LeakCheck != nil {
		if count, bytes := d.LeakCheck(); count != 0 || bytes != 0 {
			t.recordFailure("", 0, "test_leaks: scope not reset between cases", false)
		}
	}

	passed := t.state == statePass
	if passed {
		hlog.Console().Str("suite", c.suite).Str("case", c.name).Msg("OK")
	} else {
		hlog.Warning().Str("suite", c.suite).Str("case", c.name).Msg("FAILED")
	}
	return passed
}

type testState int

const (
	stateNothingAsserted testState = iota
	statePass
	stateFail
)

// T is passed into every running case; its Expect*/Assert* methods are the
// Go analogue of hxtest.hpp's EXPECT_*/ASSERT_* macros.
type T struct {
	suite, name string
	state       testState
	assertCount int
}

// assertFailure is panicked by an Assert* failure to unwind the running
// case immediately, then recovered by runOne - the Go stand-in for the
// original's ::_Exit(EXIT_FAILURE). It is raised after hlog.Fatal, so with
// the default hook the process still exits; when hlog.Fatal returns (as a
// test's substitute does), the remaining cases keep running.
type assertFailure struct{}

func (t *T) check(cond bool, msg string, fatal bool) bool {
	t.state = condState(cond, t.state)
	if cond {
		return true
	}
	_, file, line, _ := runtime.Caller(2)
	t.recordFailure(file, line, msg, fatal)
	return false
}

func condState(cond bool, prev testState) testState {
	if cond && prev != stateFail {
		return statePass
	}
	return stateFail
}

func (t *T) recordFailure(file string, line int, msg string, fatal bool) {
	t.state = stateFail
	t.assertCount++
	if t.assertCount > maxFailMessages {
		if t.assertCount == maxFailMessages+1 {
			hlog.Console().Msg("remaining asserts will fail silently...")
		}
	} else {
		rec := hlog.Warning().Str("suite", t.suite).Str("case", t.name)
		if file != "" {
			rec = rec.Str("file", file).Int("line", line)
		}
		rec.Msg(msg)
	}

	if fatal {
		hlog.Fatal(fmt.Sprintf("%s.%s: %s", t.suite, t.name, msg))
		panic(assertFailure{})
	}
}

// ExpectTrue checks that cond is true, failing (but not halting) the case
// otherwise.
func (t *T) ExpectTrue(cond bool, msg string) bool { return t.check(cond, msg, false) }

// ExpectFalse checks that cond is false.
func (t *T) ExpectFalse(cond bool, msg string) bool { return t.check(!cond, "!("+msg+")", false) }

// ExpectNear checks that |expected-actual| <= tolerance.
func (t *T) ExpectNear(expected, actual, tolerance float64, msg string) bool {
	delta := expected - actual
	if delta < 0 {
		delta = -delta
	}
	return t.check(delta <= tolerance, msg, false)
}

// Fail unconditionally fails the case without halting it.
func (t *T) Fail(msg string) { t.check(false, msg, false) }

// Succeed marks the case as having asserted something successfully,
// without otherwise checking a condition.
func (t *T) Succeed() { t.check(true, "", false) }

// AssertTrue checks that cond is true; on failure it halts the running
// case (and, per the original's behavior, the harness as a whole) rather
// than continuing to collect further assertions.
func (t *T) AssertTrue(cond bool, msg string) { t.check(cond, msg, true) }

// AssertFalse is AssertTrue's negated counterpart.
func (t *T) AssertFalse(cond bool, msg string) { t.check(!cond, "!("+msg+")", true) }
