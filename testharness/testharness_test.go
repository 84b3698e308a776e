package testharness

import (
	"testing"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/stretchr/testify/assert"
)

func withFatalCounter(t *testing.T) *int {
	t.Helper()
	count := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { count++ }
	t.Cleanup(func() { hlog.Fatal = prev })
	return &count
}

func newDispatcher() *Dispatcher { return &Dispatcher{} }

func TestExpectTrueAndFalse(t *testing.T) {
	d := newDispatcher()
	d.Register("Basic", "TrueFalse", func(tt *T) {
		tt.ExpectTrue(1+1 == 2, "1+1 == 2")
		tt.ExpectFalse(1 == 2, "1 == 2")
	})
	result := d.RunAll("")
	assert.True(t, result.Success())
	assert.Equal(t, 1, result.Passed)
}

func TestExpectFailureMarksCaseFailed(t *testing.T) {
	d := newDispatcher()
	d.Register("Basic", "Fails", func(tt *T) {
		tt.ExpectTrue(false, "should fail")
	})
	result := d.RunAll("")
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.Failed)
}

func TestGenericComparisons(t *testing.T) {
	d := newDispatcher()
	d.Register("Generics", "Compare", func(tt *T) {
		ExpectEqual(tt, 5, 5, "five")
		ExpectNotEqual(tt, 5, 6, "five != six")
		ExpectLess(tt, 1, 2, "one < two")
		ExpectGreater(tt, 2, 1, "two > one")
		ExpectLessOrEqual(tt, 2, 2, "two <= two")
		ExpectGreaterOrEqual(tt, 2, 2, "two >= two")
	})
	result := d.RunAll("")
	assert.True(t, result.Success())
}

func TestExpectNear(t *testing.T) {
	d := newDispatcher()
	d.Register("Near", "Close", func(tt *T) {
		tt.ExpectNear(3.14, 3.141, 0.01, "pi-ish")
	})
	result := d.RunAll("")
	assert.True(t, result.Success())
}

func TestNothingAssertedCountsAsFailed(t *testing.T) {
	d := newDispatcher()
	d.Register("Empty", "NoAsserts", func(tt *T) {})
	result := d.RunAll("")
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.Failed)
}

func TestAssertFailureHaltsCaseWithoutPanickingCaller(t *testing.T) {
	fatalCount := withFatalCounter(t)
	d := newDispatcher()
	var ranAfter bool
	d.Register("Fatal", "Halts", func(tt *T) {
		tt.AssertTrue(false, "must halt")
		ranAfter = true // must never run
	})
	result := d.RunAll("")
	assert.Equal(t, 1, *fatalCount)
	assert.False(t, ranAfter)
	assert.False(t, result.Success())
}

func TestSuiteFilterSkipsOtherSuites(t *testing.T) {
	d := newDispatcher()
	var ranA, ranB bool
	d.Register("A", "One", func(tt *T) { ranA = true; tt.Succeed() })
	d.Register("B", "One", func(tt *T) { ranB = true; tt.Succeed() })

	result := d.RunAll("A")
	assert.True(t, ranA)
	assert.False(t, ranB)
	assert.Equal(t, 1, result.Passed)
}

func TestBoundedFailureOutputStopsAtFive(t *testing.T) {
	d := newDispatcher()
	d.Register("Bounded", "ManyFailures", func(tt *T) {
		for i := 0; i < 10; i++ {
			tt.ExpectTrue(false, "always false")
		}
	})
	result := d.RunAll("")
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.Failed)
}

func TestLeakCheckFailsCaseWhenNonZero(t *testing.T) {
	d := newDispatcher()
	d.LeakCheck = func() (uintptr, uintptr) { return 1, 16 }
	d.Register("Leaks", "Leaky", func(tt *T) { tt.Succeed() })
	result := d.RunAll("")
	assert.False(t, result.Success())
}

func TestFloatEqualULP(t *testing.T) {
	assert.True(t, FloatEqual(1.0, 1.0))
	assert.True(t, FloatEqual(float32(0.1)+float32(0.2), float32(0.3)))
	assert.False(t, FloatEqual(1.0, 1.1))
	assert.False(t, FloatEqual(float32(0), float32(1.0/3.0)))
}

func TestFloatEqualRejectsNonFinite(t *testing.T) {
	var nan float32 = float32Nan()
	assert.False(t, FloatEqual(nan, nan))
	assert.False(t, FloatEqual(float32Inf(), float32Inf()))
}

func TestDoubleEqualULP(t *testing.T) {
	assert.True(t, DoubleEqual(1.0, 1.0))
	assert.False(t, DoubleEqual(1.0, 1.1))
}

func float32Nan() float32 { var z float32; return z / z }
func float32Inf() float32 { var z float32 = 1; return z / 0 }
