package testharness

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Ordered is anything with a natural total order, matching hxtest.hpp's
// reliance on operator< and operator== alone.
type Ordered = constraints.Ordered

// ExpectEqual checks a == b.
func ExpectEqual[V comparable](t *T, a, b V, msg string) bool {
	return t.check(a == b, withValues(msg, a, b), false)
}

// ExpectNotEqual checks a != b.
func ExpectNotEqual[V comparable](t *T, a, b V, msg string) bool {
	return t.check(a != b, withValues(msg, a, b), false)
}

// ExpectLess checks a < b.
func ExpectLess[V Ordered](t *T, a, b V, msg string) bool {
	return t.check(a < b, withValues(msg, a, b), false)
}

// ExpectGreater checks a > b.
func ExpectGreater[V Ordered](t *T, a, b V, msg string) bool {
	return t.check(a > b, withValues(msg, a, b), false)
}

// ExpectLessOrEqual checks a <= b.
func ExpectLessOrEqual[V Ordered](t *T, a, b V, msg string) bool {
	return t.check(a <= b, withValues(msg, a, b), false)
}

// ExpectGreaterOrEqual checks a >= b.
func ExpectGreaterOrEqual[V Ordered](t *T, a, b V, msg string) bool {
	return t.check(a >= b, withValues(msg, a, b), false)
}

// AssertEqual is ExpectEqual's halting counterpart.
func AssertEqual[V comparable](t *T, a, b V, msg string) {
	t.check(a == b, withValues(msg, a, b), true)
}

// AssertNotEqual is ExpectNotEqual's halting counterpart.
func AssertNotEqual[V comparable](t *T, a, b V, msg string) {
	t.check(a != b, withValues(msg, a, b), true)
}

func withValues[V any](msg string, a, b V) string {
	if msg == "" {
		return fmt.Sprintf("%v vs %v", a, b)
	}
	return fmt.Sprintf("%s (%v vs %v)", msg, a, b)
}
