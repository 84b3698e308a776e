// Package hlog implements the logging and assertion sink described in
// spec.md §4.12: four severities (trace, console, warning, fatal), a
// zero-allocation structured record built the way logiface-stumpy builds its
// Event (a pooled []byte buffer encoded with
// github.com/joeycumines/go-utilpkg/jsonenc), and an assertion handler that
// either aborts the process or, per the settings skip-counter, silently
// ignores the failure.
package hlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/joeycumines/go-utilpkg/jsonenc"

	"github.com/joeycumines/hatchling/internal/fnvhash"
	"github.com/joeycumines/hatchling/settings"
)

// Fatal is invoked for every fatal condition in spec.md §7 (allocation
// failure from the OS heap, scope imbalance, alignment violations, hash
// table double-insert, dynamic array reallocation, non-zero leak count at
// shutdown). It defaults to a formatted message on stderr followed by
// os.Exit(1), matching the original's hxAssertRelease-then-_Exit path, but
// is a package variable so tests can substitute a panic/recover instead of
// tearing down the test binary.
var Fatal = func(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

type (
	// Record is a single structured log entry, built incrementally like
	// logiface-stumpy's Event, then released back to a pool.
	Record struct {
		level settings.Level
		buf   []byte
	}
)

var recordPool = sync.Pool{New: func() any { return &Record{} }}

func getRecord(level settings.Level) *Record {
	r := recordPool.Get().(*Record)
	r.level = level
	r.buf = append(r.buf[:0], '{')
	return r
}

func putRecord(r *Record) {
	r.buf = r.buf[:0]
	recordPool.Put(r)
}

// Str appends a string field, encoded via jsonenc.AppendString the same way
// logiface-stumpy's Event.appendString does - no intermediate allocation
// for the common ASCII case.
func (r *Record) Str(key, val string) *Record {
	r.field(key)
	r.buf = jsonenc.AppendString(r.buf, val)
	return r
}

// Int appends an integer field.
func (r *Record) Int(key string, val int) *Record {
	r.field(key)
	r.buf = appendInt(r.buf, int64(val))
	return r
}

// Uint32 appends an unsigned 32-bit field, used for file/symbol hashes.
func (r *Record) Uint32(key string, val uint32) *Record {
	r.field(key)
	r.buf = appendUint(r.buf, uint64(val))
	return r
}

func (r *Record) field(key string) {
	if len(r.buf) > 1 {
		r.buf = append(r.buf, ',')
	}
	r.buf = jsonenc.AppendString(r.buf, key)
	r.buf = append(r.buf, ':')
}

func appendInt(b []byte, v int64) []byte {
	return fmt.Appendf(b, "%d", v)
}

func appendUint(b []byte, v uint64) []byte {
	return fmt.Appendf(b, "%d", v)
}

// Msg finalizes and emits the record at its level, subject to the current
// settings.Settings log-level threshold, then returns the Record to the
// pool. The message text is added as the final "msg" field.
func (r *Record) Msg(msg string) {
	r.field("msg")
	r.buf = jsonenc.AppendString(r.buf, msg)
	r.buf = append(r.buf, '}')
	emit(r.level, r.buf)
	putRecord(r)
}

// emit is the only place that actually writes output, so tests can swap it.
var emit = func(level settings.Level, line []byte) {
	if level < settings.Global().LogLevel() {
		return
	}
	_, _ = os.Stdout.Write(line)
	_, _ = os.Stdout.Write([]byte{'\n'})
}

// Trace starts a trace-level record.
func Trace() *Record { return getRecord(settings.LevelTrace) }

// Console starts a console-level record (ordinary program output).
func Console() *Record { return getRecord(settings.LevelConsole) }

// Warning starts a warning-level record.
func Warning() *Record { return getRecord(settings.LevelWarning) }

// FatalRecord starts a fatal-level record. Building and emitting it does not
// itself abort the process - use Assert/AssertRelease for that.
func FatalRecord() *Record { return getRecord(settings.LevelFatal) }

// siteHash identifies an assertion call site the way the original's
// HX_REGISTER_FILENAME_HASH does in release builds: a 32-bit hash of the
// file path instead of the path string itself.
func siteHash(file string) uint32 { return fnvhash.File(file) }

// AssertRelease is the equivalent of hxAssertRelease: always checked,
// regardless of release level. If cond is false it logs the failure site
// and message, then calls Fatal - UNLESS the settings skip-counter has a
// positive balance, in which case it is decremented and the failure is
// silently ignored (spec.md §7, "Assertion (debug-only)").
//
// file and line identify the call site; callers should pass their own
// location (Go has no caller-transparent __FILE__/__LINE__, so this takes
// them explicitly rather than reaching for runtime.Caller on every
// assertion, which the original never pays for either).
func AssertRelease(cond bool, file string, line int, format string, args ...any) {
	if cond {
		return
	}
	if settings.Global().ConsumeAssertSkip() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	rec := FatalRecord()
	if settings.Global().ReleaseLevel() >= settings.ReleaseLevelShip {
		rec.Uint32("file_hash", siteHash(file))
	} else {
		rec.Str("file", file)
	}
	rec.Int("line", line).Msg(msg)
	Fatal(fmt.Sprintf("%s:%d: %s", file, line, msg))
}

// Assert is the debug-only equivalent of hxAssert: a no-op when the current
// settings.ReleaseLevel is ReleaseLevelShip or higher, otherwise identical
// to AssertRelease.
func Assert(cond bool, file string, line int, format string, args ...any) {
	if settings.Global().ReleaseLevel() >= settings.ReleaseLevelShip {
		return
	}
	AssertRelease(cond, file, line, format, args...)
}
