package console

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFatalCounter swaps hlog.Fatal for a counter for the duration of the
// test, since the default calls os.Exit(1) and would kill the test binary.
func withFatalCounter(t *testing.T) *int {
	t.Helper()
	count := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { count++ }
	t.Cleanup(func() { hlog.Fatal = prev })
	return &count
}

func bufAddress(buf []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
}

func floatAddress(floats []float32) uint64 {
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(floats))))
}

func poke(addr uint64, count int, payload string) string {
	return fmt.Sprintf("poke %x %x %s", addr, count, payload)
}

func peek(addr uint64, count int) string {
	return fmt.Sprintf("peek %x %x", addr, count)
}

func peekLine(cmd string, addr uint64, count int) string {
	return fmt.Sprintf("%s %x %x", cmd, addr, count)
}

func TestIsDelimiterAndEndOfLine(t *testing.T) {
	assert.True(t, isDelimiter(' '))
	assert.True(t, isDelimiter('\t'))
	assert.True(t, isDelimiter(0))
	assert.False(t, isDelimiter('a'))
	assert.False(t, isDelimiter(0x80)) // UTF-8 lead byte: a name character

	assert.True(t, isEndOfLine("   ", 0))
	assert.True(t, isEndOfLine("  # comment", 0))
	assert.False(t, isEndOfLine("  cmd", 0))
}

func TestTableRegisterAndLookup(t *testing.T) {
	tbl := NewTable()
	called := false
	tbl.Command("greet", func() bool { called = true; return true })

	h := tbl.Lookup("greet")
	require.NotNil(t, h)
	assert.True(t, h.Execute(""))
	assert.True(t, called)
	assert.Nil(t, tbl.Lookup("missing"))
}

func TestTableRegisterEmptyNameFatal(t *testing.T) {
	fatalCount := withFatalCounter(t)
	tbl := NewTable()
	tbl.Command("", func() bool { return true })
	assert.Equal(t, 1, *fatalCount)
}

func TestTableRegisterNameWithDelimiterFatal(t *testing.T) {
	fatalCount := withFatalCounter(t)
	tbl := NewTable()
	tbl.Command("bad name", func() bool { return true })
	assert.Equal(t, 1, *fatalCount)
}

func TestTableRegisterDuplicateFatal(t *testing.T) {
	fatalCount := withFatalCounter(t)
	tbl := NewTable()
	tbl.Command("dup", func() bool { return true })
	tbl.Command("dup", func() bool { return true })
	assert.Equal(t, 1, *fatalCount)
}

func TestTableDeregister(t *testing.T) {
	tbl := NewTable()
	tbl.Command("temp", func() bool { return true })
	require.NotNil(t, tbl.Lookup("temp"))
	tbl.Deregister("temp")
	assert.Nil(t, tbl.Lookup("temp"))
}

func TestTableNamesSorted(t *testing.T) {
	tbl := NewTable()
	tbl.Command("zebra", func() bool { return true })
	tbl.Command("apple", func() bool { return true })
	tbl.Command("mango", func() bool { return true })
	assert.Equal(t, []string{"apple", "mango", "zebra"}, tbl.Names())
}

func TestExecLineEmptyAndComment(t *testing.T) {
	tbl := NewTable()
	assert.True(t, tbl.ExecLine(""))
	assert.True(t, tbl.ExecLine("   "))
	assert.True(t, tbl.ExecLine("  # a comment"))
}

func TestExecLineUnknownCommand(t *testing.T) {
	tbl := NewTable()
	assert.False(t, tbl.ExecLine("nosuchcommand 1 2"))
}

func TestExecLineDispatchesArgs(t *testing.T) {
	tbl := NewTable()
	var got int
	tbl.Command("setval", func(n int) bool { got = n; return true })
	assert.True(t, tbl.ExecLine("setval 42"))
	assert.Equal(t, 42, got)
}

func TestExecLineParseErrorReturnsFalse(t *testing.T) {
	tbl := NewTable()
	tbl.Command("needint", func(n int) bool { return true })
	assert.False(t, tbl.ExecLine("needint notanumber"))
}

func TestExecLineTooManyArgsReturnsFalse(t *testing.T) {
	tbl := NewTable()
	tbl.Command("onearg", func(n int) bool { return true })
	assert.False(t, tbl.ExecLine("onearg 1 2"))
}

func TestExecLineCommandFailureReturnsFalse(t *testing.T) {
	tbl := NewTable()
	tbl.Command("alwaysfail", func() bool { return false })
	assert.False(t, tbl.ExecLine("alwaysfail"))
}

func TestVariableQueryAndAssign(t *testing.T) {
	tbl := NewTable()
	var speed float32 = 1.5
	tbl.Variable("speed", &speed)

	assert.True(t, tbl.ExecLine("speed")) // query
	assert.True(t, tbl.ExecLine("speed 3.25"))
	assert.Equal(t, float32(3.25), speed)

	assert.False(t, tbl.ExecLine("speed 1 2")) // too many args
}

func TestVariableMustBeNonNilPointer(t *testing.T) {
	fatalCount := withFatalCounter(t)
	tbl := NewTable()
	var p *int
	tbl.Variable("bad", p)
	assert.Equal(t, 1, *fatalCount)
}

func TestHexParameterParsing(t *testing.T) {
	tbl := NewTable()
	var got Hex
	tbl.Command("sethex", func(h Hex) bool { got = h; return true })
	assert.True(t, tbl.ExecLine("sethex ff"))
	assert.Equal(t, Hex(0xff), got)

	assert.False(t, tbl.ExecLine("sethex zz"))
}

func TestStringParameterCapturesRemainder(t *testing.T) {
	tbl := NewTable()
	var got string
	tbl.Command("say", func(s string) bool { got = s; return true })
	assert.True(t, tbl.ExecLine("say   hello world  "))
	assert.Equal(t, "hello world  ", got)
}

func TestNumberParameterInRangeIsExact(t *testing.T) {
	tbl := NewTable()
	var got int8
	tbl.Command("narrow", func(n int8) bool { got = n; return true })
	// An in-range value for the narrow parameter type passes through
	// unchanged; no clamp and no parameter_overflow assertion occur.
	assert.True(t, tbl.ExecLine("narrow 100"))
	assert.Equal(t, int8(100), got)
}

func TestFuncBindingUsage(t *testing.T) {
	tbl := NewTable()
	tbl.Command("move", func(x, y float32) bool { return true })
	h := tbl.Lookup("move")
	require.NotNil(t, h)
	assert.Equal(t, "move f64 f64", h.Usage("move"))
}

func TestExecFileAggregatesFailures(t *testing.T) {
	tbl := NewTable()
	var calls []string
	tbl.Command("note", func(s string) bool { calls = append(calls, s); return true })

	ok := tbl.ExecFile([]string{
		"note first",
		"# a comment",
		"missing command",
		"note second",
	})
	assert.False(t, ok)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDefaultTableHasBuiltins(t *testing.T) {
	for _, name := range []string{"exec", "peek", "poke", "hexdump", "floatdump", "help"} {
		assert.NotNil(t, Default.Lookup(name), "built-in %q should be registered", name)
	}
}

func TestBuiltinHelpListsRegisteredCommands(t *testing.T) {
	assert.True(t, Default.ExecLine("help"))
}

func TestBuiltinPeekAndPoke(t *testing.T) {
	buf := make([]byte, 4)
	addr := bufAddress(buf)

	ok := Default.ExecLine(poke(addr, 4, "deadbeef"))
	require.True(t, ok)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf)

	ok = Default.ExecLine(peek(addr, 4))
	assert.True(t, ok)
}

func TestBuiltinHexdump(t *testing.T) {
	buf := []byte("0123456789abcdef0123")
	addr := bufAddress(buf)
	assert.True(t, Default.ExecLine(peekLine("hexdump", addr, len(buf))))
}

func TestBuiltinFloatdump(t *testing.T) {
	floats := []float32{1.5, -2.25, 0}
	addr := floatAddress(floats)
	assert.True(t, Default.ExecLine(peekLine("floatdump", addr, len(floats))))
}

func TestBuiltinExecRunsScript(t *testing.T) {
	tbl := NewTable()
	var seen []string
	tbl.Command("mark", func(s string) bool { seen = append(seen, s); return true })
	registerBuiltins(tbl)

	dir := t.TempDir()
	script := filepath.Join(dir, "script.hxc")
	require.NoError(t, os.WriteFile(script, []byte("mark one\n# comment\nmark two\n"), 0o644))

	assert.True(t, tbl.ExecLine("exec "+script))
	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestBuiltinExecMissingFile(t *testing.T) {
	assert.False(t, Default.ExecLine("exec /nonexistent/path/no.hxc"))
}
