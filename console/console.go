// Package console implements the Hatchling console subsystem (spec.md
// §4.10): a process-wide symbol table mapping whitespace-delimited tokens
// to bound Go functions and variables, executed by tokenizing text lines.
// Registration normally happens from package-level var initializers (the Go
// analogue of the original's static-storage-constructor registration), so
// that it runs before main regardless of memory-manager init order.
package console

import (
	"reflect"

	"github.com/joeycumines/hatchling/container"
	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/internal/fnvhash"
)

// Hex is the "generic hex" console parameter type (spec.md §4.10): a
// parameter declared as Hex is parsed as unprefixed hexadecimal into a
// 64-bit value. Useful for addresses and hash values.
type Hex uint64

// Handler is the interface every registered symbol implements: a command
// wraps a bound function, a variable wraps a bound pointer, both parse
// their arguments from the remainder of the command line.
type Handler interface {
	// Execute parses args (the text after the symbol name) and invokes the
	// binding, returning false on a parse error or if the underlying call
	// failed.
	Execute(args string) bool
	// Usage returns a one-line usage string naming name (or "usage:" if
	// name is empty), matching the original's usage_() output.
	Usage(name string) string
}

type binding struct {
	name    string
	hash    uint32
	handler Handler
}

// Table is a process-wide console symbol table. The package-level Default
// table is what Command/Variable/ExecLine operate on; tests may construct
// their own Table to avoid cross-test interference.
type Table struct {
	entries *container.HashTable[string, binding]
}

// NewTable constructs an empty console symbol table.
func NewTable() *Table {
	return &Table{
		entries: container.NewHashTable[string, binding](nil, 0, fnvhash.Symbol, func(a, b string) bool { return a == b }),
	}
}

// Default is the process-wide table used by the package-level Command,
// Variable, Deregister, ExecLine, and ExecFile functions.
var Default = NewTable()

// Register installs handler under name. Registering a name twice is fatal,
// matching hxConsoleRegister's "command already registered" assertion.
func (t *Table) Register(name string, handler Handler) {
	assertRelease(name != "", "console: register: empty name")
	assertRelease(!containsDelimiter(name), "console: register: name contains a delimiter: %q", name)
	e := t.entries.InsertUnique(name)
	assertRelease(e.Value.handler == nil, "console: command already registered: %s", name)
	e.Value = binding{name: name, hash: fnvhash.Symbol(name), handler: handler}
}

// Deregister removes name from the table, if present.
func (t *Table) Deregister(name string) {
	t.entries.Erase(name, nil)
}

// DeregisterAll removes every registered symbol.
func (t *Table) DeregisterAll() {
	t.entries.ReleaseAll()
}

// Lookup returns the handler registered under name, or nil.
func (t *Table) Lookup(name string) Handler {
	e := t.entries.Find(name, nil)
	if e == nil {
		return nil
	}
	return e.Value.handler
}

// Names returns every registered symbol name, sorted, the way
// hxConsoleHelp sorts before logging.
func (t *Table) Names() []string {
	names := make([]string, 0, t.entries.Size())
	for e := range t.entries.All() {
		names = append(names, e.Key)
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func containsDelimiter(s string) bool {
	for i := 0; i < len(s); i++ {
		if isDelimiter(s[i]) {
			return true
		}
	}
	return false
}

// Command registers fn (a function taking 0-4 parameters of the supported
// console types and returning bool) under name on the Default table, the
// Go analogue of hxconsole_command_named. fn's parameters may be any
// numeric kind ("generic number"), Hex ("generic hex"), or string (must be
// last, captures the remainder of the line).
func Command(name string, fn any) {
	Default.Command(name, fn)
}

// Command registers fn on t; see the package-level Command.
func (t *Table) Command(name string, fn any) {
	t.Register(name, newFuncBinding(name, fn))
}

// Variable registers ptr (a pointer to bool, any integer kind, float32, or
// float64) under name on the Default table, the Go analogue of
// hxconsole_variable_named.
func Variable(name string, ptr any) {
	Default.Variable(name, ptr)
}

// Variable registers ptr on t; see the package-level Variable.
func (t *Table) Variable(name string, ptr any) {
	rv := reflect.ValueOf(ptr)
	assertRelease(rv.Kind() == reflect.Pointer && !rv.IsNil(), "console: variable: %s must be a non-nil pointer", name)
	t.Register(name, &variableBinding{elem: rv.Elem()})
}

// Deregister removes name from the Default table.
func Deregister(name string) { Default.Deregister(name) }

// ExecLine tokenizes and executes one command line against the Default
// table (spec.md §4.10's exec_line). Returns false on an unknown symbol,
// parse error, or if the command itself returned false.
func ExecLine(line string) bool { return Default.ExecLine(line) }

// ExecLine is the Table-scoped form of the package-level ExecLine.
func (t *Table) ExecLine(line string) bool {
	pos := skipDelimiters(line)
	if pos == len(line) || line[pos] == '#' {
		return true
	}

	start := pos
	for pos < len(line) && !isDelimiter(line[pos]) {
		pos++
	}
	name := line[start:pos]

	handler := t.Lookup(name)
	if handler == nil {
		hlog.Warning().Str("command", name).Msg("command not found")
		return false
	}

	ok := handler.Execute(line[pos:])
	if !ok {
		hlog.Warning().Str("line", line).Msg("cannot execute")
	}
	return ok
}

// ExecFile runs every line of text (already split by the caller) through
// ExecLine on the Default table, aggregating a single success flag -
// spec.md §4.10's exec_file: errors on individual lines do not stop
// execution of the remainder.
func ExecFile(lines []string) bool { return Default.ExecFile(lines) }

// ExecFile is the Table-scoped form of the package-level ExecFile.
func (t *Table) ExecFile(lines []string) bool {
	result := true
	for _, line := range lines {
		hlog.Console().Str("line", line).Msg("console")
		if !t.ExecLine(line) {
			result = false
		}
	}
	return result
}
