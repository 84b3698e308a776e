package console

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/joeycumines/hatchling/hlog"
)

var hexType = reflect.TypeOf(Hex(0))

// funcBinding adapts an arbitrary Go function of 0-4 supported-type
// parameters returning bool into a Handler, the Go analogue of the
// original's hxconsole_command0_ through hxconsole_command4_ templates.
type funcBinding struct {
	name string
	fn   reflect.Value
	in   []reflect.Type
}

func newFuncBinding(name string, fn any) *funcBinding {
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	assertRelease(rt.Kind() == reflect.Func, "console: command %s: not a function", name)
	assertRelease(rt.NumOut() == 1 && rt.Out(0).Kind() == reflect.Bool, "console: command %s: must return bool", name)
	assertRelease(rt.NumIn() <= 4, "console: command %s: at most 4 parameters supported", name)
	assertRelease(!rt.IsVariadic(), "console: command %s: variadic functions unsupported", name)

	in := make([]reflect.Type, rt.NumIn())
	for i := range in {
		in[i] = rt.In(i)
		assertRelease(isSupportedParam(in[i]), "console: command %s: unsupported parameter type %s", name, in[i])
		if in[i].Kind() == reflect.String {
			assertRelease(i == len(in)-1, "console: command %s: string parameter must be last", name)
		}
	}
	return &funcBinding{name: name, fn: rv, in: in}
}

func isSupportedParam(t reflect.Type) bool {
	if t == hexType {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (b *funcBinding) Execute(args string) bool {
	pos := 0
	values := make([]reflect.Value, len(b.in))
	for i, t := range b.in {
		if t.Kind() == reflect.String {
			start := pos + skipDelimiters(args[pos:])
			values[i] = reflect.ValueOf(args[start:]).Convert(t)
			pos = len(args)
			continue
		}

		token, next, ok := nextToken(args, pos)
		if !ok {
			return b.fail()
		}
		pos = next

		if t == hexType {
			u, err := strconv.ParseUint(token, 16, 64)
			if err != nil {
				return b.fail()
			}
			values[i] = reflect.ValueOf(Hex(u))
			continue
		}

		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return b.fail()
		}
		values[i] = narrowNumber(t, f)
	}

	if !isEndOfLine(args, pos) {
		return b.fail()
	}

	out := b.fn.Call(values)
	return out[0].Bool()
}

func (b *funcBinding) fail() bool {
	return false
}

func (b *funcBinding) Usage(name string) string {
	labels := make([]string, len(b.in))
	for i, t := range b.in {
		labels[i] = paramLabel(t)
	}
	if name == "" {
		name = "usage:"
	}
	if len(labels) == 0 {
		return name
	}
	return name + " " + strings.Join(labels, " ")
}

func paramLabel(t reflect.Type) string {
	if t == hexType {
		return "hex"
	}
	if t.Kind() == reflect.String {
		return "char*"
	}
	return "f64"
}

// nextToken skips leading delimiters then reads the next run of
// non-delimiter bytes, matching strtod/strtoull's own whitespace skipping.
// ok is false if no token is present (end of line or comment reached).
func nextToken(s string, pos int) (token string, next int, ok bool) {
	pos += skipDelimiters(s[pos:])
	if pos == len(s) || s[pos] == '#' {
		return "", pos, false
	}
	start := pos
	for pos < len(s) && !isDelimiter(s[pos]) {
		pos++
	}
	return s[start:pos], pos, true
}

// narrowNumber clamps f to dst's representable range before constructing
// the reflect.Value, the Go rendition of hxconsolenumber_t's clamping
// operator T_() cast (spec.md §4.10 step 4).
func narrowNumber(dst reflect.Type, f float64) reflect.Value {
	switch dst.Kind() {
	case reflect.Bool:
		return reflect.ValueOf(f != 0)
	case reflect.Float32:
		return reflect.ValueOf(float32(f))
	case reflect.Float64:
		return reflect.ValueOf(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := dst.Bits()
		if bits == 0 {
			bits = 64
		}
		min := -math.Pow(2, float64(bits-1))
		max := math.Pow(2, float64(bits-1)) - 1
		clamped := clamp(f, min, max)
		assertDebug(clamped == f, "console: parameter_overflow %v -> %v", f, clamped)
		v := reflect.New(dst).Elem()
		v.SetInt(int64(clamped))
		return v
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := dst.Bits()
		if bits == 0 {
			bits = 64
		}
		max := math.Pow(2, float64(bits)) - 1
		clamped := clamp(f, 0, max)
		assertDebug(clamped == f, "console: parameter_overflow %v -> %v", f, clamped)
		v := reflect.New(dst).Elem()
		v.SetUint(uint64(clamped))
		return v
	default:
		return reflect.Zero(dst)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// variableBinding adapts a pointer to a numeric or bool field into a
// Handler: zero arguments queries the current value, one argument assigns
// it, matching hxconsole_variable_.
type variableBinding struct {
	elem reflect.Value
}

func (v *variableBinding) Execute(args string) bool {
	if isEndOfLine(args, 0) {
		hlog.Console().Str("value", formatValue(v.elem)).Msg("console variable")
		return true
	}

	token, next, ok := nextToken(args, 0)
	if !ok {
		return false
	}
	if !isEndOfLine(args, next) {
		return false
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return false
	}
	v.elem.Set(narrowNumber(v.elem.Type(), f))
	return true
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return ""
	}
}

func (v *variableBinding) Usage(name string) string {
	if name == "" {
		name = "usage:"
	}
	return name + " <optional-value>"
}
