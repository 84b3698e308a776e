package console

import (
	"bufio"
	"fmt"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/joeycumines/floater"
	"github.com/joeycumines/hatchling/hlog"
)

func init() {
	registerBuiltins(Default)
}

// registerBuiltins installs the host-provided built-in commands spec.md §6
// requires of every console: exec, peek, poke, hexdump, floatdump, help.
// Called once from this package's init, mirroring the original's own
// static-constructor registration of its built-ins alongside user commands.
func registerBuiltins(t *Table) {
	t.Command("exec", builtinExec(t))
	t.Command("peek", builtinPeek)
	t.Command("poke", builtinPoke)
	t.Command("hexdump", builtinHexdump)
	t.Command("floatdump", builtinFloatdump)
	t.Command("help", builtinHelp(t))
}

// builtinExec returns the exec <filename> command: read the named file
// line by line, running each through t.ExecLine (spec.md §4.10's
// exec_file). File I/O is explicitly out of scope as a general feature
// (SPEC_FULL.md §3), but exec itself is a named built-in, so this uses
// os.Open/bufio.Scanner directly rather than pulling in a pack dependency
// that nothing else in this module needs.
func builtinExec(t *Table) func(filename string) bool {
	return func(filename string) bool {
		f, err := os.Open(filename)
		if err != nil {
			hlog.Warning().Str("file", filename).Msg("exec: cannot open")
			return false
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			hlog.Warning().Str("file", filename).Msg("exec: read error")
			return false
		}
		return t.ExecFile(lines)
	}
}

// builtinPeek implements peek <hex-address> <byte-count>: dumps byte-count
// bytes starting at the given address as hex pairs. Like the original, this
// reinterprets a raw address as memory and is unchecked - a debug facility,
// not a safe one.
func builtinPeek(address Hex, count Hex) bool {
	if count == 0 {
		hlog.Console().Msg("peek: zero bytes")
		return true
	}
	p := (*byte)(unsafe.Pointer(uintptr(address)))
	bytes := unsafe.Slice(p, int(count))

	var sb strings.Builder
	for i, b := range bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	hlog.Console().Str("address", fmt.Sprintf("%#x", uint64(address))).Str("bytes", sb.String()).Msg("peek")
	return true
}

// builtinPoke implements poke <hex-address> <byte-count> <hex-payload>:
// writes byte-count bytes decoded from payload (an unprefixed hex string,
// two digits per byte) starting at address.
func builtinPoke(address Hex, count Hex, payload string) bool {
	payload = strings.TrimSpace(payload)
	n := int(count)
	if len(payload) != n*2 {
		hlog.Warning().Int("want_hex_chars", n*2).Int("got", len(payload)).Msg("poke: payload length mismatch")
		return false
	}
	if n == 0 {
		return true
	}

	decoded := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := strconv.ParseUint(payload[i*2:i*2+2], 16, 8)
		if err != nil {
			hlog.Warning().Str("payload", payload).Msg("poke: invalid hex payload")
			return false
		}
		decoded[i] = byte(b)
	}

	p := (*byte)(unsafe.Pointer(uintptr(address)))
	dst := unsafe.Slice(p, n)
	copy(dst, decoded)
	return true
}

// builtinHexdump implements hexdump <hex-address> <byte-count>: the same
// byte range as peek, rendered sixteen bytes per line with an ASCII gutter.
func builtinHexdump(address Hex, count Hex) bool {
	n := int(count)
	if n == 0 {
		hlog.Console().Msg("hexdump: zero bytes")
		return true
	}
	p := (*byte)(unsafe.Pointer(uintptr(address)))
	bytes := unsafe.Slice(p, n)

	for off := 0; off < n; off += 16 {
		end := off + 16
		if end > n {
			end = n
		}
		row := bytes[off:end]

		var hexPart, asciiPart strings.Builder
		for i, b := range row {
			if i > 0 {
				hexPart.WriteByte(' ')
			}
			fmt.Fprintf(&hexPart, "%02x", b)
			if b >= 0x20 && b < 0x7f {
				asciiPart.WriteByte(b)
			} else {
				asciiPart.WriteByte('.')
			}
		}
		hlog.Console().
			Str("offset", fmt.Sprintf("%#08x", uint64(address)+uint64(off))).
			Str("hex", hexPart.String()).
			Str("ascii", asciiPart.String()).
			Msg("hexdump")
	}
	return true
}

// builtinFloatdump implements floatdump <hex-address> <float-count>: reads
// float-count consecutive float32 values starting at address and logs each
// as a decimal string via floater.FormatDecimalRat, avoiding the binary
// rounding noise of Go's default float formatting.
func builtinFloatdump(address Hex, count Hex) bool {
	n := int(count)
	if n == 0 {
		hlog.Console().Msg("floatdump: zero floats")
		return true
	}
	p := (*float32)(unsafe.Pointer(uintptr(address)))
	floats := unsafe.Slice(p, n)

	var sb strings.Builder
	for i, f := range floats {
		if i > 0 {
			sb.WriteByte(' ')
		}
		rat := new(big.Rat).SetFloat64(float64(f))
		if rat == nil {
			sb.WriteString(formatNonFinite(f))
			continue
		}
		sb.WriteString(floater.FormatDecimalRat(rat, 9, 32))
	}
	hlog.Console().Str("address", fmt.Sprintf("%#x", uint64(address))).Str("floats", sb.String()).Msg("floatdump")
	return true
}

func formatNonFinite(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "nan"
	case math.IsInf(float64(f), 1):
		return "+inf"
	default:
		return "-inf"
	}
}

// builtinHelp returns the help command: logs every registered symbol name,
// sorted, one console record per name, matching hxConsoleHelp.
func builtinHelp(t *Table) func() bool {
	return func() bool {
		for _, name := range t.Names() {
			handler := t.Lookup(name)
			if handler == nil {
				continue
			}
			hlog.Console().Str("usage", handler.Usage(name)).Msg("help")
		}
		return true
	}
}
