package console

// isDelimiter reports whether b is a console token delimiter: any ASCII
// byte <= 32 (spec.md §6: "Tokens are separated by any ASCII character ≤
// 0x20; UTF-8 bytes ≥ 0x80 are treated as name characters"). Since Go
// strings are unsigned bytes, this condition alone satisfies both halves
// of that rule.
func isDelimiter(b byte) bool { return b <= 32 }

// skipDelimiters returns the index of the first non-delimiter byte in s,
// or len(s) if none exists.
func skipDelimiters(s string) int {
	i := 0
	for i < len(s) && isDelimiter(s[i]) {
		i++
	}
	return i
}

// isEndOfLine reports whether s, from the given position, is empty or a
// comment - i.e. nothing but delimiters followed by end-of-string or '#'
// (spec.md §4.10 step 1, and hxconsole_is_end_of_line_).
func isEndOfLine(s string, pos int) bool {
	pos = pos + skipDelimiters(s[pos:])
	return pos == len(s) || s[pos] == '#'
}
