package svcctl

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Quoting lives in this file so each syntax family has exactly one audited
// routine. Encoders never concatenate raw descriptor strings into generated
// command lines.

// posixJoin renders argv as a single POSIX shell command line
func posixJoin(words []string) string {
	return shellquote.Join(words...)
}

// posixDoubleQuote wraps a value in double quotes for a shell variable
// assignment, escaping the characters the shell treats specially inside
// double quotes. The parsed value is byte-identical to the input.
func posixDoubleQuote(s string) string {
	v := s
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "$", `\$`)
	v = strings.ReplaceAll(v, "`", "\\`")
	return `"` + v + `"`
}

// systemd unit files: ExecStart values undergo word splitting with
// double-quote grouping and backslash escapes. "$" and "%" are
// variable/specifier expansions and must be doubled to stay literal.

// systemdSpecial are the bytes that force double-quoting of an ExecStart word
const systemdSpecial = " \t\n\"'\\;"

// systemdNeedsQuote reports whether an ExecStart word requires quoting
func systemdNeedsQuote(s string) bool {
	return s == "" || strings.ContainsAny(s, systemdSpecial)
}

// systemdQuoteWord renders one ExecStart word
func systemdQuoteWord(s string) string {
	quoted := systemdNeedsQuote(s)
	out := s
	if quoted {
		out = strings.ReplaceAll(out, `\`, `\\`)
		out = strings.ReplaceAll(out, `"`, `\"`)
	}
	out = strings.ReplaceAll(out, "$", "$$")
	out = strings.ReplaceAll(out, "%", "%%")
	if quoted {
		return `"` + out + `"`
	}
	return out
}

// systemdExecStart renders the program and arguments as an ExecStart value
func systemdExecStart(program string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, systemdQuoteWord(program))
	for _, a := range args {
		words = append(words, systemdQuoteWord(a))
	}
	return strings.Join(words, " ")
}

// systemdEnvironment renders one Environment= value. "$" is not expanded in
// Environment directives, so only "%" needs doubling.
func systemdEnvironment(key, value string) string {
	v := value
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "%", "%%")
	return `"` + key + "=" + v + `"`
}

// Windows command lines: CommandLineToArgvW rules. Backslashes are literal
// except before a double quote, where the run is doubled and the quote
// escaped; words containing spaces, tabs, or quotes are wrapped.

// windowsNeedsQuote reports whether an argv word requires quoting
func windowsNeedsQuote(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\"")
}

// windowsQuoteWord renders one argv word
func windowsQuoteWord(s string) string {
	if !windowsNeedsQuote(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			slashes++
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes*2+1))
			b.WriteByte('"')
			slashes = 0
		default:
			if slashes > 0 {
				b.WriteString(strings.Repeat(`\`, slashes))
				slashes = 0
			}
			b.WriteByte(c)
		}
	}
	// trailing backslashes double so the closing quote stays a delimiter
	b.WriteString(strings.Repeat(`\`, slashes*2))
	b.WriteByte('"')
	return b.String()
}

// windowsJoin renders the program and arguments as one Windows command line
func windowsJoin(program string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, windowsQuoteWord(program))
	for _, a := range args {
		words = append(words, windowsQuoteWord(a))
	}
	return strings.Join(words, " ")
}
