package lexer

import (
	"errors"
	"math"
	"strconv"
)

// Fatal lexical errors, surfaced verbatim by [ByteLexer] methods. A
// caller (the cif package's dispatcher) adds line-number and cell-name
// context when wrapping these into its own error type.
var (
	ErrUnexpectedEOF     = errors.New("unexpected end of file")
	ErrExpectedDigit     = errors.New("expected a digit")
	ErrIntegerOverflow   = errors.New("integer overflow")
	ErrMissingTerminator = errors.New("missing ';' terminator")
)

// byte classes used to implement CIF's "a blank is anything that is not
// a command character" rule.
const (
	clsUpper = 1 << iota
	clsDigit
	clsPunct // one of "-();"
	clsLower
	clsUnderscore
)

var classOf [256]byte

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		classOf[c] |= clsUpper
	}
	for c := 'a'; c <= 'z'; c++ {
		classOf[c] |= clsLower
	}
	for c := '0'; c <= '9'; c++ {
		classOf[c] |= clsDigit
	}
	for _, c := range []byte("-();") {
		classOf[c] |= clsPunct
	}
	classOf['_'] |= clsUnderscore
}

// isBlank reports whether c is a blank: any byte that is not an
// upper-case letter, not a digit, and not one of "- ( ) ;".
func isBlank(c byte) bool {
	return classOf[c]&(clsUpper|clsDigit|clsPunct) == 0
}

// isIntLead implements the "separator before an integer" rule: a
// separator is any byte that is not a digit and not one of "- ( ) ;".
func isIntLead(c byte) bool {
	return classOf[c]&(clsDigit|clsPunct) != 0
}

func isNameByte(c byte) bool {
	return classOf[c]&(clsUpper|clsLower|clsDigit|clsUnderscore) != 0
}

// ByteLexer implements the CIF lexical layer on top of a [Stream]:
// blank/separator/comment skipping and the handful of token readers
// the command dispatcher needs (integers, names, quoted or bare
// strings, doubles).
type ByteLexer struct {
	s Stream
}

// New returns a ByteLexer reading from s.
func New(s Stream) *ByteLexer {
	return &ByteLexer{s: s}
}

// LineNumber reports the underlying stream's current line number.
func (lx *ByteLexer) LineNumber() int {
	return lx.s.LineNumber()
}

// GetChar consumes and returns the next byte.
func (lx *ByteLexer) GetChar() (byte, error) {
	b, err := lx.s.GetChar()
	if err != nil {
		return 0, ErrUnexpectedEOF
	}
	return b, nil
}

// PeekChar returns the next byte without consuming it, and whether one
// is available.
func (lx *ByteLexer) PeekChar() (byte, bool) {
	return lx.s.PeekChar()
}

// AtEnd reports whether the stream is exhausted.
func (lx *ByteLexer) AtEnd() bool {
	return lx.s.AtEnd()
}

// SkipBlanks advances past a maximal run of blank bytes.
func (lx *ByteLexer) SkipBlanks() {
	for {
		b, ok := lx.s.PeekChar()
		if !ok || !isBlank(b) {
			return
		}
		lx.s.GetChar()
	}
}

// SkipSep advances past a maximal run of integer separators.
func (lx *ByteLexer) SkipSep() {
	for {
		b, ok := lx.s.PeekChar()
		if !ok || isIntLead(b) {
			return
		}
		lx.s.GetChar()
	}
}

// SkipComment advances past matched, nestable parentheses, assuming the
// opening '(' has already been consumed by the caller.
func (lx *ByteLexer) SkipComment() error {
	depth := 1
	for depth > 0 {
		b, err := lx.GetChar()
		if err != nil {
			return err
		}
		switch b {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return nil
}

// ReadInteger skips separators, then parses one or more decimal digits.
// It returns [ErrIntegerOverflow] if the value would exceed the 32-bit
// signed maximum, but still consumes the remaining digits first so the
// caller can recover and resynchronize on the following byte.
func (lx *ByteLexer) ReadInteger() (int32, error) {
	lx.SkipSep()

	b, ok := lx.s.PeekChar()
	if !ok || classOf[b]&clsDigit == 0 {
		return 0, ErrExpectedDigit
	}

	var acc int64
	overflowed := false
	for {
		b, ok := lx.s.PeekChar()
		if !ok || classOf[b]&clsDigit == 0 {
			break
		}
		lx.s.GetChar()
		acc = acc*10 + int64(b-'0')
		if acc > math.MaxInt32 {
			overflowed = true
		}
	}
	if overflowed {
		return 0, ErrIntegerOverflow
	}
	return int32(acc), nil
}

// ReadSignedInteger skips separators, consumes an optional leading '-',
// then reads the integer body.
func (lx *ByteLexer) ReadSignedInteger() (int32, error) {
	lx.SkipSep()

	neg := false
	if b, ok := lx.s.PeekChar(); ok && b == '-' {
		lx.s.GetChar()
		neg = true
	}
	n, err := lx.ReadInteger()
	if err != nil {
		return 0, err
	}
	if neg {
		return -n, nil
	}
	return n, nil
}

// ReadName skips blanks, then consumes a maximal run of upper/lower-case
// letters, digits, and underscores. Officially only upper-case letters
// and digits are part of a CIF name; lower-case letters and underscores
// are accepted here as a common extension. An empty result is legal and
// means "no name present".
func (lx *ByteLexer) ReadName() string {
	lx.SkipBlanks()
	var buf []byte
	for {
		b, ok := lx.s.PeekChar()
		if !ok || !isNameByte(b) {
			break
		}
		lx.s.GetChar()
		buf = append(buf, b)
	}
	return string(buf)
}

// ReadString skips ordinary whitespace, then reads a quoted or bare
// string. Quoted strings are delimited by a matching '"' or '\'' with
// '\' as a one-byte escape; bare strings run until whitespace or ';'.
func (lx *ByteLexer) ReadString() (string, error) {
	for {
		b, ok := lx.s.PeekChar()
		if !ok || b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			break
		}
		lx.s.Skip()
	}

	b, ok := lx.s.PeekChar()
	if !ok {
		return "", ErrUnexpectedEOF
	}

	if b == '"' || b == '\'' {
		quote := b
		lx.s.GetChar()
		var buf []byte
		for {
			c, err := lx.GetChar()
			if err != nil {
				return "", err
			}
			if c == '\\' {
				c, err = lx.GetChar()
				if err != nil {
					return "", err
				}
				buf = append(buf, c)
				continue
			}
			if c == quote {
				return string(buf), nil
			}
			buf = append(buf, c)
		}
	}

	var buf []byte
	for {
		c, ok := lx.s.PeekChar()
		if !ok || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' {
			break
		}
		lx.s.GetChar()
		buf = append(buf, c)
	}
	return string(buf), nil
}

// ReadDouble consumes a maximal run of digits, '.', '-', 'e' and 'E',
// and parses the result as an IEEE double. An unparseable run yields
// 0.0 silently, matching the original reader's permissive behavior.
func (lx *ByteLexer) ReadDouble() float64 {
	lx.SkipSep()

	var buf []byte
	for {
		b, ok := lx.s.PeekChar()
		if !ok {
			break
		}
		switch {
		case classOf[b]&clsDigit != 0, b == '.', b == '-', b == 'e', b == 'E':
			lx.s.GetChar()
			buf = append(buf, b)
		default:
			goto done
		}
	}
done:
	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0.0
	}
	return v
}

// TestSemi skips blanks and reports whether the current byte is ';',
// without consuming it.
func (lx *ByteLexer) TestSemi() bool {
	lx.SkipBlanks()
	b, ok := lx.s.PeekChar()
	return ok && b == ';'
}

// ExpectSemi requires and consumes a ';', returning
// [ErrMissingTerminator] otherwise.
func (lx *ByteLexer) ExpectSemi() error {
	lx.SkipBlanks()
	b, ok := lx.s.PeekChar()
	if !ok || b != ';' {
		return ErrMissingTerminator
	}
	lx.s.GetChar()
	return nil
}

// SkipToEnd advances until a ';' has been consumed, or the stream ends.
// Used for error recovery and for commands whose tail is intentionally
// ignored.
func (lx *ByteLexer) SkipToEnd() {
	for {
		b, err := lx.s.GetChar()
		if err != nil || b == ';' {
			return
		}
	}
}
