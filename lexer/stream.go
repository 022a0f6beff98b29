// Package lexer implements the byte-level tokenizer for CIF (Caltech
// Intermediate Form) layout files.
//
// CIF has an unusual definition of whitespace: a "blank" is any byte
// that is *not* one of the command characters, rather than a fixed set
// of whitespace bytes. [ByteLexer] implements the blank/separator rules
// and the primitive token readers (integers, names, strings, doubles,
// comments) on top of a [Stream].
package lexer

import "io"

// Stream is the byte-level input abstraction a [ByteLexer] consumes. It
// carries the current line number for diagnostics, so a reader built on
// top of a Stream can report fatal errors with useful context.
type Stream interface {
	// GetChar consumes and returns the next byte. It returns io.EOF if
	// the stream is exhausted.
	GetChar() (byte, error)

	// PeekChar returns the next byte without consuming it. The second
	// return value is false at end of stream.
	PeekChar() (byte, bool)

	// AtEnd reports whether the stream has no more bytes.
	AtEnd() bool

	// Skip advances past a single ordinary whitespace byte if the
	// current byte is one; it is a no-op otherwise. Used by readers
	// that want "normal" whitespace skipping (e.g. before a string)
	// rather than CIF's blank-is-anything-but-a-command-byte rule.
	Skip()

	// LineNumber returns the current 1-based line number.
	LineNumber() int
}

// ByteStream is the default [Stream] implementation, buffering reads
// from an io.Reader.
type ByteStream struct {
	src       io.Reader
	buf       []byte
	pos, used int
	srcErr    error
	line      int
	crSeen    bool
}

// NewByteStream returns a Stream reading from r.
func NewByteStream(r io.Reader) *ByteStream {
	return &ByteStream{
		src:  r,
		buf:  make([]byte, 4096),
		line: 1,
	}
}

func (s *ByteStream) refill() error {
	if s.srcErr != nil {
		return s.srcErr
	}
	s.used = copy(s.buf, s.buf[s.pos:s.used])
	s.pos = 0

	n, err := s.src.Read(s.buf[s.used:])
	s.used += n
	s.srcErr = err
	if n == 0 {
		return err
	}
	return nil
}

func (s *ByteStream) peek() (byte, error) {
	for s.pos >= s.used {
		if err := s.refill(); err != nil {
			return 0, err
		}
	}
	return s.buf[s.pos], nil
}

// GetChar implements Stream.
func (s *ByteStream) GetChar() (byte, error) {
	b, err := s.peek()
	if err != nil {
		return 0, err
	}
	s.pos++

	if s.crSeen && b == '\n' {
		// CRLF counts as a single line break.
	} else if b == '\n' || b == '\r' {
		s.line++
	}
	s.crSeen = b == '\r'

	return b, nil
}

// PeekChar implements Stream.
func (s *ByteStream) PeekChar() (byte, bool) {
	b, err := s.peek()
	if err != nil {
		return 0, false
	}
	return b, true
}

// AtEnd implements Stream.
func (s *ByteStream) AtEnd() bool {
	_, err := s.peek()
	return err != nil
}

// Skip implements Stream.
func (s *ByteStream) Skip() {
	b, ok := s.PeekChar()
	if !ok {
		return
	}
	switch b {
	case ' ', '\t', '\n', '\r', '\f', 0:
		s.GetChar()
	}
}

// LineNumber implements Stream.
func (s *ByteStream) LineNumber() int {
	return s.line
}
