package lexer

import (
	"fmt"
	"strings"
)

// Cursor walks a flat token slice (the top-level stream, or the captured
// contents of a Group) with unlimited lookahead via Peek/PeekN. It is the
// type pkg/parser holds and pkg/atoi later recovers from an ast.RawTokens
// value when interpreting a macro call.
type Cursor struct {
	toks []Token
	pos  int
}

// NewCursor wraps a token slice for sequential consumption.
func NewCursor(toks []Token) *Cursor {
	return &Cursor{toks: toks}
}

// Peek returns the current token, or an EOF token if the stream is spent.
func (c *Cursor) Peek() Token {
	return c.PeekN(0)
}

// PeekN returns the token n positions ahead of the cursor, or an EOF token
// past the end.
func (c *Cursor) PeekN(n int) Token {
	i := c.pos + n
	if i < 0 || i >= len(c.toks) {
		line, col := 0, 0
		if len(c.toks) > 0 {
			last := c.toks[len(c.toks)-1]
			line, col = last.Line, last.Column
		}
		return Token{Kind: KindEOF, Line: line, Column: col}
	}
	return c.toks[i]
}

// Step advances the cursor by n tokens and returns the token that was at
// the cursor before advancing.
func (c *Cursor) Step(n int) Token {
	t := c.Peek()
	c.pos += n
	return t
}

// Eof reports whether the cursor has consumed every token.
func (c *Cursor) Eof() bool {
	return c.pos >= len(c.toks)
}

// Remaining returns the unconsumed tail of the stream, for capturing a
// macro call's raw argument tokens.
func (c *Cursor) Remaining() []Token {
	return c.toks[c.pos:]
}

// PrintErr renders a window of up to 10 tokens on either side of the
// cursor's current position with `>>>>>> <<<<<<` markers bracketing the
// offending token, per spec.md §4.L.
func (c *Cursor) PrintErr(message string) string {
	const window = 10
	lo := c.pos - window
	if lo < 0 {
		lo = 0
	}
	hi := c.pos + window + 1
	if hi > len(c.toks) {
		hi = len(c.toks)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", message)
	for i := lo; i < hi; i++ {
		if i == c.pos {
			fmt.Fprint(&b, ">>>>>> ")
		}
		fmt.Fprintf(&b, "%s", c.toks[i].String())
		if i == c.pos {
			fmt.Fprint(&b, " <<<<<<")
		}
		b.WriteByte(' ')
	}
	if c.pos >= len(c.toks) {
		b.WriteString(">>>>>> <eof> <<<<<<")
	}
	return b.String()
}
