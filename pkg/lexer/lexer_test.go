package lexer

import "testing"

func flatKinds(t *testing.T, toks []Token) []Kind {
	t.Helper()
	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestTokenizeIdentsAndPunct(t *testing.T) {
	toks, err := Tokenize(`let a = -6;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{KindIdent, KindIdent, KindPunct, KindPunct, KindInt, KindPunct}
	got := flatKinds(t, toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), toks)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d] kind = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[4].Int != 6 {
		t.Fatalf("integer literal = %d, want 6", toks[4].Int)
	}
	if toks[3].Punct != PuncMinus {
		t.Fatalf("punct = %v, want PuncMinus (the unary sign is a parser construct, not a lexer one)", toks[3].Punct)
	}
}

func TestTokenizeLongestMatchPunct(t *testing.T) {
	toks, err := Tokenize(`>< .. => == != <= >= && ||`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Punct{PuncSwap, PuncRange, PuncFatArrow, PuncEqEq, PuncNotEq, PuncLtEq, PuncGtEq, PuncAndAnd, PuncOrOr}
	if len(toks) != len(want) {
		t.Fatalf("token count = %d, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Punct != w {
			t.Fatalf("token[%d] = %v, want %v", i, toks[i].Punct, w)
		}
	}
}

func TestTokenizeGroupsNest(t *testing.T) {
	toks, err := Tokenize(`fn f(a, b) { a + b }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parenGroup, braceGroup *Group
	for _, tok := range toks {
		if tok.Kind == KindGroup && tok.Group.Delimiter == DelimParen {
			parenGroup = tok.Group
		}
		if tok.Kind == KindGroup && tok.Group.Delimiter == DelimBrace {
			braceGroup = tok.Group
		}
	}
	if parenGroup == nil || len(parenGroup.Content) != 3 {
		t.Fatalf("paren group = %+v, want 3 child tokens (a, b)", parenGroup)
	}
	if braceGroup == nil || len(braceGroup.Content) != 3 {
		t.Fatalf("brace group = %+v, want 3 child tokens (a + b)", braceGroup)
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"hello \"world\" \\ end"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != KindStr {
		t.Fatalf("toks = %+v, want a single string token", toks)
	}
	want := `hello "world" \ end`
	if toks[0].Str != want {
		t.Fatalf("string = %q, want %q", toks[0].Str, want)
	}
}

func TestTokenizeStringRejectsNewline(t *testing.T) {
	_, err := Tokenize("\"line one\nline two\"")
	if err == nil {
		t.Fatal("expected an error for a newline inside a string literal")
	}
}

func TestTokenizeSkipsComments(t *testing.T) {
	toks, err := Tokenize("a // line comment\n/* block\ncomment */ b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 2 || toks[0].Ident != "a" || toks[1].Ident != "b" {
		t.Fatalf("toks = %+v, want [a, b]", toks)
	}
}

func TestTokenizeUnmatchedDelimiter(t *testing.T) {
	if _, err := Tokenize("(a, b"); err == nil {
		t.Fatal("expected an error for an unclosed delimiter")
	}
	if _, err := Tokenize("a)"); err == nil {
		t.Fatal("expected an error for a stray closing delimiter")
	}
}

func TestTokenizeIntegerOverflow(t *testing.T) {
	if _, err := Tokenize("9999999999"); err == nil {
		t.Fatal("expected an error for an integer literal overflowing int32")
	}
}

func TestCursorPeekAndStep(t *testing.T) {
	toks, err := Tokenize(`a b c`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := NewCursor(toks)
	if c.Peek().Ident != "a" {
		t.Fatalf("Peek() = %v, want a", c.Peek())
	}
	if c.PeekN(1).Ident != "b" {
		t.Fatalf("PeekN(1) = %v, want b", c.PeekN(1))
	}
	first := c.Step(1)
	if first.Ident != "a" {
		t.Fatalf("Step(1) returned %v, want a", first)
	}
	if c.Peek().Ident != "b" {
		t.Fatalf("after Step(1), Peek() = %v, want b", c.Peek())
	}
	c.Step(2)
	if !c.Eof() {
		t.Fatal("expected cursor to be at EOF")
	}
	if c.Peek().Kind != KindEOF {
		t.Fatalf("Peek() at EOF = %v, want KindEOF", c.Peek())
	}
}
