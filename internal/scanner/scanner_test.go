package scanner

import (
	"testing"

	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/token"
)

func scanAll(t *testing.T, source string) []token.Token {
	t.Helper()
	s := New(reader.NewStringReader("test.sif", source))
	var out []token.Token
	for {
		tok := s.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
		if len(out) > 1000 {
			t.Fatalf("scanner did not terminate on %q", source)
		}
	}
}

// kindsOf drops the trailing EOF for terser expectations.
func kindsOf(tokens []token.Token) []token.Type {
	kinds := make([]token.Type, 0, len(tokens)-1)
	for _, tok := range tokens[:len(tokens)-1] {
		kinds = append(kinds, tok.Type)
	}
	return kinds
}

func TestLiteralRoundTrip(t *testing.T) {
	tests := []struct {
		source  string
		kind    token.Type
		literal string
	}{
		{`42`, token.INT, "42"},
		{`0`, token.INT, "0"},
		{`3.14`, token.FLOAT, "3.14"},
		{`0.5`, token.FLOAT, "0.5"},
		{`true`, token.BOOL, "true"},
		{`false`, token.BOOL, "false"},
		{`"hello"`, token.STRING, "hello"},
		{`'hello'`, token.STRING, "hello"},
		{`"a\nb"`, token.STRING, "a\nb"},
		{`"tab\there"`, token.STRING, "tab\there"},
		{`"quote\""`, token.STRING, `quote"`},
		{`"brace\{"`, token.STRING, "brace{"},
		{`""`, token.STRING, ""},
	}
	for _, tt := range tests {
		tokens := scanAll(t, tt.source)
		if len(tokens) != 2 {
			t.Errorf("%q: want exactly one token before EOF, got %d", tt.source, len(tokens)-1)
			continue
		}
		if tokens[0].Type != tt.kind {
			t.Errorf("%q: kind = %v, want %v", tt.source, tokens[0].Type, tt.kind)
		}
		if tokens[0].Literal != tt.literal {
			t.Errorf("%q: literal = %q, want %q", tt.source, tokens[0].Literal, tt.literal)
		}
	}
}

func TestRangeDotsDoNotEatFloats(t *testing.T) {
	tokens := scanAll(t, "1...5")
	want := []token.Type{token.INT, token.RANGE_OPEN, token.INT}
	got := kindsOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("1...5: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("1...5: token %d = %v, want %v", i, got[i], want[i])
		}
	}

	tokens = scanAll(t, "1..<5")
	if tokens[1].Type != token.RANGE_HALF {
		t.Fatalf("1..<5: middle token = %v, want RANGE_HALF", tokens[1].Type)
	}

	tokens = scanAll(t, "1.5")
	if tokens[0].Type != token.FLOAT || tokens[0].Lexeme != "1.5" {
		t.Fatalf("1.5: got %v %q", tokens[0].Type, tokens[0].Lexeme)
	}
}

func TestKeywordsAndWords(t *testing.T) {
	tokens := scanAll(t, "if banana then end")
	want := []token.Type{token.IF, token.WORD, token.THEN, token.END}
	for i, k := range want {
		if tokens[i].Type != k {
			t.Fatalf("token %d = %v, want %v", i, tokens[i].Type, k)
		}
	}
	if tokens[1].Lexeme != "banana" {
		t.Fatalf("word lexeme = %q", tokens[1].Lexeme)
	}
}

func TestSemicolonIsNewline(t *testing.T) {
	tokens := scanAll(t, "1; 2")
	got := kindsOf(tokens)
	want := []token.Type{token.INT, token.NEWLINE, token.INT}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNewlineSuppressionInsideBrackets(t *testing.T) {
	tokens := scanAll(t, "[1,\n2]\n3")
	got := kindsOf(tokens)
	want := []token.Type{token.LBRACKET, token.INT, token.COMMA, token.INT, token.RBRACKET, token.NEWLINE, token.INT}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBackslashContinuation(t *testing.T) {
	tokens := scanAll(t, "1 \\\n2")
	got := kindsOf(tokens)
	if len(got) != 2 || got[0] != token.INT || got[1] != token.INT {
		t.Fatalf("got %v, want two INTs with no newline", got)
	}
}

func TestComments(t *testing.T) {
	for _, source := range []string{
		"# comment\n7",
		"-- comment\n7",
		"(-- block --) 7",
		"(-- outer (-- nested --) still outer --) 7",
	} {
		tokens := scanAll(t, source)
		var ints []token.Token
		for _, tok := range tokens {
			if tok.Type == token.INT {
				ints = append(ints, tok)
			}
			if tok.Type == token.ERROR {
				t.Fatalf("%q: unexpected error token %q", source, tok.Lexeme)
			}
		}
		if len(ints) != 1 || ints[0].Lexeme != "7" {
			t.Fatalf("%q: want a single INT 7, got %v", source, tokens)
		}
	}
}

func TestCommentRangesRecorded(t *testing.T) {
	s := New(reader.NewStringReader("test.sif", "1 # tail\n(-- block --) 2\n-- line\n"))
	for {
		if s.NextToken().Type == token.EOF {
			break
		}
	}
	if len(s.Comments) != 3 {
		t.Fatalf("recorded %d comment ranges, want 3: %v", len(s.Comments), s.Comments)
	}
	if s.Comments[0].Start.Line != 1 || s.Comments[1].Start.Line != 2 || s.Comments[2].Start.Line != 3 {
		t.Fatalf("comment lines = %v", s.Comments)
	}
}

func TestInterpolationTokens(t *testing.T) {
	s := New(reader.NewStringReader("test.sif", `"x{a}y{b}z"`))

	open := s.NextToken()
	if open.Type != token.OPEN_INTERPOLATION || open.Literal != "x" {
		t.Fatalf("open = %v %q", open.Type, open.Literal)
	}
	if got := s.NextToken(); got.Type != token.WORD || got.Lexeme != "a" {
		t.Fatalf("embedded = %v %q", got.Type, got.Lexeme)
	}
	if got := s.NextToken(); got.Type != token.RBRACE {
		t.Fatalf("want RBRACE, got %v", got.Type)
	}

	s.ResumeInterpolation()
	mid := s.NextToken()
	if mid.Type != token.INTERPOLATION || mid.Literal != "y" {
		t.Fatalf("mid = %v %q", mid.Type, mid.Literal)
	}
	if got := s.NextToken(); got.Type != token.WORD || got.Lexeme != "b" {
		t.Fatalf("embedded = %v %q", got.Type, got.Lexeme)
	}
	if got := s.NextToken(); got.Type != token.RBRACE {
		t.Fatalf("want RBRACE, got %v", got.Type)
	}

	s.ResumeInterpolation()
	closed := s.NextToken()
	if closed.Type != token.CLOSED_INTERPOLATION || closed.Literal != "z" {
		t.Fatalf("closed = %v %q", closed.Type, closed.Literal)
	}
	if s.Interpolating() {
		t.Fatal("scanner still thinks a string is open")
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []string{
		`"unterminated`,
		`"bad \q escape"`,
		"@",
		"1..2",
	}
	for _, source := range tests {
		tokens := scanAll(t, source)
		found := false
		for _, tok := range tokens {
			if tok.Type == token.ERROR {
				found = true
			}
		}
		if !found {
			t.Errorf("%q: expected an error token, got %v", source, tokens)
		}
	}
}

func TestLocations(t *testing.T) {
	tokens := scanAll(t, "a\n  b")
	if tokens[0].Range.Start.Line != 1 || tokens[0].Range.Start.Column != 1 {
		t.Fatalf("a at %v", tokens[0].Range.Start)
	}
	b := tokens[2]
	if b.Range.Start.Line != 2 || b.Range.Start.Column != 3 {
		t.Fatalf("b at line %d col %d, want 2:3", b.Range.Start.Line, b.Range.Start.Column)
	}
}
