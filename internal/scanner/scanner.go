// Package scanner tokenizes Sif source text.
//
// It is a hand-written scanner with a single rune of lookahead tracked as
// position/readPosition, plus the bracket-depth newline suppression and
// string-interpolation re-entry that Sif's grammar needs.
package scanner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/token"
)

// Scanner produces a token at a time from a reader.Reader's buffer. The
// parser mutates IgnoreNewLines and flips interpolation mode via
// ResumeInterpolation as it enters/leaves parens and string interpolations.
type Scanner struct {
	r reader.Reader

	src          []byte
	position     int
	readPosition int
	ch           rune

	line   int
	column int

	// IgnoreNewLines counts open ( [ { — while > 0, newlines are whitespace.
	// It is exported because the parser pushes/pops it around bracketed
	// sub-expressions and interpolations.
	IgnoreNewLines int

	// interpolating is true while scanning the literal text of a string
	// (as opposed to the expression embedded in a "{...}" segment).
	// interpStack holds one quote byte per currently-open string, innermost
	// last, so a string literal nested inside another interpolation's
	// embedded expression resumes its own enclosing string correctly.
	interpolating bool
	interpStack   []byte

	// Comments collects the source range of every comment consumed, in
	// order. Comments never become tokens; tooling that wants them (an
	// annotator, a language server) reads this after scanning.
	Comments []token.Range
}

// New creates a scanner over the reader's current buffer. For a
// reader.REPLReader, Refresh must be called after each More() to pick up
// newly typed text.
func New(r reader.Reader) *Scanner {
	s := &Scanner{r: r, line: 1, column: 0}
	s.Refresh()
	return s
}

// Refresh re-reads the underlying reader's buffer; used after a REPLReader
// grows its input mid-scan.
func (s *Scanner) Refresh() {
	s.src = s.r.Bytes()
	if s.position == 0 && s.readPosition == 0 {
		s.readChar()
	}
}

func (s *Scanner) Name() string { return s.r.Name() }

func (s *Scanner) loc() token.Location {
	return token.Location{File: s.r.Name(), Line: s.line, Column: s.column, Offset: s.position}
}

func (s *Scanner) readChar() {
	if s.ch == '\n' {
		s.line++
		s.column = 0
	}
	if s.readPosition >= len(s.src) {
		s.ch = 0
		s.position = s.readPosition
		return
	}
	r, w := utf8.DecodeRune(s.src[s.readPosition:])
	s.ch = r
	s.position = s.readPosition
	s.readPosition += w
	s.column++
}

func (s *Scanner) peekChar() rune {
	if s.readPosition >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRune(s.src[s.readPosition:])
	return r
}

func (s *Scanner) atEnd() bool { return s.position >= len(s.src) && s.ch == 0 }

// NextToken returns the next token. It toggles automatically between normal
// scanning and "interpolating" mode as set by the parser.
func (s *Scanner) NextToken() token.Token {
	if s.interpolating {
		return s.scanInterpolatedStringBody()
	}
	return s.scanNormal()
}

func (s *Scanner) scanNormal() token.Token {
	s.skipIgnorable()

	start := s.loc()
	if s.atEnd() {
		return s.tok(token.EOF, "", start)
	}

	ch := s.ch

	switch {
	case ch == '\n':
		s.readChar()
		return s.tok(token.NEWLINE, "\n", start)
	case ch == ';':
		s.readChar()
		return s.tok(token.NEWLINE, ";", start)
	case ch == '"' || ch == '\'':
		return s.scanString(byte(ch), start)
	case unicode.IsDigit(ch):
		return s.scanNumber(start)
	case isIdentStart(ch):
		return s.scanWord(start)
	default:
		return s.scanPunctuation(start)
	}
}

// skipIgnorable consumes spaces/tabs/CR, suppressed newlines, a trailing
// backslash-newline continuation, and comments.
func (s *Scanner) skipIgnorable() {
	for {
		switch {
		case s.ch == ' ' || s.ch == '\t' || s.ch == '\r':
			s.readChar()
		case s.ch == '\\' && s.peekChar() == '\n':
			s.readChar()
			s.readChar()
		case s.ch == '\n' && s.IgnoreNewLines > 0:
			s.readChar()
		case s.ch == '#':
			start := s.loc()
			for s.ch != '\n' && !s.atEnd() {
				s.readChar()
			}
			s.Comments = append(s.Comments, token.Range{Start: start, End: s.loc()})
		case s.ch == '-' && s.peekChar() == '-':
			// A bare "--" (not preceded by '(', which scanPunctuation
			// handles as a nestable block comment) is a line comment.
			start := s.loc()
			for s.ch != '\n' && !s.atEnd() {
				s.readChar()
			}
			s.Comments = append(s.Comments, token.Range{Start: start, End: s.loc()})
		default:
			return
		}
	}
}

// scanBlockComment consumes a (-- ... --) comment, honoring nesting, after
// the opening "(--" has already been consumed.
func (s *Scanner) scanBlockComment() {
	depth := 1
	for depth > 0 && !s.atEnd() {
		if s.ch == '(' && s.peekChar() == '-' {
			save := s.snapshot()
			s.readChar()
			if s.ch == '-' && s.peekChar() == '-' {
				s.readChar()
				s.readChar()
				depth++
				continue
			}
			s.restore(save)
			s.readChar()
			continue
		}
		if s.ch == '-' && s.peekChar() == '-' {
			s.readChar()
			s.readChar()
			if s.ch == ')' {
				s.readChar()
				depth--
				continue
			}
			continue
		}
		s.readChar()
	}
}

func (s *Scanner) tok(tt token.Type, lexeme string, start token.Location) token.Token {
	return token.Token{Type: tt, Lexeme: lexeme, Literal: lexeme, Range: token.Range{Start: start, End: s.loc()}}
}

func (s *Scanner) errTok(msg string, start token.Location) token.Token {
	return token.Token{Type: token.ERROR, Lexeme: msg, Literal: msg, Range: token.Range{Start: start, End: s.loc()}}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func (s *Scanner) scanWord(start token.Location) token.Token {
	var sb strings.Builder
	for isIdentPart(s.ch) {
		sb.WriteRune(s.ch)
		s.readChar()
	}
	text := sb.String()
	lower := strings.ToLower(text)
	if kw, ok := token.Keywords[lower]; ok {
		if kw == token.BOOL {
			return s.tok(token.BOOL, text, start)
		}
		return s.tok(kw, text, start)
	}
	return s.tok(token.WORD, text, start)
}

// scanNumber handles ints and floats, disambiguating "1...5" (range) from
// "1.5" (float): a '.' only starts a fractional part if it is not followed
// by a second '.'.
func (s *Scanner) scanNumber(start token.Location) token.Token {
	var sb strings.Builder
	for unicode.IsDigit(s.ch) {
		sb.WriteRune(s.ch)
		s.readChar()
	}
	isFloat := false
	if s.ch == '.' && s.peekChar() != '.' && unicode.IsDigit(s.peekChar()) {
		isFloat = true
		sb.WriteRune(s.ch)
		s.readChar()
		for unicode.IsDigit(s.ch) {
			sb.WriteRune(s.ch)
			s.readChar()
		}
	}
	text := sb.String()
	if isFloat {
		return s.tok(token.FLOAT, text, start)
	}
	return s.tok(token.INT, text, start)
}

// scanString scans a quoted string literal, entering interpolation mode
// instead of closing the token if a '{' is seen, producing an
// OpenInterpolation token up to (not including) the '{'.
func (s *Scanner) scanString(quote byte, start token.Location) token.Token {
	s.readChar() // consume opening quote
	var sb strings.Builder
	for {
		if s.atEnd() {
			return s.errTok("unterminated string literal", start)
		}
		if byte(s.ch) == quote {
			s.readChar()
			return s.tok(token.STRING, sb.String(), start)
		}
		if s.ch == '{' {
			s.readChar()
			s.interpStack = append(s.interpStack, quote)
			// interpolating stays false: the next token scanned is the
			// embedded expression, in normal mode.
			return token.Token{Type: token.OPEN_INTERPOLATION, Lexeme: sb.String(), Literal: sb.String(),
				Range: token.Range{Start: start, End: s.loc()}}
		}
		if s.ch == '\\' {
			s.readChar()
			esc, ok := decodeEscape(s.ch)
			if !ok {
				return s.errTok(fmt.Sprintf("invalid escape sequence '\\%c'", s.ch), start)
			}
			sb.WriteRune(esc)
			s.readChar()
			continue
		}
		sb.WriteRune(s.ch)
		s.readChar()
	}
}

func decodeEscape(ch rune) (rune, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	case '{':
		return '{', true
	case '}':
		return '}', true
	default:
		return 0, false
	}
}

// scanInterpolatedStringBody is called while s.interpolating is true: it
// resumes scanning the string body after the parser has compiled the
// embedded expression, stopping at the next '{' (Interpolation) or the
// closing quote (ClosedInterpolation).
func (s *Scanner) scanInterpolatedStringBody() token.Token {
	start := s.loc()
	terminal := s.interpStack[len(s.interpStack)-1]
	var sb strings.Builder
	for {
		if s.atEnd() {
			return s.errTok("unterminated string interpolation", start)
		}
		if byte(s.ch) == terminal {
			s.readChar()
			s.interpolating = false
			s.interpStack = s.interpStack[:len(s.interpStack)-1]
			return token.Token{Type: token.CLOSED_INTERPOLATION, Lexeme: sb.String(), Literal: sb.String(),
				Range: token.Range{Start: start, End: s.loc()}}
		}
		if s.ch == '{' {
			s.readChar()
			// The string literal continues after a later '}', but the next
			// token scanned now is a fresh embedded expression.
			s.interpolating = false
			return token.Token{Type: token.INTERPOLATION, Lexeme: sb.String(), Literal: sb.String(),
				Range: token.Range{Start: start, End: s.loc()}}
		}
		if s.ch == '\\' {
			s.readChar()
			esc, ok := decodeEscape(s.ch)
			if !ok {
				return s.errTok(fmt.Sprintf("invalid escape sequence '\\%c'", s.ch), start)
			}
			sb.WriteRune(esc)
			s.readChar()
			continue
		}
		sb.WriteRune(s.ch)
		s.readChar()
	}
}

// ResumeInterpolation tells the scanner that the parser has finished the
// embedded expression following an OPEN_INTERPOLATION/INTERPOLATION token
// (consuming its closing '}') and the next token should resume scanning the
// enclosing string's literal text. The terminal quote was recorded when the
// string was opened, so no argument is needed even for nested interpolated
// strings.
func (s *Scanner) ResumeInterpolation() { s.interpolating = true }

// Interpolating reports whether the scanner is currently inside at least
// one open string literal (i.e. interpStack is non-empty), used by the
// parser to decide whether a bare '}' closes an embedded expression.
func (s *Scanner) Interpolating() bool { return len(s.interpStack) > 0 }

func (s *Scanner) scanPunctuation(start token.Location) token.Token {
	ch := s.ch
	two := func(next rune, tt token.Type, lexeme string) (token.Token, bool) {
		if s.peekChar() == next {
			s.readChar()
			s.readChar()
			return s.tok(tt, lexeme, start), true
		}
		return token.Token{}, false
	}

	switch ch {
	case '(':
		if s.peekChar() == '-' {
			// tentatively a block comment; only consume as one if the run is
			// "(--"; otherwise it's just '(' followed by a '-'.
			save := s.snapshot()
			s.readChar() // '-'
			if s.ch == '-' && s.peekChar() == '-' {
				s.readChar()
				s.readChar()
				s.scanBlockComment()
				s.Comments = append(s.Comments, token.Range{Start: start, End: s.loc()})
				s.skipIgnorable()
				return s.scanNormal()
			}
			s.restore(save)
		}
		s.readChar()
		s.IgnoreNewLines++
		return s.tok(token.LPAREN, "(", start)
	case ')':
		s.readChar()
		if s.IgnoreNewLines > 0 {
			s.IgnoreNewLines--
		}
		return s.tok(token.RPAREN, ")", start)
	case '[':
		s.readChar()
		s.IgnoreNewLines++
		return s.tok(token.LBRACKET, "[", start)
	case ']':
		s.readChar()
		if s.IgnoreNewLines > 0 {
			s.IgnoreNewLines--
		}
		return s.tok(token.RBRACKET, "]", start)
	case '{':
		s.readChar()
		s.IgnoreNewLines++
		return s.tok(token.LBRACE, "{", start)
	case '}':
		s.readChar()
		if s.IgnoreNewLines > 0 {
			s.IgnoreNewLines--
		}
		return s.tok(token.RBRACE, "}", start)
	case ',':
		s.readChar()
		return s.tok(token.COMMA, ",", start)
	case ':':
		s.readChar()
		return s.tok(token.COLON, ":", start)
	case '+':
		s.readChar()
		return s.tok(token.PLUS, "+", start)
	case '-':
		if t, ok := two('>', token.ARROW, "->"); ok {
			return t
		}
		s.readChar()
		return s.tok(token.MINUS, "-", start)
	case '*':
		s.readChar()
		return s.tok(token.STAR, "*", start)
	case '/':
		s.readChar()
		return s.tok(token.SLASH, "/", start)
	case '%':
		s.readChar()
		return s.tok(token.PERCENT, "%", start)
	case '^':
		s.readChar()
		return s.tok(token.CARET, "^", start)
	case '=':
		if t, ok := two('=', token.EQUAL, "=="); ok {
			return t
		}
		s.readChar()
		return s.tok(token.ASSIGN, "=", start)
	case '!':
		if t, ok := two('=', token.NOT_EQUAL, "!="); ok {
			return t
		}
		s.readChar()
		return s.tok(token.BANG, "!", start)
	case '<':
		if t, ok := two('=', token.LESS_EQUAL, "<="); ok {
			return t
		}
		s.readChar()
		return s.tok(token.LESS, "<", start)
	case '>':
		if t, ok := two('=', token.GREATER_EQUAL, ">="); ok {
			return t
		}
		s.readChar()
		return s.tok(token.GREATER, ">", start)
	case '.':
		if s.peekChar() == '.' {
			s.readChar() // second '.'
			s.readChar()
			if s.ch == '<' {
				s.readChar()
				return s.tok(token.RANGE_HALF, "..<", start)
			}
			if s.ch == '.' {
				s.readChar()
				return s.tok(token.RANGE_OPEN, "...", start)
			}
			return s.errTok("expected '.' or '<' to complete range operator", start)
		}
		s.readChar()
		return s.errTok("unexpected character '.'", start)
	default:
		r := ch
		s.readChar()
		return s.errTok(fmt.Sprintf("unexpected character %q", r), start)
	}
}

type snapshot struct {
	position, readPosition, column, line int
	ch                                    rune
}

func (s *Scanner) snapshot() snapshot {
	return snapshot{s.position, s.readPosition, s.column, s.line, s.ch}
}

func (s *Scanner) restore(sp snapshot) {
	s.position, s.readPosition, s.column, s.line, s.ch = sp.position, sp.readPosition, sp.column, sp.line, sp.ch
}
