// Package token defines the lexical tokens produced by the scanner.
package token

import "fmt"

// Type identifies the kind of a token.
type Type int

const (
	EOF Type = iota
	ERROR
	COMMENT
	NEWLINE

	WORD
	INT
	FLOAT
	BOOL
	STRING
	OPEN_INTERPOLATION
	INTERPOLATION
	CLOSED_INTERPOLATION

	// Punctuation
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	COLON
	SEMICOLON
	ARROW       // ->
	RANGE_OPEN  //...
	RANGE_HALF  //..<

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	CARET
	ASSIGN
	EQUAL
	NOT_EQUAL
	LESS
	LESS_EQUAL
	GREATER
	GREATER_EQUAL
	BANG

	// Reserved words
	IF
	THEN
	ELSE
	END
	FUNCTION
	REPEAT
	FOREVER
	WHILE
	UNTIL
	FOR
	IN
	EXIT
	NEXT
	RETURN
	SET
	TO
	GLOBAL
	LOCAL
	USE
	USING
	TRY
	AND
	OR
	NOT
	IS
	AN
	AS
	EMPTY
)

// Keywords maps the lower-cased spelling of a reserved word to its Type.
//
// Global/Local/Then/Else are never call vocabulary (IsWordLike rejects
// them), while the soft keywords IsWordLike accepts may appear as signature
// words; the table below is deliberately exhaustive so call parsing and the
// scanner agree on what counts as a keyword.
var Keywords = map[string]Type{
	"if":       IF,
	"then":     THEN,
	"else":     ELSE,
	"end":      END,
	"function": FUNCTION,
	"repeat":   REPEAT,
	"forever":  FOREVER,
	"while":    WHILE,
	"until":    UNTIL,
	"for":      FOR,
	"in":       IN,
	"exit":     EXIT,
	"next":     NEXT,
	"return":   RETURN,
	"set":      SET,
	"to":       TO,
	"global":   GLOBAL,
	"local":    LOCAL,
	"use":      USE,
	"using":    USING,
	"try":      TRY,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"is":       IS,
	"an":       AN,
	"as":       AS,
	"empty":    EMPTY,
	"true":     BOOL,
	"false":    BOOL,
}

// names used only for diagnostics/disassembly; not authoritative for lexing.
var names = map[Type]string{
	EOF: "EOF", ERROR: "ERROR", COMMENT: "COMMENT", NEWLINE: "NEWLINE",
	WORD: "WORD", INT: "INT", FLOAT: "FLOAT", BOOL: "BOOL", STRING: "STRING",
	OPEN_INTERPOLATION: "OPEN_INTERPOLATION", INTERPOLATION: "INTERPOLATION",
	CLOSED_INTERPOLATION: "CLOSED_INTERPOLATION",
	LPAREN:               "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	LBRACE: "{", RBRACE: "}", COMMA: ",", COLON: ":", SEMICOLON: ";",
	ARROW: "->", RANGE_OPEN: "...", RANGE_HALF: "..<",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", CARET: "^",
	ASSIGN: "=", EQUAL: "==", NOT_EQUAL: "!=", LESS: "<", LESS_EQUAL: "<=",
	GREATER: ">", GREATER_EQUAL: ">=", BANG: "!",
	IF: "if", THEN: "then", ELSE: "else", END: "end", FUNCTION: "function",
	REPEAT: "repeat", FOREVER: "forever", WHILE: "while", UNTIL: "until",
	FOR: "for", IN: "in", EXIT: "exit", NEXT: "next", RETURN: "return",
	SET: "set", TO: "to", GLOBAL: "global", LOCAL: "local", USE: "use",
	USING: "using", TRY: "try", AND: "and", OR: "or", NOT: "not", IS: "is",
	AN: "an", AS: "as", EMPTY: "empty",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Location is a single point in source: line/column are 1-based, offset is
// the 0-based byte offset into the buffer.
type Location struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Range spans from Start (inclusive) to End (exclusive).
type Range struct {
	Start Location
	End   Location
}

func (r Range) String() string { return r.Start.String() }

// Union returns the smallest Range containing both r and other.
func (r Range) Union(other Range) Range {
	out := r
	if other.Start.Offset < out.Start.Offset {
		out.Start = other.Start
	}
	if other.End.Offset > out.End.Offset {
		out.End = other.End
	}
	return out
}

// Token is a single lexical token with its decoded text and source range.
type Token struct {
	Type    Type
	Lexeme  string // raw source text
	Literal string // decoded value for strings; raw otherwise
	Range   Range
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Lexeme)
}

// IsWordLike reports whether the token can serve as a signature Word term,
// i.e. either a bare identifier or one of the "soft" keywords that the
// original grammar allows to double as call vocabulary.
func (t Token) IsWordLike() bool {
	switch t.Type {
	case WORD, END, TO, IN, AS, AN, IS, FOREVER:
		return true
	default:
		return false
	}
}
