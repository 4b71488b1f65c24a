package script

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokIdent
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string // identifier name, string contents, or punctuation
	val  int    // tokInt only
	pos  int    // byte offset in the script
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of script"
	case tokInt:
		return strconv.Itoa(t.val)
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lex splits a script into tokens. The statement separator ';' is emitted as
// punctuation so the parser can track statement boundaries.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			n, err := strconv.Atoi(src[start:i])
			if err != nil {
				return nil, &ParseError{Pos: start, Msg: fmt.Sprintf("bad integer %q", src[start:i])}
			}
			toks = append(toks, token{kind: tokInt, val: n, text: src[start:i], pos: start})

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})

		case c == '\'' || c == '"':
			start := i
			i++
			for i < len(src) && src[i] != c {
				i++
			}
			if i >= len(src) {
				return nil, &ParseError{Pos: start, Msg: "unterminated string"}
			}
			toks = append(toks, token{kind: tokString, text: src[start+1 : i], pos: start})
			i++

		case (c == '+' || c == '-') && i+1 < len(src) && src[i+1] == '=':
			toks = append(toks, token{kind: tokPunct, text: src[i : i+2], pos: i})
			i += 2

		case isPunct(c):
			toks = append(toks, token{kind: tokPunct, text: string(c), pos: i})
			i++

		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isPunct(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '%', '(', ')', '[', ']', ',', '=', ';':
		return true
	}
	return false
}
