package token

import (
	"strings"
	"unicode"
)

type Type int

const (
	LParen Type = iota
	RParen
	Ident
	String
	Number
	Illegal
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Number:
		return "number"
	case Illegal:
		return "illegal character"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

// IsName reports whether the token is a $-prefixed symbolic name.
func (t Token) IsName() bool {
	return t.Type == Ident && strings.HasPrefix(t.Value, "$")
}

// Tokenize splits WAT source into tokens, dropping whitespace and comments.
// Characters that cannot start any token are emitted as Illegal so the
// parser reports them with a line number.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		if r == ';' && i+1 < len(runes) && runes[i+1] == ';' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
			continue
		}

		if r == '(' {
			if i+1 < len(runes) && runes[i+1] == ';' {
				i = skipBlockComment(runes, i, &line)
				continue
			}
			tokens = append(tokens, Token{"(", LParen, line})
			continue
		}

		if r == ')' {
			tokens = append(tokens, Token{")", RParen, line})
			continue
		}

		if r == '"' {
			start := i + 1
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(runes) {
				tokens = append(tokens, Token{"unterminated string", Illegal, line})
				break
			}
			tokens = append(tokens, Token{string(runes[start:i]), String, line})
			continue
		}

		if r == '-' || r == '+' || unicode.IsDigit(r) {
			start := i
			// signed inf and nan are keywords, not numbers
			if (r == '-' || r == '+') && i+3 <= len(runes) {
				rest := string(runes[i+1 : min(i+4, len(runes))])
				if rest == "inf" || rest == "nan" {
					i++
					for i < len(runes) && (unicode.IsLetter(runes[i]) || runes[i] == ':' || unicode.IsDigit(runes[i])) {
						i++
					}
					tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
					i--
					continue
				}
			}
			if r == '-' || r == '+' {
				i++
			}
			for i < len(runes) && isNumberRune(runes, i, start) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		if r == '$' || unicode.IsLetter(r) || r == '_' || r == '.' {
			start := i
			for i < len(runes) {
				c := runes[i]
				if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == '$' || c == '-' || c == ':' || c == '=' {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		tokens = append(tokens, Token{string(r), Illegal, line})
	}

	return tokens
}

func skipBlockComment(runes []rune, i int, line *int) int {
	depth := 1
	i += 2
	for i < len(runes) && depth > 0 {
		switch {
		case runes[i] == '(' && i+1 < len(runes) && runes[i+1] == ';':
			depth++
			i++
		case runes[i] == ';' && i+1 < len(runes) && runes[i+1] == ')':
			depth--
			i++
		case runes[i] == '\n':
			*line++
		}
		i++
	}
	return i - 1
}

func isNumberRune(runes []rune, i, start int) bool {
	c := runes[i]
	if unicode.IsDigit(c) || c == '.' || c == '_' || c == 'x' || c == 'X' || c == 'p' || c == 'P' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
		return true
	}
	if (c == '-' || c == '+') && i > start {
		prev := runes[i-1]
		return prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P'
	}
	return false
}
