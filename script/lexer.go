// Copyright 2025 The BI-System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package script

import (
	"errors"
	"fmt"
	"strings"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenKeyword    TokenType = iota // if, for, func, return, etc.
	TokenString                      // "...", `...`
	TokenComment                     // //, /* */
	TokenNumber                      // 123, 3.14
	TokenOperator                    // +, -, *, :=, ==
	TokenIdentifier                  // variable names
	TokenBuiltin                     // int, string, bool, etc.
)

func (t TokenType) String() string {
	switch t {
	case TokenKeyword:
		return "keyword"
	case TokenString:
		return "string"
	case TokenComment:
		return "comment"
	case TokenNumber:
		return "number"
	case TokenOperator:
		return "operator"
	case TokenIdentifier:
		return "identifier"
	case TokenBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Token is a classified span of a source line. Pos is the rune offset of
// the token within its line. Terminated is false for a string literal
// that is still open at the end of the line.
type Token struct {
	Type       TokenType
	Text       string
	Pos        int
	Terminated bool
}

// Go keywords registry.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}

// Go built-in types and predeclared identifiers.
var goBuiltins = map[string]bool{
	"bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true, "uint": true, "uint8": true,
	"uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"any": true, "comparable": true, "nil": true, "true": true, "false": true,
}

// Scanner tokenizes Go source one line at a time. Raw string literals
// and block comments span lines, so the same Scanner must be fed the
// lines of one snippet in order.
type Scanner struct {
	inRaw     bool
	inComment bool
}

// ScanLine splits one line into classified tokens. Whitespace is not
// reported; gaps between tokens follow from their positions.
func (s *Scanner) ScanLine(line string) []Token {
	var tokens []Token
	runes := []rune(line)
	pos := 0

	// Finish a raw string or block comment opened on an earlier line.
	if s.inRaw {
		end, closed := scanRawTail(runes)
		tokens = append(tokens, Token{Type: TokenString, Text: string(runes[:end]), Pos: 0, Terminated: closed})
		s.inRaw = !closed
		pos = end
	} else if s.inComment {
		end, closed := scanCommentTail(runes)
		tokens = append(tokens, Token{Type: TokenComment, Text: string(runes[:end]), Pos: 0, Terminated: closed})
		s.inComment = !closed
		pos = end
	}

	for pos < len(runes) {
		r := runes[pos]

		if isSpace(r) {
			pos++
			continue
		}

		// Line comment runs to the end of the line.
		if r == '/' && pos+1 < len(runes) && runes[pos+1] == '/' {
			tokens = append(tokens, Token{Type: TokenComment, Text: string(runes[pos:]), Pos: pos, Terminated: true})
			break
		}

		// Block comment, possibly continuing on the next line.
		if r == '/' && pos+1 < len(runes) && runes[pos+1] == '*' {
			end, closed := scanCommentTail(runes[pos+2:])
			end += pos + 2
			tokens = append(tokens, Token{Type: TokenComment, Text: string(runes[pos:end]), Pos: pos, Terminated: closed})
			s.inComment = !closed
			pos = end
			continue
		}

		if r == '"' || r == '`' {
			end, closed := scanString(runes, pos)
			tokens = append(tokens, Token{Type: TokenString, Text: string(runes[pos:end]), Pos: pos, Terminated: closed})
			if r == '`' {
				s.inRaw = !closed
			}
			pos = end
			continue
		}

		if isDigit(r) {
			end := scanNumber(runes, pos)
			tokens = append(tokens, Token{Type: TokenNumber, Text: string(runes[pos:end]), Pos: pos, Terminated: true})
			pos = end
			continue
		}

		if isLetter(r) || r == '_' {
			end := scanIdentifier(runes, pos)
			word := string(runes[pos:end])

			typ := TokenIdentifier
			if goKeywords[word] {
				typ = TokenKeyword
			} else if goBuiltins[word] {
				typ = TokenBuiltin
			}
			tokens = append(tokens, Token{Type: typ, Text: word, Pos: pos, Terminated: true})
			pos = end
			continue
		}

		if isOperator(r) {
			end := pos
			for end < len(runes) && isOperator(runes[end]) {
				// Stop before a comment opener so "x/*c*/" splits cleanly.
				if runes[end] == '/' && end+1 < len(runes) && (runes[end+1] == '/' || runes[end+1] == '*') && end > pos {
					break
				}
				end++
			}
			tokens = append(tokens, Token{Type: TokenOperator, Text: string(runes[pos:end]), Pos: pos, Terminated: true})
			pos = end
			continue
		}

		// Anything else is reported as an identifier-style token.
		tokens = append(tokens, Token{Type: TokenIdentifier, Text: string(r), Pos: pos, Terminated: true})
		pos++
	}

	return tokens
}

// CheckSource runs a light scan over a snippet and reports the first
// lexical problem it finds, before the snippet reaches the interpreter.
func CheckSource(src string) error {
	var sc Scanner
	for n, line := range strings.Split(src, "\n") {
		for _, tok := range sc.ScanLine(line) {
			if tok.Type == TokenString && !tok.Terminated && !sc.inRaw {
				return fmt.Errorf("line %d: unterminated string literal", n+1)
			}
		}
	}
	if sc.inRaw {
		return errors.New("unterminated raw string literal")
	}
	if sc.inComment {
		return errors.New("unterminated block comment")
	}
	return nil
}

// scanString scans a string literal starting at the opening quote.
// closed reports whether the closing quote was found on this line.
func scanString(runes []rune, start int) (end int, closed bool) {
	quote := runes[start]
	pos := start + 1

	if quote == '`' {
		for pos < len(runes) {
			if runes[pos] == '`' {
				return pos + 1, true
			}
			pos++
		}
		return pos, false
	}

	for pos < len(runes) {
		if runes[pos] == '\\' && pos+1 < len(runes) {
			pos += 2
			continue
		}
		if runes[pos] == '"' {
			return pos + 1, true
		}
		pos++
	}
	return pos, false
}

// scanRawTail scans the continuation of a raw string opened on an
// earlier line.
func scanRawTail(runes []rune) (end int, closed bool) {
	for pos := 0; pos < len(runes); pos++ {
		if runes[pos] == '`' {
			return pos + 1, true
		}
	}
	return len(runes), false
}

// scanCommentTail scans up to and including a block comment closer.
func scanCommentTail(runes []rune) (end int, closed bool) {
	for pos := 0; pos < len(runes); pos++ {
		if runes[pos] == '*' && pos+1 < len(runes) && runes[pos+1] == '/' {
			return pos + 2, true
		}
	}
	return len(runes), false
}

// scanNumber scans a number literal: digits, dots, and e/E for
// scientific notation.
func scanNumber(runes []rune, start int) int {
	pos := start
	for pos < len(runes) {
		r := runes[pos]
		if !isDigit(r) && r != '.' && r != 'e' && r != 'E' && r != 'x' && r != 'X' {
			break
		}
		pos++
	}
	return pos
}

// scanIdentifier scans an identifier.
func scanIdentifier(runes []rune, start int) int {
	pos := start
	for pos < len(runes) {
		r := runes[pos]
		if !isLetter(r) && !isDigit(r) && r != '_' {
			break
		}
		pos++
	}
	return pos
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isOperator(r rune) bool {
	return strings.ContainsRune("+-*/%&|^<>=!:;,.()[]{}~", r)
}
