package configtracker

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// statement is one parsed config.set(...) or config.set{...} call, already
// resolved to the literal value(s) it carries. A dotted-path call yields a
// one-leaf patch; a table call yields the table itself as the patch.
type statement struct {
	patch map[string]interface{}
}

type luaParser struct {
	s   scanner.Scanner
	tok rune
}

func newLuaParser(src string) *luaParser {
	p := &luaParser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.Error = func(*scanner.Scanner, string) {}
	p.advance()
	return p
}

func (p *luaParser) advance() {
	p.tok = p.s.Scan()
}

func (p *luaParser) text() string {
	return p.s.TokenText()
}

// parseStatements scans src for every config.set(...)/config.set{...} call
// and returns the patch each one produces, in source order.
func parseStatements(src string) []statement {
	p := newLuaParser(src)
	var out []statement
	for p.tok != scanner.EOF {
		if p.tok == scanner.Ident && p.text() == "config" {
			if stmt, ok := p.tryParseConfigSet(); ok {
				out = append(out, stmt)
				continue
			}
		}
		p.advance()
	}
	return out
}

// tryParseConfigSet assumes the current token is the "config" identifier.
// It is a best-effort match against the narrow config.set(...)/config.set{...}
// grammar; anything else following "config" is left for the caller's main
// scan loop to continue past.
func (p *luaParser) tryParseConfigSet() (statement, bool) {
	p.advance() // consume "config"
	if p.tok != '.' {
		return statement{}, false
	}
	p.advance()
	if p.tok != scanner.Ident || p.text() != "set" {
		return statement{}, false
	}
	p.advance()

	switch p.tok {
	case '(':
		p.advance()
		if p.tok != scanner.String {
			return statement{}, false
		}
		path := unquote(p.text())
		p.advance()
		if p.tok != ',' {
			return statement{}, false
		}
		p.advance()
		value, err := p.parseValue()
		if err != nil {
			return statement{}, false
		}
		if p.tok != ')' {
			return statement{}, false
		}
		p.advance()
		return statement{patch: patchFromPath(path, value)}, true
	case '{':
		table, err := p.parseTable()
		if err != nil {
			return statement{}, false
		}
		return statement{patch: table}, true
	default:
		return statement{}, false
	}
}

func (p *luaParser) parseValue() (interface{}, error) {
	switch p.tok {
	case scanner.String:
		v := unquote(p.text())
		p.advance()
		return v, nil
	case scanner.Int:
		v, err := strconv.ParseInt(p.text(), 10, 64)
		if err != nil {
			return nil, err
		}
		p.advance()
		return v, nil
	case scanner.Float:
		v, err := strconv.ParseFloat(p.text(), 64)
		if err != nil {
			return nil, err
		}
		p.advance()
		return v, nil
	case '-':
		p.advance()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		default:
			return nil, fmt.Errorf("unary minus on non-numeric value")
		}
	case scanner.Ident:
		switch p.text() {
		case "true":
			p.advance()
			return true, nil
		case "false":
			p.advance()
			return false, nil
		case "nil":
			p.advance()
			return nil, nil
		default:
			return nil, fmt.Errorf("unexpected bareword value %q", p.text())
		}
	case '{':
		return p.parseTable()
	default:
		return nil, fmt.Errorf("unexpected token in value position")
	}
}

func (p *luaParser) parseTable() (map[string]interface{}, error) {
	if p.tok != '{' {
		return nil, fmt.Errorf("expected '{'")
	}
	p.advance()

	table := map[string]interface{}{}
	for p.tok != '}' {
		if p.tok == scanner.EOF {
			return nil, fmt.Errorf("unterminated table literal")
		}

		var key string
		switch p.tok {
		case scanner.Ident:
			key = p.text()
			p.advance()
		case scanner.String:
			key = unquote(p.text())
			p.advance()
		default:
			return nil, fmt.Errorf("unexpected table key token")
		}

		if p.tok != '=' {
			return nil, fmt.Errorf("expected '=' after table key %q", key)
		}
		p.advance()

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		table[key] = val

		if p.tok == ',' {
			p.advance()
		}
	}
	p.advance() // consume '}'
	return table, nil
}

func unquote(s string) string {
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return strings.Trim(s, `"'`)
	}
	return unquoted
}

// patchFromPath builds the nested-map patch a dotted path assignment
// produces, e.g. "a.b.c", v -> {"a": {"b": {"c": v}}}.
func patchFromPath(path string, value interface{}) map[string]interface{} {
	segments := strings.Split(path, ".")
	root := map[string]interface{}{}
	cur := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			break
		}
		next := map[string]interface{}{}
		cur[seg] = next
		cur = next
	}
	return root
}
