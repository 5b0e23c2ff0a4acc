package graphpath

import (
	"strconv"
	"strings"

	"git.canoozie.net/riddling/graphpath/pkg/common"
)

// The description language of a path:
//
//	path     := start ('.' edge)*
//	start    := '::' | segment ('::' segment)*
//	edge     := propName ('[' selector ']')?
//	selector := index | [segment '='] quotedKey
//	propName := segment | quotedKey
//
// A segment is one or more letters, digits, '_' or '$'. Quoted keys are
// single-quoted with backslash escapes. Whitespace is allowed around '.',
// '[', ']' and '=' but never inside a segment or the start path.
//
// Examples:
//
//	test::domain::ClassA
//	test::domain::ClassA.properties[0].genericType.rawType
//	test::domain::ClassA.properties['prop2']
//	test::domain::ClassA.properties[functionName='prop2']
//	::.children['test']

// Parse parses a path description
func Parse(description string) (Path, error) {
	return ParseRange(description, 0, len(description))
}

// ParseRange parses the description held in text[start:end]. Error indexes
// refer to positions in text.
func ParseRange(text string, start, end int) (Path, error) {
	if start < 0 || end > len(text) || start > end {
		return Path{}, &SyntaxError{Input: text, Index: start, Reason: "invalid range"}
	}
	p := &parser{input: text, pos: start, end: end}
	return p.parsePath()
}

// MustParse is like Parse but panics on error. It is meant for literals.
func MustParse(description string) Path {
	path, err := Parse(description)
	if err != nil {
		panic(err)
	}
	return path
}

type parser struct {
	input string
	pos   int
	end   int
}

func (p *parser) fail(index int, reason string) error {
	return &SyntaxError{Input: p.input, Index: index, Reason: reason}
}

func (p *parser) eof() bool {
	return p.pos >= p.end
}

func (p *parser) peek() byte {
	return p.input[p.pos]
}

func (p *parser) hasPrefix(prefix string) bool {
	return strings.HasPrefix(p.input[p.pos:p.end], prefix)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) scanSegment() string {
	begin := p.pos
	for !p.eof() && common.IsIdentifierChar(p.peek()) {
		p.pos++
	}
	return p.input[begin:p.pos]
}

func (p *parser) parsePath() (Path, error) {
	p.skipSpace()
	if p.eof() {
		return Path{}, p.fail(p.pos, "empty path description")
	}
	start, err := p.parseStart()
	if err != nil {
		return Path{}, err
	}

	var edges []Edge
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() != '.' {
			return Path{}, p.fail(p.pos, "expected '.'")
		}
		p.pos++
		p.skipSpace()
		edge, err := p.parseEdge()
		if err != nil {
			return Path{}, err
		}
		edges = append(edges, edge)
	}
	return Path{start: start, edges: edges}, nil
}

func (p *parser) parseStart() (string, error) {
	begin := p.pos
	if p.hasPrefix(common.RootPath) {
		p.pos += len(common.RootPath)
		if !p.eof() && common.IsIdentifierChar(p.peek()) {
			return "", p.fail(p.pos, "invalid start node path")
		}
		return common.RootPath, nil
	}
	for {
		if p.scanSegment() == "" {
			return "", p.fail(p.pos, "invalid identifier")
		}
		if !p.hasPrefix(common.PackageSeparator) {
			break
		}
		p.pos += len(common.PackageSeparator)
	}
	return p.input[begin:p.pos], nil
}

func (p *parser) parseEdge() (Edge, error) {
	property, err := p.parsePropertyName()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.eof() || p.peek() != '[' {
		return ToOnePropertyEdge{property: property}, nil
	}
	p.pos++
	p.skipSpace()
	edge, err := p.parseSelector(property)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.eof() || p.peek() != ']' {
		return nil, p.fail(p.pos, "missing ']'")
	}
	p.pos++
	return edge, nil
}

func (p *parser) parsePropertyName() (string, error) {
	if !p.eof() && p.peek() == '\'' {
		begin := p.pos
		name, err := p.parseQuoted()
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", p.fail(begin, "empty property name")
		}
		return name, nil
	}
	name := p.scanSegment()
	if name == "" {
		return "", p.fail(p.pos, "invalid identifier")
	}
	return name, nil
}

func (p *parser) parseSelector(property string) (Edge, error) {
	if p.eof() {
		return nil, p.fail(p.pos, "missing ']'")
	}
	switch c := p.peek(); {
	case c == '\'':
		key, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		return ToManyPropertyWithKeyEdge{property: property, keyProperty: DefaultKeyProperty, key: key}, nil
	case common.IsIdentifierChar(c):
		begin := p.pos
		token := p.scanSegment()
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			if !isDigit(token[0]) {
				return nil, p.fail(p.pos, "expected '='")
			}
			return p.indexEdge(property, token, begin)
		}
		p.pos++
		p.skipSpace()
		if p.eof() || p.peek() != '\'' {
			return nil, p.fail(p.pos, "expected quoted key")
		}
		key, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		return ToManyPropertyWithKeyEdge{property: property, keyProperty: token, key: key}, nil
	default:
		return nil, p.fail(p.pos, "invalid selector")
	}
}

func (p *parser) indexEdge(property, token string, begin int) (Edge, error) {
	for i := 0; i < len(token); i++ {
		if !isDigit(token[i]) {
			return nil, p.fail(begin, "non-numeric index")
		}
	}
	index, err := strconv.Atoi(token)
	if err != nil {
		return nil, p.fail(begin, "index out of range")
	}
	return ToManyPropertyAtIndexEdge{property: property, index: index}, nil
}

// parseQuoted consumes a single-quoted string and returns it unescaped
func (p *parser) parseQuoted() (string, error) {
	begin := p.pos
	for i := begin + 1; i < p.end; i++ {
		switch p.input[i] {
		case '\\':
			i++
		case '\'':
			p.pos = i + 1
			return common.Unescape(p.input[begin+1 : i]), nil
		}
	}
	return "", p.fail(begin, "unterminated quote")
}

// validStart reports whether s may be used as a start node path
func validStart(s string) bool {
	return common.IsElementPath(s)
}

// validPropertyName returns the property named by s, which is either a
// plain segment or a single-quoted string
func validPropertyName(s string) (string, bool) {
	if common.IsIdentifier(s) {
		return s, true
	}
	if len(s) < 3 || s[0] != '\'' {
		return "", false
	}
	p := &parser{input: s, end: len(s)}
	name, err := p.parseQuoted()
	if err != nil || !p.eof() || name == "" {
		return "", false
	}
	return name, true
}

func writeDescription(sb *strings.Builder, start string, edges []Edge) {
	sb.WriteString(start)
	for _, edge := range edges {
		edge.writeDescription(sb)
	}
}

func writeExpression(sb *strings.Builder, start string, edges []Edge) {
	sb.WriteString(start)
	for _, edge := range edges {
		edge.writeExpression(sb)
	}
}
