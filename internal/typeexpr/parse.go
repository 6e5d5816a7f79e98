package typeexpr

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports a type expression the grammar does not accept.
type SyntaxError struct {
	Src    string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid type expression %q at offset %d: %s", e.Src, e.Offset, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLifetime
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse parses a single type expression. Trailing input is an error.
func Parse(src string) (Type, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, toks: toks}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok.pos, "unexpected %q after type", tok.text)
	}

	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and tables
// of built-in expressions.
func MustParse(src string) Type {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return t
}

func lex(src string) ([]token, error) {
	var toks []token

	for i := 0; i < len(src); {
		r, width := utf8.DecodeRuneInString(src[i:])

		switch {
		case unicode.IsSpace(r):
			i += width
		case r == ':':
			if i+1 >= len(src) || src[i+1] != ':' {
				return nil, &SyntaxError{Src: src, Offset: i, Msg: "expected '::'"}
			}

			toks = append(toks, token{kind: tokPunct, text: "::", pos: i})
			i += 2
		case r == '\'':
			start := i
			i++

			j := scanIdent(src, i)
			if j == i {
				return nil, &SyntaxError{Src: src, Offset: start, Msg: "lifetime without a name"}
			}

			toks = append(toks, token{kind: tokLifetime, text: src[i:j], pos: start})
			i = j
		case isIdentStart(r):
			j := scanIdent(src, i)
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		case r == '&' || r == '*' || r == '(' || r == ')' || r == '[' || r == ']' ||
			r == '<' || r == '>' || r == ',':
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i += width
		default:
			return nil, &SyntaxError{Src: src, Offset: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})

	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func scanIdent(src string, i int) int {
	for i < len(src) {
		r, width := utf8.DecodeRuneInString(src[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		i += width
	}

	return i
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}

	return tok
}

func (p *parser) accept(text string) bool {
	tok := p.peek()
	if tok.kind == tokPunct && tok.text == text {
		p.pos++
		return true
	}

	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	tok := p.peek()
	if tok.kind == tokIdent && tok.text == kw {
		p.pos++
		return true
	}

	return false
}

func (p *parser) expect(text string) error {
	if p.accept(text) {
		return nil
	}

	tok := p.peek()
	if tok.kind == tokEOF {
		return p.errorf(tok.pos, "expected %q, found end of input", text)
	}

	return p.errorf(tok.pos, "expected %q, found %q", text, tok.text)
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Src: p.src, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseType() (Type, error) {
	tok := p.peek()

	switch {
	case tok.kind == tokPunct && tok.text == "&":
		return p.parseRef()
	case tok.kind == tokPunct && tok.text == "*":
		return p.parseRawPtr()
	case tok.kind == tokPunct && tok.text == "(":
		return p.parseTuple()
	case tok.kind == tokPunct && tok.text == "[":
		return p.parseSlice()
	case tok.kind == tokIdent:
		return p.parsePath()
	case tok.kind == tokEOF:
		return nil, p.errorf(tok.pos, "expected a type, found end of input")
	default:
		return nil, p.errorf(tok.pos, "expected a type, found %q", tok.text)
	}
}

func (p *parser) parseRef() (Type, error) {
	start := p.next().pos
	ref := &Ref{Offset: start}

	if tok := p.peek(); tok.kind == tokLifetime {
		ref.Lifetime = tok.text
		p.next()
	}

	ref.Mutable = p.acceptKeyword("mut")

	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}

	ref.Elem = elem

	return ref, nil
}

func (p *parser) parseRawPtr() (Type, error) {
	start := p.next().pos
	ptr := &RawPtr{Offset: start}

	switch {
	case p.acceptKeyword("const"):
	case p.acceptKeyword("mut"):
		ptr.Mutable = true
	default:
		return nil, p.errorf(p.peek().pos, "raw pointer requires const or mut")
	}

	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}

	ptr.Elem = elem

	return ptr, nil
}

func (p *parser) parseTuple() (Type, error) {
	start := p.next().pos
	tuple := &Tuple{Offset: start}

	if p.accept(")") {
		return tuple, nil
	}

	for {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}

		tuple.Elems = append(tuple.Elems, elem)

		if p.accept(")") {
			return tuple, nil
		}

		if err := p.expect(","); err != nil {
			return nil, err
		}

		if p.accept(")") {
			return tuple, nil
		}
	}
}

func (p *parser) parseSlice() (Type, error) {
	start := p.next().pos

	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if err := p.expect("]"); err != nil {
		return nil, err
	}

	return &Slice{Elem: elem, Offset: start}, nil
}

func (p *parser) parsePath() (Type, error) {
	first := p.next()
	path := &Path{Segments: []string{first.text}, Offset: first.pos}

	for p.accept("::") {
		tok := p.peek()
		if tok.kind != tokIdent {
			return nil, p.errorf(tok.pos, "expected identifier after '::'")
		}

		path.Segments = append(path.Segments, p.next().text)
	}

	if !p.accept("<") {
		return path, nil
	}

	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}

		path.Args = append(path.Args, arg)

		if p.accept(">") {
			return path, nil
		}

		if err := p.expect(","); err != nil {
			return nil, err
		}

		if p.accept(">") {
			return path, nil
		}
	}
}
