// Package syntax adapts a concrete syntax tree provider into a small,
// language-neutral node tree that the walker can traverse.
package syntax

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"symdex/internal/errors"
)

// Language represents a supported programming language.
type Language string

const (
	LangJava   Language = "java"
	LangPython Language = "python"
	LangRuby   Language = "ruby"
)

// Languages returns every language a Parser can be built for.
func Languages() []Language {
	return []Language{LangJava, LangPython, LangRuby}
}

// ParseLanguage validates a language name from configuration or flags.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range Languages() {
		if l == lang {
			return l, nil
		}
	}
	return "", errors.NewSymdexError(errors.UnsupportedLanguage, fmt.Sprintf("unsupported language %q", s), nil)
}

// LanguageFromExtension returns the Language for a file extension.
func LanguageFromExtension(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case ".java":
		return LangJava, true
	case ".py", ".pyi":
		return LangPython, true
	case ".rb":
		return LangRuby, true
	default:
		return "", false
	}
}

// ErrUnavailable is returned when no AST provider is compiled in.
var ErrUnavailable = stderrors.New("syntax: tree-sitter parsing requires cgo")

// Options selects how a Parser reads its input.
type Options struct {
	Language Language
}

// Parser turns one compilation unit into a Tree. A Parser is safe for
// concurrent use; every call builds its own provider state.
type Parser interface {
	Parse(ctx context.Context, source []byte) (*Tree, error)
}

// Point is a 0-based source position. Column counts code points.
type Point struct {
	Line   int
	Column int
}

// Node is one node of a parsed tree.
type Node struct {
	Kind      string
	Field     string // field name in Parent, or ""
	Named     bool
	Missing   bool // inserted by error recovery
	StartByte int
	EndByte   int
	Parent    *Node
	Children  []*Node
}

// ChildByField returns the first child with the given field name.
func (n *Node) ChildByField(name string) *Node {
	for _, c := range n.Children {
		if c.Field == name {
			return c
		}
	}
	return nil
}

// ChildrenByField returns every child with the given field name.
func (n *Node) ChildrenByField(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Field == name {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children in source order.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// IsError reports whether the provider flagged this node as a syntax error.
func (n *Node) IsError() bool {
	return n.Kind == "ERROR" || n.Missing
}

// Tree is a parsed compilation unit.
type Tree struct {
	Root     *Node
	Source   []byte
	Language Language

	lineStarts []int
}

// NewTree wraps root and indexes line starts in source.
func NewTree(lang Language, source []byte, root *Node) *Tree {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Tree{
		Root:       root,
		Source:     source,
		Language:   lang,
		lineStarts: starts,
	}
}

// Text returns the source text spanned by n.
func (t *Tree) Text(n *Node) string {
	if n == nil || n.StartByte < 0 || n.EndByte > len(t.Source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// Position converts a byte offset into a 0-based line and code point column.
func (t *Tree) Position(offset int) Point {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.Source) {
		offset = len(t.Source)
	}
	line := sort.Search(len(t.lineStarts), func(i int) bool {
		return t.lineStarts[i] > offset
	}) - 1
	start := t.lineStarts[line]
	return Point{
		Line:   line,
		Column: utf8.RuneCount(t.Source[start:offset]),
	}
}

// FirstError returns the first node in source order flagged as a syntax
// error, or nil when the tree is clean.
func (t *Tree) FirstError() *Node {
	stack := []*Node{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() {
			return n
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return nil
}

// CheckUTF8 returns an ENCODING_ERROR positioned at the first invalid byte.
func CheckUTF8(source []byte) error {
	if utf8.Valid(source) {
		return nil
	}
	offset := 0
	for offset < len(source) {
		r, size := utf8.DecodeRune(source[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	pos := NewTree("", source[:offset], nil).Position(offset)
	return errors.NewSymdexError(errors.EncodingError,
		fmt.Sprintf("invalid UTF-8 at byte %d", offset), nil).At(pos.Line, pos.Column)
}

// errorAt builds the PARSE_ERROR reported for a tree that failed to parse.
func errorAt(t *Tree, n *Node) error {
	pos := t.Position(n.StartByte)
	var msg string
	switch {
	case n.Missing:
		msg = fmt.Sprintf("missing %s", n.Kind)
	case n.EndByte > n.StartByte:
		text := t.Text(n)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		if r := []rune(text); len(r) > 40 {
			text = string(r[:40]) + "..."
		}
		msg = fmt.Sprintf("syntax error near %q", text)
	default:
		msg = "syntax error"
	}
	return errors.Parse(msg, pos.Line, pos.Column)
}
