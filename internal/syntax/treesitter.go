//go:build cgo

package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"

	"symdex/internal/errors"
)

// TreeSitter is the tree-sitter backed Parser.
type TreeSitter struct {
	lang     Language
	language *sitter.Language
}

// NewParser creates a tree-sitter parser for opts.Language.
func NewParser(opts Options) (*TreeSitter, error) {
	lang, err := ParseLanguage(string(opts.Language))
	if err != nil {
		return nil, err
	}
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}
	return &TreeSitter{lang: lang, language: tsLang}, nil
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Language returns the grammar this parser was built for.
func (p *TreeSitter) Language() Language {
	return p.lang
}

// Parse parses source. Invalid UTF-8 yields an ENCODING_ERROR and a tree
// with error or missing nodes yields a PARSE_ERROR at the first of them.
func (p *TreeSitter) Parse(ctx context.Context, source []byte) (*Tree, error) {
	if err := CheckUTF8(source); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.language)

	tsTree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.NewSymdexError(errors.InternalError, "parse aborted", err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	tree := NewTree(p.lang, source, convert(root))
	if root.HasError() {
		if bad := tree.FirstError(); bad != nil {
			return nil, errorAt(tree, bad)
		}
		return nil, errors.Parse("syntax error", 0, 0)
	}
	return tree, nil
}

// convert copies the tree-sitter tree into Nodes. A cursor is used so that
// field names are captured for every child.
func convert(root *sitter.Node) *Node {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	top := newNode(cursor.CurrentNode(), "", nil)
	cur := top
	for {
		if cursor.GoToFirstChild() {
			cur = newNode(cursor.CurrentNode(), cursor.CurrentFieldName(), cur)
			continue
		}
		for {
			if cur == top {
				return top
			}
			if cursor.GoToNextSibling() {
				cur = newNode(cursor.CurrentNode(), cursor.CurrentFieldName(), cur.Parent)
				break
			}
			cursor.GoToParent()
			cur = cur.Parent
		}
	}
}

func newNode(n *sitter.Node, field string, parent *Node) *Node {
	node := &Node{
		Kind:      n.Type(),
		Field:     field,
		Named:     n.IsNamed(),
		Missing:   n.IsMissing(),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Parent:    parent,
	}
	if parent != nil {
		parent.Children = append(parent.Children, node)
	}
	return node
}

// getLanguage returns the tree-sitter Language for a given language identifier.
func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangJava:
		return java.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	default:
		return nil, errors.NewSymdexError(errors.UnsupportedLanguage, fmt.Sprintf("no grammar for %s", lang), nil)
	}
}
