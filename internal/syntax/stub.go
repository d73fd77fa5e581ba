//go:build !cgo

package syntax

import "context"

// TreeSitter is the tree-sitter backed Parser.
// This is a stub implementation for non-CGO builds.
type TreeSitter struct{}

// NewParser returns ErrUnavailable when CGO is disabled.
func NewParser(opts Options) (*TreeSitter, error) {
	if _, err := ParseLanguage(string(opts.Language)); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// Language returns the empty language.
func (p *TreeSitter) Language() Language {
	return ""
}

// Parse always fails with ErrUnavailable.
func (p *TreeSitter) Parse(ctx context.Context, source []byte) (*Tree, error) {
	return nil, ErrUnavailable
}
