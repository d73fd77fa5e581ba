// Package indexer runs the parse-and-walk pipeline that turns one source
// payload into a symbol table.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"symdex/internal/config"
	"symdex/internal/errors"
	"symdex/internal/symtab"
	"symdex/internal/syntax"
	"symdex/internal/walker"
)

// Options configures an Indexer.
type Options struct {
	Language syntax.Language
	// Encoding is the IANA charset of incoming payloads. Empty means UTF-8.
	Encoding string
	// Parser overrides the tree-sitter parser, mainly for tests.
	Parser syntax.Parser
}

// Indexer decodes, parses and walks source payloads. It holds no per-call
// state, so every call builds a fresh tree and table.
type Indexer struct {
	lang    syntax.Language
	charset encoding.Encoding // nil when payloads are already UTF-8
	parser  syntax.Parser
}

// New creates an Indexer for one language and charset.
func New(opts Options) (*Indexer, error) {
	if _, err := walker.GrammarFor(opts.Language); err != nil {
		return nil, err
	}

	charset, err := lookupCharset(opts.Encoding)
	if err != nil {
		return nil, err
	}

	parser := opts.Parser
	if parser == nil {
		ts, err := syntax.NewParser(syntax.Options{Language: opts.Language})
		if err != nil {
			return nil, err
		}
		parser = ts
	}

	return &Indexer{lang: opts.Language, charset: charset, parser: parser}, nil
}

// FromConfig creates an Indexer from the [parser] config section.
func FromConfig(cfg config.ParserConfig) (*Indexer, error) {
	lang, err := syntax.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	return New(Options{Language: lang, Encoding: cfg.Encoding})
}

// Language returns the language this Indexer parses.
func (ix *Indexer) Language() syntax.Language {
	return ix.lang
}

// Index builds the symbol table of one payload.
func (ix *Indexer) Index(ctx context.Context, payload []byte) (*symtab.Table, error) {
	src, err := ix.decode(payload)
	if err != nil {
		return nil, err
	}

	tree, err := ix.parser.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	return walker.Walk(tree)
}

// IndexFile reads path and indexes its content.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (*symtab.Table, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ix.Index(ctx, source)
}

// LanguageForFile picks the language of path from its extension, falling
// back to def when the extension is unknown.
func LanguageForFile(path string, def syntax.Language) syntax.Language {
	if lang, ok := syntax.LanguageFromExtension(strings.ToLower(filepath.Ext(path))); ok {
		return lang
	}
	return def
}

func (ix *Indexer) decode(payload []byte) ([]byte, error) {
	if ix.charset == nil {
		return payload, nil
	}
	out, err := ix.charset.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, errors.NewSymdexError(errors.EncodingError, "payload is not valid text in the configured charset", err)
	}
	return out, nil
}

// lookupCharset resolves an IANA charset name. UTF-8 maps to nil: the
// parser validates UTF-8 itself and reports the offending position.
func lookupCharset(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.NewSymdexError(errors.ConfigInvalid, fmt.Sprintf("unsupported charset %q", name), err)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	if canonical, err := ianaindex.IANA.Name(enc); err == nil && canonical == "UTF-8" {
		return nil, nil
	}
	return enc, nil
}
