package main

import (
	stderrors "errors"
	"fmt"
	"path/filepath"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"

	"symdex/internal/errors"
	"symdex/internal/symtab"
	"symdex/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatSCIP OutputFormat = "scip"
)

// FormatTable renders a symbol table in the given text format. JSON is the
// wire format followed by a newline.
func FormatTable(t *symtab.Table, format OutputFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := symtab.Encode(t)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// buildSCIPIndex wraps one document into a complete SCIP index.
func buildSCIPIndex(t *symtab.Table, path, language string, args []string) (*scippb.Index, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:      version.Name,
				Version:   version.Version,
				Arguments: args,
			},
			ProjectRoot:          "file://" + filepath.ToSlash(filepath.Dir(abs)),
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
		Documents: []*scippb.Document{symtab.ToSCIP(t, filepath.Base(path), language)},
	}, nil
}

// FormatSCIPIndex renders t as a protobuf-encoded SCIP index for path.
func FormatSCIPIndex(t *symtab.Table, path, language string, args []string) ([]byte, error) {
	index, err := buildSCIPIndex(t, path, language, args)
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(index)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SCIP index: %w", err)
	}
	return data, nil
}

// describeError prefixes positioned errors with file:line:col, 1-based as
// editors expect.
func describeError(path string, err error) error {
	var se *errors.SymdexError
	if stderrors.As(err, &se) && se.HasPosition() {
		return fmt.Errorf("%s:%d:%d: %s (%s)", path, se.Line+1, se.Column+1, se.Message, se.Code)
	}
	return err
}
