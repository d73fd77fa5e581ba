package symtab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

type wireTable struct {
	Package    *string   `json:"package"`
	Types      *entryMap `json:"types"`
	Interfaces *entryMap `json:"interfaces"`
	Callables  *entryMap `json:"callables"`
	Fields     *entryMap `json:"fields"`
	Variables  *entryMap `json:"variables"`
	Imports    *entryMap `json:"imports"`
}

func (t *Table) wire() *wireTable {
	w := &wireTable{
		Types:      t.cats[Types],
		Interfaces: t.cats[Interfaces],
		Callables:  t.cats[Callables],
		Fields:     t.cats[Fields],
		Variables:  t.cats[Variables],
		Imports:    t.cats[Imports],
	}
	if t.hasPkg {
		pkg := t.pkg
		w.Package = &pkg
	}
	return w
}

// MarshalJSON renders the entry with empty lists as [] rather than null.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	p := plain(e)
	if p.Declarations == nil {
		p.Declarations = []Coordinate{}
	}
	if p.Uses == nil {
		p.Uses = []Coordinate{}
	}
	return json.Marshal(p)
}

// MarshalJSON renders the table as a single JSON object with keys in the
// order package, types, interfaces, callables, fields, variables, imports.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.wire())
}

// Encode serializes t as one line of JSON with no trailing newline.
func Encode(t *Table) ([]byte, error) {
	return json.Marshal(t)
}

// Decode parses the output of Encode back into a Table.
func Decode(data []byte) (*Table, error) {
	t := New()
	w := t.wire()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(w); err != nil {
		return nil, fmt.Errorf("decode symbol table: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("decode symbol table: trailing data after table")
	}

	for _, cat := range Categories() {
		for pair := t.cats[cat].Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil {
				return nil, fmt.Errorf("decode symbol table: %s entry %q is null", cat, pair.Key)
			}
			if cat == Imports && len(pair.Value.Declarations) > 0 {
				return nil, fmt.Errorf("decode symbol table: import %q has declarations", pair.Key)
			}
		}
	}
	if w.Package != nil {
		t.SetPackage(*w.Package)
	}
	return t, nil
}

// MarshalYAML renders the table as an insertion-ordered YAML mapping with
// coordinates in flow style.
func (t *Table) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	pkg := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if t.hasPkg {
		pkg = strNode(t.pkg)
	}
	root.Content = append(root.Content, strNode("package"), pkg)

	for _, cat := range Categories() {
		names := &yaml.Node{Kind: yaml.MappingNode}
		for pair := t.cats[cat].Oldest(); pair != nil; pair = pair.Next() {
			entry := &yaml.Node{Kind: yaml.MappingNode}
			entry.Content = append(entry.Content,
				strNode("declarations"), coordsNode(pair.Value.Declarations),
				strNode("uses"), coordsNode(pair.Value.Uses),
			)
			names.Content = append(names.Content, strNode(pair.Key), entry)
		}
		root.Content = append(root.Content, strNode(cat.String()), names)
	}
	return root, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func coordsNode(coords []Coordinate) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	if len(coords) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, c := range coords {
		q := c.quad()
		item := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range q {
			item.Content = append(item.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)})
		}
		seq.Content = append(seq.Content, item)
	}
	return seq
}
