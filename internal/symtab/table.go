package symtab

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry lists every declaration and use of one name, in visit order.
type Entry struct {
	Declarations []Coordinate `json:"declarations"`
	Uses         []Coordinate `json:"uses"`
}

type entryMap = orderedmap.OrderedMap[string, *Entry]

// Table is the symbol table of one compilation unit. Every category keeps
// names in first-insertion order and occurrences are only ever appended.
// A Table is not safe for concurrent use.
type Table struct {
	pkg    string
	hasPkg bool
	cats   [numCategories]*entryMap
}

// New returns an empty table.
func New() *Table {
	t := &Table{}
	for i := range t.cats {
		t.cats[i] = orderedmap.New[string, *Entry]()
	}
	return t
}

func (t *Table) add(cat Category, role Role, name string, c Coordinate) {
	if name == "" {
		return
	}
	m := t.cats[cat]
	e, ok := m.Get(name)
	if !ok {
		e = &Entry{}
		m.Set(name, e)
	}
	if role == Declaration {
		e.Declarations = append(e.Declarations, c)
	} else {
		e.Uses = append(e.Uses, c)
	}
}

// SetPackage records the package name; a later call replaces it.
func (t *Table) SetPackage(name string) {
	if name == "" {
		return
	}
	t.pkg = name
	t.hasPkg = true
}

// DeclareType appends a type declaration of name.
func (t *Table) DeclareType(name string, c Coordinate) { t.add(Types, Declaration, name, c) }

// UseType appends a type use, such as an instance creation of a class.
func (t *Table) UseType(name string, c Coordinate) { t.add(Types, Use, name, c) }

// DeclareInterface appends an interface declaration of name.
func (t *Table) DeclareInterface(name string, c Coordinate) { t.add(Interfaces, Declaration, name, c) }

// UseInterface appends an interface use.
func (t *Table) UseInterface(name string, c Coordinate) { t.add(Interfaces, Use, name, c) }

// DeclareCallable appends a method, function or constructor declaration.
func (t *Table) DeclareCallable(name string, c Coordinate) { t.add(Callables, Declaration, name, c) }

// InvokeCallable appends a call site of name.
func (t *Table) InvokeCallable(name string, c Coordinate) { t.add(Callables, Use, name, c) }

// DeclareField appends a field declaration of name.
func (t *Table) DeclareField(name string, c Coordinate) { t.add(Fields, Declaration, name, c) }

// AccessField appends a field access.
func (t *Table) AccessField(name string, c Coordinate) { t.add(Fields, Use, name, c) }

// DeclareVariable appends a local variable or parameter declaration.
func (t *Table) DeclareVariable(name string, c Coordinate) { t.add(Variables, Declaration, name, c) }

// AccessVariable appends a variable read or write that is not a declaration.
func (t *Table) AccessVariable(name string, c Coordinate) { t.add(Variables, Use, name, c) }

// RecordImport records an import site. Imports have no declarations.
func (t *Table) RecordImport(name string, c Coordinate) { t.add(Imports, Use, name, c) }

// Package returns the package name, if one was recorded.
func (t *Table) Package() (string, bool) {
	return t.pkg, t.hasPkg
}

// Entry returns the entry for name in cat.
func (t *Table) Entry(cat Category, name string) (*Entry, bool) {
	return t.cats[cat].Get(name)
}

// IsInterface reports whether name has been declared as an interface so far.
func (t *Table) IsInterface(name string) bool {
	e, ok := t.cats[Interfaces].Get(name)
	return ok && len(e.Declarations) > 0
}

// Names returns the names of cat in insertion order.
func (t *Table) Names(cat Category) []string {
	m := t.cats[cat]
	names := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of distinct names in cat.
func (t *Table) Len(cat Category) int {
	return t.cats[cat].Len()
}

// Occurrences flattens the table: categories in serialization order, names
// in insertion order, declarations before uses.
func (t *Table) Occurrences() []Occurrence {
	var out []Occurrence
	for _, cat := range Categories() {
		for pair := t.cats[cat].Oldest(); pair != nil; pair = pair.Next() {
			for _, c := range pair.Value.Declarations {
				out = append(out, Occurrence{cat, pair.Key, Declaration, c})
			}
			for _, c := range pair.Value.Uses {
				out = append(out, Occurrence{cat, pair.Key, Use, c})
			}
		}
	}
	return out
}

// Equal reports whether both tables hold the same package, the same names
// in the same order, and the same occurrence lists.
func (t *Table) Equal(o *Table) bool {
	if t.hasPkg != o.hasPkg || t.pkg != o.pkg {
		return false
	}
	for _, cat := range Categories() {
		a, b := t.cats[cat], o.cats[cat]
		if a.Len() != b.Len() {
			return false
		}
		for pa, pb := a.Oldest(), b.Oldest(); pa != nil; pa, pb = pa.Next(), pb.Next() {
			if pa.Key != pb.Key ||
				!slices.Equal(pa.Value.Declarations, pb.Value.Declarations) ||
				!slices.Equal(pa.Value.Uses, pb.Value.Uses) {
				return false
			}
		}
	}
	return true
}
