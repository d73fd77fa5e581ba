package symtab

import (
	"reflect"
	"testing"
)

func TestCoordinate(t *testing.T) {
	c := At(3, 7)
	if c.Start() != (Point{3, 7}) {
		t.Errorf("Start() = %v, want 3:7", c.Start())
	}
	if _, ok := c.End(); ok {
		t.Error("At() should have no end")
	}
	if c.String() != "3:7" {
		t.Errorf("String() = %q", c.String())
	}

	s := Span(Point{1, 2}, Point{4, 0})
	end, ok := s.End()
	if !ok || end != (Point{4, 0}) {
		t.Errorf("End() = %v, %v, want 4:0, true", end, ok)
	}
	if s.String() != "1:2-4:0" {
		t.Errorf("String() = %q", s.String())
	}

	if At(1, 2) == Span(Point{1, 2}, Point{0, 0}) {
		t.Error("a coordinate without an end must differ from one ending at 0:0")
	}
}

func TestTable_AppendsInVisitOrder(t *testing.T) {
	tab := New()
	tab.DeclareCallable("m", Span(Point{1, 2}, Point{2, 4}))
	tab.InvokeCallable("m", At(5, 8))
	tab.DeclareCallable("m", At(7, 2))
	tab.InvokeCallable("n", At(6, 0))

	e, ok := tab.Entry(Callables, "m")
	if !ok {
		t.Fatal("entry m missing")
	}
	wantDecl := []Coordinate{Span(Point{1, 2}, Point{2, 4}), At(7, 2)}
	if !reflect.DeepEqual(e.Declarations, wantDecl) {
		t.Errorf("Declarations = %v, want %v", e.Declarations, wantDecl)
	}
	if !reflect.DeepEqual(e.Uses, []Coordinate{At(5, 8)}) {
		t.Errorf("Uses = %v", e.Uses)
	}

	if got := tab.Names(Callables); !reflect.DeepEqual(got, []string{"m", "n"}) {
		t.Errorf("Names() = %v, want [m n]", got)
	}
	if tab.Len(Callables) != 2 {
		t.Errorf("Len() = %d, want 2", tab.Len(Callables))
	}
}

func TestTable_CategoriesAreIndependent(t *testing.T) {
	tab := New()
	tab.DeclareType("A", At(0, 0))
	tab.UseType("A", At(1, 0))
	tab.DeclareInterface("I", At(2, 0))
	tab.UseInterface("I", At(3, 0))
	tab.DeclareField("x", At(4, 0))
	tab.AccessField("x", At(5, 0))
	tab.DeclareVariable("x", At(6, 0))
	tab.AccessVariable("x", At(7, 0))
	tab.RecordImport("java.util.List", At(8, 0))

	tests := []struct {
		cat       Category
		name      string
		wantDecls int
		wantUses  int
	}{
		{Types, "A", 1, 1},
		{Interfaces, "I", 1, 1},
		{Fields, "x", 1, 1},
		{Variables, "x", 1, 1},
		{Imports, "java.util.List", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			e, ok := tab.Entry(tt.cat, tt.name)
			if !ok {
				t.Fatalf("entry %s missing", tt.name)
			}
			if len(e.Declarations) != tt.wantDecls || len(e.Uses) != tt.wantUses {
				t.Errorf("got %d decls %d uses, want %d/%d",
					len(e.Declarations), len(e.Uses), tt.wantDecls, tt.wantUses)
			}
		})
	}

	if _, ok := tab.Entry(Types, "I"); ok {
		t.Error("interface leaked into types")
	}
	if !tab.IsInterface("I") || tab.IsInterface("A") {
		t.Error("IsInterface should only match declared interfaces")
	}
}

func TestTable_IgnoresEmptyNames(t *testing.T) {
	tab := New()
	tab.DeclareType("", At(0, 0))
	tab.RecordImport("", At(0, 0))
	tab.SetPackage("")

	for _, cat := range Categories() {
		if tab.Len(cat) != 0 {
			t.Errorf("%s should stay empty", cat)
		}
	}
	if _, ok := tab.Package(); ok {
		t.Error("empty package name should be ignored")
	}
}

func TestTable_Package(t *testing.T) {
	tab := New()
	if _, ok := tab.Package(); ok {
		t.Error("new table should have no package")
	}
	tab.SetPackage("a.b")
	tab.SetPackage("c")
	if pkg, ok := tab.Package(); !ok || pkg != "c" {
		t.Errorf("Package() = %q, %v, want c, true", pkg, ok)
	}
}

func TestTable_Occurrences(t *testing.T) {
	tab := New()
	tab.InvokeCallable("f", At(2, 0))
	tab.DeclareType("A", At(0, 0))
	tab.DeclareCallable("f", At(1, 0))

	want := []Occurrence{
		{Types, "A", Declaration, At(0, 0)},
		{Callables, "f", Declaration, At(1, 0)},
		{Callables, "f", Use, At(2, 0)},
	}
	if got := tab.Occurrences(); !reflect.DeepEqual(got, want) {
		t.Errorf("Occurrences() = %v, want %v", got, want)
	}
}

func TestTable_Equal(t *testing.T) {
	build := func() *Table {
		tab := New()
		tab.SetPackage("p")
		tab.DeclareType("A", Span(Point{0, 0}, Point{3, 1}))
		tab.AccessVariable("x", At(2, 4))
		return tab
	}

	a, b := build(), build()
	if !a.Equal(b) {
		t.Error("identically built tables should be equal")
	}

	b.AccessVariable("x", At(2, 9))
	if a.Equal(b) {
		t.Error("extra use should break equality")
	}

	c := build()
	c.SetPackage("q")
	if a.Equal(c) {
		t.Error("different package should break equality")
	}
}
