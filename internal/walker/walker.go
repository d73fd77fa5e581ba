package walker

import (
	"symdex/internal/symtab"
	"symdex/internal/syntax"
)

// record is an open declaration waiting for its name.
type record struct {
	node  *syntax.Node
	rule  rule
	name  string
	start symtab.Point
	end   *symtab.Point
}

type frame struct {
	node *syntax.Node
	exit bool
}

// walk holds the state of one traversal.
type walk struct {
	tree    *syntax.Tree
	g       *Grammar
	table   *symtab.Table
	records []*record
}

// Walk builds a fresh symbol table for tree using the grammar of its language.
func Walk(tree *syntax.Tree) (*symtab.Table, error) {
	g, err := GrammarFor(tree.Language)
	if err != nil {
		return nil, err
	}
	table := symtab.New()
	WalkInto(tree, g, table)
	return table, nil
}

// WalkInto traverses tree once and inserts every occurrence into table.
// Traversal uses an explicit stack, so deeply nested input cannot exhaust
// the goroutine stack.
func WalkInto(tree *syntax.Tree, g *Grammar, table *symtab.Table) {
	if tree == nil || tree.Root == nil {
		return
	}
	w := &walk{tree: tree, g: g, table: table}

	stack := []frame{{node: tree.Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.exit {
			w.leave(f.node)
			continue
		}

		w.enter(f.node)
		stack = append(stack, frame{node: f.node, exit: true})
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i]})
		}
	}
}

func (w *walk) enter(n *syntax.Node) {
	w.captureName(n)

	r := w.g.classify(w.tree, n)
	switch {
	case r.kind == KindNone:
		return
	case r.kind.declares() && r.name != nameSelf:
		w.open(n, r)
	case r.kind.declares():
		w.declare(r, w.g.nameText(w.tree, n), w.point(n.StartByte), nil)
	default:
		w.use(n, r)
	}
}

func (w *walk) leave(n *syntax.Node) {
	if len(w.records) == 0 {
		return
	}
	top := w.records[len(w.records)-1]
	if top.node != n {
		return
	}
	w.records = w.records[:len(w.records)-1]
	if top.name != "" {
		w.declare(top.rule, top.name, top.start, top.end)
	}
}

// open pushes a declaration record. The end is known up front; the name
// arrives when the walker reaches the name child.
func (w *walk) open(n *syntax.Node, r rule) {
	rec := &record{node: n, rule: r, start: w.point(n.StartByte)}
	if last := w.g.lastMember(n, r); last != nil {
		end := w.point(last.StartByte)
		rec.end = &end
	}
	w.records = append(w.records, rec)
}

// captureName fills the open record whose name child is n.
func (w *walk) captureName(n *syntax.Node) {
	if n.Parent == nil {
		return
	}
	for i := len(w.records) - 1; i >= 0; i-- {
		rec := w.records[i]
		if rec.node != n.Parent {
			continue
		}
		if rec.name == "" && w.g.isNameChild(rec.node, rec.rule, n) {
			rec.name = w.g.nameText(w.tree, n)
			if rec.rule.startAtName {
				rec.start = w.point(n.StartByte)
			}
		}
		return
	}
}

func (w *walk) declare(r rule, name string, start symtab.Point, end *symtab.Point) {
	c := symtab.At(start.Line, start.Col)
	if end != nil {
		c = symtab.Span(start, *end)
	}

	switch r.kind {
	case KindPackage:
		w.table.SetPackage(name)
	case KindTypeDecl:
		if r.iface {
			w.table.DeclareInterface(name, c)
		} else {
			w.table.DeclareType(name, c)
		}
	case KindCallableDecl:
		w.table.DeclareCallable(name, c)
	case KindFieldDecl:
		w.table.DeclareField(name, symtab.At(start.Line, start.Col))
	case KindVariableDecl:
		w.table.DeclareVariable(name, symtab.At(start.Line, start.Col))
	}
}

func (w *walk) use(n *syntax.Node, r rule) {
	p := w.point(n.StartByte)
	c := symtab.At(p.Line, p.Col)

	if r.kind == KindImport {
		if w.g.imports == nil {
			return
		}
		for _, name := range w.g.imports(w.tree, w.g, n) {
			w.table.RecordImport(name, c)
		}
		return
	}

	name := w.g.nameText(w.tree, w.g.nameNode(n, r))
	switch r.kind {
	case KindInvocation:
		w.table.InvokeCallable(name, c)
	case KindFieldAccess:
		w.table.AccessField(name, c)
	case KindVariableAccess:
		w.table.AccessVariable(name, c)
	case KindInstanceCreation:
		if w.table.IsInterface(name) {
			w.table.UseInterface(name, c)
		} else {
			w.table.UseType(name, c)
		}
	}
}

func (w *walk) point(offset int) symtab.Point {
	p := w.tree.Position(offset)
	return symtab.Point{Line: p.Line, Col: p.Column}
}
