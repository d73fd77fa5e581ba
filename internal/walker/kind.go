// Package walker builds a symbol table from a parsed compilation unit.
package walker

// Kind is the closed set of node roles the walker acts on. Every node that
// maps to KindNone is traversed without being inspected.
type Kind int

const (
	KindNone Kind = iota
	KindPackage
	KindTypeDecl
	KindCallableDecl
	KindInvocation
	KindFieldDecl
	KindFieldAccess
	KindVariableDecl
	KindVariableAccess
	KindInstanceCreation
	KindImport
)

var kindNames = [...]string{
	KindNone:             "none",
	KindPackage:          "package",
	KindTypeDecl:         "type-declaration",
	KindCallableDecl:     "callable-declaration",
	KindInvocation:       "invocation",
	KindFieldDecl:        "field-declaration",
	KindFieldAccess:      "field-access",
	KindVariableDecl:     "variable-declaration",
	KindVariableAccess:   "variable-access",
	KindInstanceCreation: "instance-creation",
	KindImport:           "import",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// declares reports whether nodes of this kind open a declaration record.
func (k Kind) declares() bool {
	switch k {
	case KindPackage, KindTypeDecl, KindCallableDecl, KindFieldDecl, KindVariableDecl:
		return true
	}
	return false
}
