package walker

import (
	"symdex/internal/syntax"
)

var rubyGrammar = &Grammar{
	Language: syntax.LangRuby,
	rules: map[string]rule{
		"module":           {kind: KindPackage, name: "name"},
		"class":            {kind: KindTypeDecl, name: "name", body: "body", deepEnd: true},
		"method":           {kind: KindCallableDecl, name: "name", body: "body", deepEnd: true},
		"singleton_method": {kind: KindCallableDecl, name: "name", body: "body", deepEnd: true},
	},
	simple:    set("identifier", "constant", "instance_variable", "class_variable", "setter", "operator"),
	qualified: set("scope_resolution"),
	comments:  set("comment"),
	nested: map[string][]string{
		"if":     {"consequence"},
		"unless": {"consequence"},
	},
	contextual: rubyContextual,
	imports:    rubyImports,
}

// Methods whose string arguments name loaded files.
var rubyRequires = set("require", "require_relative", "load")

// Identifiers under these parents are part of a larger name.
var rubyNameParents = set(
	"setter",
	"alias",
	"undef",
	"scope_resolution",
)

// Parents whose identifier children are always bound names.
var rubyBindingParents = set(
	"method_parameters",
	"block_parameters",
	"lambda_parameters",
	"exception_variable",
	"left_assignment_list",
	"destructured_left_assignment",
	"rest_assignment",
)

var rubyNamedParameters = set(
	"optional_parameter",
	"keyword_parameter",
	"splat_parameter",
	"hash_splat_parameter",
	"block_parameter",
)

func rubyContextual(t *syntax.Tree, n *syntax.Node) (rule, bool) {
	switch n.Kind {
	case "call":
		return rubyCall(t, n), true
	case "identifier":
		return rubyIdentifier(n), true
	case "instance_variable", "class_variable":
		if p := n.Parent; p != nil && p.Kind == "assignment" && n.Field == "left" {
			return rule{kind: KindFieldDecl, name: nameSelf}, true
		}
		return rule{kind: KindFieldAccess, name: nameSelf}, true
	}
	return rule{}, false
}

// rubyCall classifies a call: require-style loads are imports, Const.new is
// an instance creation and everything else invokes the method.
func rubyCall(t *syntax.Tree, n *syntax.Node) rule {
	method := n.ChildByField("method")
	if method == nil {
		return rule{}
	}
	name := t.Text(method)
	recv := n.ChildByField("receiver")

	switch {
	case recv == nil && method.Kind == "identifier" && rubyRequires[name]:
		return rule{kind: KindImport}
	case recv != nil && name == "new" && (recv.Kind == "constant" || recv.Kind == "scope_resolution"):
		return rule{kind: KindInstanceCreation, name: "receiver"}
	}
	return rule{kind: KindInvocation, name: "method"}
}

func rubyIdentifier(n *syntax.Node) rule {
	p := n.Parent
	if p == nil || rubyNameParents[p.Kind] {
		return rule{}
	}
	decl := rule{kind: KindVariableDecl, name: nameSelf}

	switch {
	case rubyBindingParents[p.Kind]:
		return decl
	case rubyNamedParameters[p.Kind]:
		if n.Field == "name" {
			return decl
		}
	case p.Kind == "assignment":
		if n.Field == "left" {
			return decl
		}
	case p.Kind == "for":
		if n.Field == "pattern" {
			return decl
		}
	}

	switch n.Field {
	case "name", "method":
		return rule{}
	}
	return rule{kind: KindVariableAccess, name: nameSelf}
}

// rubyImports returns the literal file names loaded by a require call.
// Interpolated strings are skipped.
func rubyImports(t *syntax.Tree, _ *Grammar, n *syntax.Node) []string {
	args := n.ChildByField("arguments")
	if args == nil {
		return nil
	}
	var names []string
	for _, arg := range args.Children {
		if arg.Kind != "string" {
			continue
		}
		var content *syntax.Node
		interpolated := false
		for _, c := range arg.Children {
			switch c.Kind {
			case "string_content":
				content = c
			case "interpolation":
				interpolated = true
			}
		}
		if content != nil && !interpolated {
			names = append(names, t.Text(content))
		}
	}
	return names
}
