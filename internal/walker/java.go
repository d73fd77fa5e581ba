package walker

import (
	"symdex/internal/syntax"
)

var javaGrammar = &Grammar{
	Language: syntax.LangJava,
	rules: map[string]rule{
		"package_declaration": {kind: KindPackage, name: nameFirst},

		"class_declaration":           {kind: KindTypeDecl, name: "name", body: "body"},
		"enum_declaration":            {kind: KindTypeDecl, name: "name", body: "body"},
		"record_declaration":          {kind: KindTypeDecl, name: "name", body: "body"},
		"interface_declaration":       {kind: KindTypeDecl, name: "name", body: "body", iface: true},

		"method_declaration":              {kind: KindCallableDecl, name: "name", body: "body"},
		"constructor_declaration":         {kind: KindCallableDecl, name: "name", body: "body"},
		"compact_constructor_declaration": {kind: KindCallableDecl, name: "name", body: "body"},

		"enum_constant":          {kind: KindFieldDecl, name: "name", startAtName: true},
		"formal_parameter":       {kind: KindVariableDecl, name: "name", startAtName: true},
		"catch_formal_parameter": {kind: KindVariableDecl, name: "name", startAtName: true},
		"resource":               {kind: KindVariableDecl, name: "name", startAtName: true},

		"method_invocation":          {kind: KindInvocation, name: "name"},
		"field_access":               {kind: KindFieldAccess, name: "field"},
		"object_creation_expression": {kind: KindInstanceCreation, name: "type"},
		"import_declaration":         {kind: KindImport, name: nameFirst},
	},
	simple:     set("identifier", "type_identifier"),
	qualified:  set("scoped_identifier", "scoped_type_identifier"),
	unwrap:     map[string]string{"generic_type": nameFirst},
	comments:   set("line_comment", "block_comment", "comment"),
	contextual: javaContextual,
	imports:    javaImports,
}

// Identifiers under these parents are part of a larger name or are labels.
var javaNameParents = set(
	"scoped_identifier",
	"scoped_type_identifier",
	"package_declaration",
	"import_declaration",
	"labeled_statement",
	"break_statement",
	"continue_statement",
	"marker_annotation",
	"annotation",
	"method_reference",
	"element_value_pair",
	"module_declaration",
	"requires_module_directive",
	"exports_module_directive",
	"opens_module_directive",
	"uses_module_directive",
	"provides_module_directive",
)

func javaContextual(_ *syntax.Tree, n *syntax.Node) (rule, bool) {
	switch n.Kind {
	case "variable_declarator":
		if p := n.Parent; p != nil && (p.Kind == "field_declaration" || p.Kind == "constant_declaration") {
			return rule{kind: KindFieldDecl, name: "name", startAtName: true}, true
		}
		return rule{kind: KindVariableDecl, name: "name", startAtName: true}, true
	case "identifier":
		return javaIdentifier(n), true
	}
	return rule{}, false
}

func javaIdentifier(n *syntax.Node) rule {
	p := n.Parent
	if p == nil {
		return rule{}
	}
	decl := rule{kind: KindVariableDecl, name: nameSelf}

	switch p.Kind {
	case "inferred_parameters":
		return decl
	case "lambda_expression":
		if n.Field == "parameters" {
			return decl
		}
	case "enhanced_for_statement", "instanceof_expression":
		if n.Field == "name" {
			return decl
		}
	}

	if javaNameParents[p.Kind] {
		return rule{}
	}
	switch n.Field {
	case "name", "field":
		return rule{}
	}
	return rule{kind: KindVariableAccess, name: nameSelf}
}

func javaImports(t *syntax.Tree, g *Grammar, n *syntax.Node) []string {
	name := g.nameText(t, g.nameNode(n, rule{name: nameFirst}))
	if name == "" {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == "asterisk" {
			name += ".*"
			break
		}
	}
	return []string{name}
}
