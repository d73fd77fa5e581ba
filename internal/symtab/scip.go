package symtab

import (
	"fmt"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
)

// SCIPScheme is the scheme of every global symbol symdex emits.
const SCIPScheme = "symdex"

// ToSCIP renders t as a SCIP document for relativePath. symdex records
// start points only, so occurrence ranges are empty ranges at the start;
// spans with an end become the enclosing range.
func ToSCIP(t *Table, relativePath, language string) *scippb.Document {
	doc := &scippb.Document{
		RelativePath:     relativePath,
		Language:         scipLanguage(language),
		PositionEncoding: scippb.PositionEncoding_UTF32CodeUnitOffsetFromLineStart,
	}

	pkg, _ := t.Package()
	locals := 0

	for _, cat := range Categories() {
		for pair := t.cats[cat].Oldest(); pair != nil; pair = pair.Next() {
			name, entry := pair.Key, pair.Value

			var symbol string
			if cat == Variables {
				symbol = fmt.Sprintf("local %d", locals)
				locals++
			} else {
				symbol = globalSymbol(pkg, cat, name)
			}

			for _, c := range entry.Declarations {
				doc.Occurrences = append(doc.Occurrences, scipOccurrence(symbol, c, scippb.SymbolRole_Definition))
			}
			for _, c := range entry.Uses {
				var role scippb.SymbolRole
				if cat == Imports {
					role = scippb.SymbolRole_Import
				} else {
					role = scippb.SymbolRole_ReadAccess
				}
				doc.Occurrences = append(doc.Occurrences, scipOccurrence(symbol, c, role))
			}

			if len(entry.Declarations) > 0 {
				doc.Symbols = append(doc.Symbols, &scippb.SymbolInformation{
					Symbol:      symbol,
					Kind:        scipKind(cat),
					DisplayName: name,
				})
			}
		}
	}
	return doc
}

func scipOccurrence(symbol string, c Coordinate, role scippb.SymbolRole) *scippb.Occurrence {
	start := c.Start()
	occ := &scippb.Occurrence{
		Range:       []int32{int32(start.Line), int32(start.Col), int32(start.Col)},
		Symbol:      symbol,
		SymbolRoles: int32(role),
	}
	if end, ok := c.End(); ok {
		occ.EnclosingRange = []int32{int32(start.Line), int32(start.Col), int32(end.Line), int32(end.Col)}
	}
	return occ
}

func scipKind(cat Category) scippb.SymbolInformation_Kind {
	switch cat {
	case Types:
		return scippb.SymbolInformation_Class
	case Interfaces:
		return scippb.SymbolInformation_Interface
	case Callables:
		return scippb.SymbolInformation_Method
	case Fields:
		return scippb.SymbolInformation_Field
	case Variables:
		return scippb.SymbolInformation_Variable
	default:
		return scippb.SymbolInformation_UnspecifiedKind
	}
}

func scipLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "java":
		return "Java"
	case "python":
		return "Python"
	case "ruby":
		return "Ruby"
	default:
		return lang
	}
}

// globalSymbol builds "symdex . . . <namespaces>/<descriptor>". Names are
// merged across scopes, so every symbol hangs directly off the package.
func globalSymbol(pkg string, cat Category, name string) string {
	var b strings.Builder
	b.WriteString(SCIPScheme + " . . . ")
	for _, part := range splitQualified(pkg) {
		b.WriteString(escapeDescriptor(part) + "/")
	}

	switch cat {
	case Types, Interfaces:
		b.WriteString(escapeDescriptor(name) + "#")
	case Callables:
		b.WriteString(escapeDescriptor(name) + "().")
	case Fields:
		b.WriteString(escapeDescriptor(name) + ".")
	case Imports:
		parts := splitQualified(name)
		if n := len(parts); n > 0 && parts[n-1] == "*" {
			parts = parts[:n-1]
		}
		for _, part := range parts {
			b.WriteString(escapeDescriptor(part) + "/")
		}
	}
	return b.String()
}

func splitQualified(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(name, "::", "."), ".")
}

func escapeDescriptor(s string) string {
	if s == "" {
		return "``"
	}
	for _, r := range s {
		if !(r == '_' || r == '+' || r == '-' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "`" + strings.ReplaceAll(s, "`", "``") + "`"
		}
	}
	return s
}
