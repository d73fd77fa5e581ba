// Package symtab holds the per-compilation-unit symbol table: for every
// name, the ordered places where it is declared and used.
package symtab

import (
	"encoding/json"
	"fmt"
)

// Absent is the serialized value of a missing end line or column.
const Absent = -1

// Point is a 0-based line and code point column.
type Point struct {
	Line int
	Col  int
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Coordinate is a source location: a start point and an optional end point.
// The zero value is 0:0 with no end.
type Coordinate struct {
	start  Point
	end    Point
	hasEnd bool
}

// At returns a coordinate with only a start.
func At(line, col int) Coordinate {
	return Coordinate{start: Point{Line: line, Col: col}}
}

// Span returns a coordinate with both a start and an end.
func Span(start, end Point) Coordinate {
	return Coordinate{start: start, end: end, hasEnd: true}
}

// Start returns the start point.
func (c Coordinate) Start() Point { return c.start }

// End returns the end point and whether one is present.
func (c Coordinate) End() (Point, bool) { return c.end, c.hasEnd }

func (c Coordinate) String() string {
	if c.hasEnd {
		return c.start.String() + "-" + c.end.String()
	}
	return c.start.String()
}

func (c Coordinate) quad() [4]int {
	if c.hasEnd {
		return [4]int{c.start.Line, c.start.Col, c.end.Line, c.end.Col}
	}
	return [4]int{c.start.Line, c.start.Col, Absent, Absent}
}

func fromQuad(q [4]int) (Coordinate, error) {
	if q[0] < 0 || q[1] < 0 {
		return Coordinate{}, fmt.Errorf("negative start %d:%d", q[0], q[1])
	}
	switch {
	case q[2] == Absent && q[3] == Absent:
		return At(q[0], q[1]), nil
	case q[2] >= 0 && q[3] >= 0:
		return Span(Point{q[0], q[1]}, Point{q[2], q[3]}), nil
	default:
		return Coordinate{}, fmt.Errorf("partial end %d:%d", q[2], q[3])
	}
}

// MarshalJSON renders [startLine, startCol, endLine, endCol] with -1 for an absent end.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	q := c.quad()
	return []byte(fmt.Sprintf("[%d,%d,%d,%d]", q[0], q[1], q[2], q[3])), nil
}

// UnmarshalJSON parses the four-element array form.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("coordinate: want 4 elements, got %d", len(raw))
	}
	parsed, err := fromQuad([4]int{raw[0], raw[1], raw[2], raw[3]})
	if err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	*c = parsed
	return nil
}

// Role tells declarations apart from uses.
type Role int

const (
	Declaration Role = iota
	Use
)

func (r Role) String() string {
	if r == Declaration {
		return "declaration"
	}
	return "use"
}

// Category is one of the six independent name spaces of a table.
type Category int

const (
	Types Category = iota
	Interfaces
	Callables
	Fields
	Variables
	Imports

	numCategories
)

// Categories returns every category in serialization order.
func Categories() []Category {
	return []Category{Types, Interfaces, Callables, Fields, Variables, Imports}
}

func (c Category) String() string {
	switch c {
	case Types:
		return "types"
	case Interfaces:
		return "interfaces"
	case Callables:
		return "callables"
	case Fields:
		return "fields"
	case Variables:
		return "variables"
	case Imports:
		return "imports"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Occurrence is one flattened table record.
type Occurrence struct {
	Category   Category
	Name       string
	Role       Role
	Coordinate Coordinate
}

func (o Occurrence) String() string {
	return fmt.Sprintf("%s %s %s@%s", o.Category, o.Role, o.Name, o.Coordinate)
}
