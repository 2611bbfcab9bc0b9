package ast

// VariableTarget is one assignable slot in a `set`: a variable name,
// optionally forced to a scope, optionally typed (informational), with zero
// or more `[expr]` subscripts applied after resolution.
type VariableTarget struct {
	Base
	Name       string
	Scope      VariableScope
	TypeName   string // informational, from `set x: Type to ...`
	Subscripts []Expression
}

func (n *VariableTarget) targetNode() {}

// Accept is a no-op: targets are consumed directly by the compiler's
// VisitAssignment via a type switch rather than through Visitor dispatch.
func (n *VariableTarget) Accept(v Visitor) {}

// StructuredTarget is tuple destructuring: `set (a, b) to pair`.
type StructuredTarget struct {
	Base
	Targets []Target
}

func (n *StructuredTarget) targetNode()    {}
func (n *StructuredTarget) Accept(v Visitor) {}
