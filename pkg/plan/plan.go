// Package plan decodes declarative YAML plan files into physical operator
// trees. A plan file names a source graph snapshot and a pipeline of steps;
// expressions are written structurally (the engine consumes operator and
// expression trees and never parses query text).
//
// Example plan:
//
//	graph: social.yaml
//	pipeline:
//	  - scan: {variable: n, labels: [Person], properties: [name, age]}
//	  - filter:
//	      op: ">="
//	      left: {prop: n.age}
//	      right: {lit: 30}
//	  - construct:
//	      graph: adults
//	      nodes:
//	        - name: a
//	          base: n
//	          labels: [Adult]
package plan

// File is a decoded plan file.
type File struct {
	Graph    string `yaml:"graph"`
	Pipeline []Step `yaml:"pipeline"`
}

// Step is one pipeline stage. Exactly one field must be set.
type Step struct {
	Scan      *ScanStep      `yaml:"scan,omitempty"`
	ScanRels  *RelScanStep   `yaml:"scan_rels,omitempty"`
	Filter    *ExprNode      `yaml:"filter,omitempty"`
	Project   *ProjectStep   `yaml:"project,omitempty"`
	Select    []string       `yaml:"select,omitempty"`
	Distinct  []string       `yaml:"distinct,omitempty"`
	OrderBy   []OrderItem    `yaml:"order_by,omitempty"`
	Group     *GroupStep     `yaml:"group,omitempty"`
	Limit     *LimitStep     `yaml:"limit,omitempty"`
	Construct *ConstructStep `yaml:"construct,omitempty"`
}

// ScanStep scans nodes of the source graph.
type ScanStep struct {
	Variable   string   `yaml:"variable"`
	Labels     []string `yaml:"labels,omitempty"`
	Properties []string `yaml:"properties,omitempty"`
}

// RelScanStep scans relationships of the source graph.
type RelScanStep struct {
	Variable   string   `yaml:"variable"`
	Source     string   `yaml:"source"`
	Target     string   `yaml:"target"`
	Type       string   `yaml:"type,omitempty"`
	Properties []string `yaml:"properties,omitempty"`
}

// ProjectStep binds an evaluated expression to a field.
type ProjectStep struct {
	Field string   `yaml:"field"`
	Expr  ExprNode `yaml:"expr"`
}

// OrderItem is one sort key.
type OrderItem struct {
	Expr ExprNode `yaml:"expr"`
	Desc bool     `yaml:"desc,omitempty"`
}

// GroupStep partitions by keys and computes aggregates.
type GroupStep struct {
	Keys       []KeyItem `yaml:"keys,omitempty"`
	Aggregates []AggItem `yaml:"aggregates,omitempty"`
}

// KeyItem is one grouping key and its output field.
type KeyItem struct {
	Field string   `yaml:"field"`
	Expr  ExprNode `yaml:"expr"`
}

// AggItem is one aggregate output. Fn is count, count(*), sum, min, max, or
// collect.
type AggItem struct {
	Field    string    `yaml:"field"`
	Fn       string    `yaml:"fn"`
	Expr     *ExprNode `yaml:"expr,omitempty"`
	Distinct bool      `yaml:"distinct,omitempty"`
}

// LimitStep drops Skip rows then keeps at most Count.
type LimitStep struct {
	Skip  int `yaml:"skip,omitempty"`
	Count int `yaml:"count"`
}

// ConstructStep materializes a new graph from the current table.
type ConstructStep struct {
	Graph         string        `yaml:"graph,omitempty"`
	Nodes         []EntityStep  `yaml:"nodes,omitempty"`
	Relationships []RelSpecStep `yaml:"relationships,omitempty"`
}

// EntityStep describes one node entity to construct.
type EntityStep struct {
	Name       string              `yaml:"name"`
	Base       string              `yaml:"base,omitempty"`
	Labels     []string            `yaml:"labels,omitempty"`
	GroupBy    []string            `yaml:"group_by,omitempty"`
	Properties map[string]ExprNode `yaml:"properties,omitempty"`
}

// RelSpecStep describes one relationship entity to construct.
type RelSpecStep struct {
	Name       string              `yaml:"name"`
	Base       string              `yaml:"base,omitempty"`
	Type       string              `yaml:"type,omitempty"`
	Source     string              `yaml:"source"`
	Target     string              `yaml:"target"`
	GroupBy    []string            `yaml:"group_by,omitempty"`
	Properties map[string]ExprNode `yaml:"properties,omitempty"`
}

// ExprNode is the structural form of an expression. Exactly one of the
// variant fields must be set; Op takes Left and Right.
type ExprNode struct {
	Lit  *any       `yaml:"lit,omitempty"`
	Var  string     `yaml:"var,omitempty"`
	Prop string     `yaml:"prop,omitempty"` // "variable.property"
	List []ExprNode `yaml:"list,omitempty"`

	Not *ExprNode  `yaml:"not,omitempty"`
	And []ExprNode `yaml:"and,omitempty"`
	Or  []ExprNode `yaml:"or,omitempty"`

	// Op is a comparison ("=", "<>", "<", "<=", ">", ">=") or arithmetic
	// ("+", "-", "*", "/", "%") operator over Left and Right.
	Op    string    `yaml:"op,omitempty"`
	Left  *ExprNode `yaml:"left,omitempty"`
	Right *ExprNode `yaml:"right,omitempty"`
}
