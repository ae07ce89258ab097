package construct

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/graph"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
	"github.com/orneryd/vegvisir/pkg/values"
)

// entityGroup is one allocated entity: the rows that mapped to its
// construction key, in encounter order.
type entityGroup struct {
	id    int64
	first record.Row
	rows  []record.Row
}

// Build runs one construction pass: it classifies the descriptor's entities,
// derives each entity's effective grouping keys, allocates identifiers per
// group, computes properties (routing aggregate designators through the
// grouping primitive), and emits the constructed nodes and relationships
// into a new graph named by the descriptor.
//
// source is the working graph the match table was produced from; it supplies
// base entities for cloning and matched endpoint nodes. It may be nil when
// the descriptor uses neither.
//
// Nodes are constructed before relationships so endpoint identifiers exist
// when relationships need them.
func Build(d *Descriptor, matched *table.Table, header *record.Header, source *graph.Graph, alloc *Allocator) (*graph.Graph, error) {
	out := graph.New(d.GraphName)
	alloc.BeginPass()
	if source != nil {
		alloc.EnsureAtLeast(source.MaxID() + 1)
	}

	rows := matched.Rows()
	// Per match row: entity name -> identifier allocated for that row.
	rowIDs := make([]map[string]int64, len(rows))
	for i := range rowIDs {
		rowIDs[i] = make(map[string]int64)
	}

	for _, spec := range d.Nodes {
		if err := buildNodes(spec, rows, rowIDs, header, source, alloc, out); err != nil {
			return nil, err
		}
	}
	for _, spec := range d.Relationships {
		if err := buildRelationships(spec, rows, rowIDs, header, source, alloc, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildNodes(spec NodeSpec, rows []record.Row, rowIDs []map[string]int64,
	header *record.Header, source *graph.Graph, alloc *Allocator, out *graph.Graph) error {

	keys, err := groupingFields(spec.Base, spec.GroupBy, header, rows)
	if err != nil {
		return fmt.Errorf("node %q: %w", spec.Name, err)
	}

	groups, err := groupRows(spec.Name, keys, nil, rows, rowIDs, alloc)
	if err != nil {
		return fmt.Errorf("node %q: %w", spec.Name, err)
	}

	for _, g := range groups {
		labels := append([]string(nil), spec.Labels...)
		props := make(map[string]values.Value)

		if spec.Base != "" {
			base, err := baseNode(spec.Base, g.first, source)
			if err != nil {
				return fmt.Errorf("node %q: %w", spec.Name, err)
			}
			labels = mergeLabels(base.Labels, labels)
			for k, v := range base.Properties {
				props[k] = v
			}
		}

		if err := applyItems(spec.Name, spec.Items, g, props); err != nil {
			return fmt.Errorf("node %q: %w", spec.Name, err)
		}

		if err := out.AddNode(&graph.Node{ID: g.id, Labels: labels, Properties: props}); err != nil {
			return fmt.Errorf("node %q: %w", spec.Name, err)
		}
	}
	return nil
}

func buildRelationships(spec RelationshipSpec, rows []record.Row, rowIDs []map[string]int64,
	header *record.Header, source *graph.Graph, alloc *Allocator, out *graph.Graph) error {

	keys, err := groupingFields(spec.Base, spec.GroupBy, header, rows)
	if err != nil {
		return fmt.Errorf("relationship %q: %w", spec.Name, err)
	}

	// The endpoint identifiers join the grouping key per row: relationships
	// are inherently grouped by their endpoints, so even a spec with no
	// explicit keys deduplicates per endpoint pair.
	type endpoints struct{ src, dst int64 }
	ends := make([]endpoints, len(rows))
	for ri, row := range rows {
		src, err := resolveEndpoint(spec.Source, row, rowIDs[ri])
		if err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}
		dst, err := resolveEndpoint(spec.Target, row, rowIDs[ri])
		if err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}
		ends[ri] = endpoints{src: src, dst: dst}
	}

	extraKey := func(ri int) string {
		return fmt.Sprintf("|src=%d|dst=%d", ends[ri].src, ends[ri].dst)
	}
	groups, err := groupRows(spec.Name, keys, extraKey, rows, rowIDs, alloc)
	if err != nil {
		return fmt.Errorf("relationship %q: %w", spec.Name, err)
	}

	// groupRows preserves encounter order, so the group's first row indexes
	// the endpoints computed above.
	firstIndex := make(map[int64]int, len(groups))
	for ri := range rows {
		id := rowIDs[ri][spec.Name]
		if _, ok := firstIndex[id]; !ok {
			firstIndex[id] = ri
		}
	}

	for _, g := range groups {
		ri := firstIndex[g.id]
		relType := spec.Type
		props := make(map[string]values.Value)

		if spec.Base != "" {
			base, err := baseRelationship(spec.Base, g.first, source)
			if err != nil {
				return fmt.Errorf("relationship %q: %w", spec.Name, err)
			}
			if relType == "" {
				relType = base.Type
			}
			for k, v := range base.Properties {
				props[k] = v
			}
		}
		if relType == "" {
			return fmt.Errorf("%w: relationship %q has no type", ErrNotImplemented, spec.Name)
		}

		if err := applyItems(spec.Name, spec.Items, g, props); err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}

		if err := ensureEndpoint(out, source, ends[ri].src); err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}
		if err := ensureEndpoint(out, source, ends[ri].dst); err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}
		rel := &graph.Relationship{
			ID:         g.id,
			Source:     ends[ri].src,
			Target:     ends[ri].dst,
			Type:       relType,
			Properties: props,
		}
		if err := out.AddRelationship(rel); err != nil {
			return fmt.Errorf("relationship %q: %w", spec.Name, err)
		}
	}
	return nil
}

// groupingFields derives an entity's effective grouping-key columns: the
// base variable's column when present, plus the decoded explicit groupby
// list. Every name must resolve to a column of the match table's schema.
func groupingFields(base string, groupBy expr.Expr, header *record.Header, rows []record.Row) ([]string, error) {
	if header == nil {
		header = record.NewHeader()
	}
	var keys []string
	if base != "" {
		if !header.Has(base) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGroupingVariable, base)
		}
		keys = append(keys, base)
	}
	if groupBy == nil {
		return keys, nil
	}

	// The groupby expression is evaluated once, against the first row when
	// one exists (groupby lists are almost always literal).
	repr := record.NewRow(nil)
	if len(rows) > 0 {
		repr = rows[0]
	}
	v, err := expr.Evaluate(groupBy, repr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroupingValue, err)
	}
	list, ok := v.AsList()
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidGroupingValue, v.Kind())
	}
	for _, el := range list {
		name, ok := el.AsString()
		if !ok {
			return nil, fmt.Errorf("%w: list element is %s", ErrInvalidGroupingValue, el.Kind())
		}
		if !header.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGroupingVariable, name)
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// groupRows allocates one identifier per construction key and collects each
// key's rows in encounter order. Entities with no grouping key at all (and
// no extraKey) are ungrouped: every row gets a fresh identifier.
func groupRows(name string, keys []string, extraKey func(ri int) string,
	rows []record.Row, rowIDs []map[string]int64, alloc *Allocator) ([]*entityGroup, error) {

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var groups []*entityGroup
	byID := make(map[int64]*entityGroup)

	for ri, row := range rows {
		var id int64
		if len(keys) == 0 && extraKey == nil {
			id = alloc.Fresh()
		} else {
			var sb strings.Builder
			sb.WriteString(name)
			if extraKey != nil {
				sb.WriteString(extraKey(ri))
			}
			for _, k := range sorted {
				v, _ := row.Get(k) // absent key columns group as null
				sb.WriteString("|")
				sb.WriteString(k)
				sb.WriteString("=")
				sb.WriteString(v.Key())
			}
			id, _ = alloc.For(sb.String())
		}
		rowIDs[ri][name] = id

		g, ok := byID[id]
		if !ok {
			g = &entityGroup{id: id, first: row}
			byID[id] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups, nil
}

// applyItems evaluates the spec's property assignments for one group.
// Aggregate designators are computed over the group's rows via the grouping
// primitive; every other expression is evaluated once, against the group's
// first row in encounter order (the documented choice for non-constant
// expressions over a multi-row group).
func applyItems(entity string, items []PropertyItem, g *entityGroup, props map[string]values.Value) error {
	for _, item := range items {
		if item.Variable != "" && item.Variable != entity {
			continue
		}
		agg, ok, err := aggregateDesignator(item.Value)
		if err != nil {
			return fmt.Errorf("property %q: %w", item.Key, err)
		}
		if ok {
			v, err := aggregateOverGroup(agg, g)
			if err != nil {
				return fmt.Errorf("property %q: %w", item.Key, err)
			}
			props[item.Key] = v
			continue
		}
		v, err := expr.Evaluate(item.Value, g.first)
		if err != nil {
			return fmt.Errorf("property %q: %w", item.Key, err)
		}
		props[item.Key] = v
	}
	return nil
}

func aggregateOverGroup(agg expr.Aggregate, g *entityGroup) (values.Value, error) {
	const field = "__agg"
	res, err := table.New(g.rows...).Group(nil, []table.Aggregation{{Field: field, Agg: agg}})
	if err != nil {
		return values.Null(), err
	}
	v, _ := res.Row(0).Get(field)
	return v, nil
}

// designatorRe matches the string forms of an aggregate designator:
// "count", "count(*)", "sum(n.age)", "collect(distinct n.model)",
// "min n.price", "collect distinct n.model".
var designatorRe = regexp.MustCompile(`(?i)^(count|sum|min|max|collect)(?:\s*\(\s*(.*?)\s*\)|\s+(.+))?$`)

var operandRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// aggregateDesignator recognizes property-value expressions that denote an
// aggregate: either an expr.Aggregate marker, or a string literal naming one.
// A string that matches an aggregate name but carries an operand that is not
// a variable or variable.property reference is not treated as a designator;
// it stays an ordinary string value. The exception is a recognized function
// with a malformed call form, which fails with ErrUnsupported rather than
// being swallowed.
func aggregateDesignator(e expr.Expr) (expr.Aggregate, bool, error) {
	if agg, ok := e.(expr.Aggregate); ok {
		return agg, true, nil
	}
	lit, ok := e.(expr.Literal)
	if !ok {
		return expr.Aggregate{}, false, nil
	}
	s, ok := lit.Value.AsString()
	if !ok {
		return expr.Aggregate{}, false, nil
	}
	m := designatorRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return expr.Aggregate{}, false, nil
	}
	fn := expr.AggFn(strings.ToLower(m[1]))
	operand := m[2]
	parenthesized := strings.Contains(s, "(")
	if operand == "" {
		operand = m[3]
	}

	distinct := false
	if rest, found := cutFold(operand, "distinct "); found {
		distinct = true
		operand = strings.TrimSpace(rest)
	}

	switch {
	case operand == "" || operand == "*":
		if fn == expr.AggCount {
			return expr.Aggregate{Fn: expr.AggCountStar}, true, nil
		}
		return expr.Aggregate{}, false, fmt.Errorf("%w: %s without operand", ErrUnsupported, fn)
	case operandRe.MatchString(operand):
		var inner expr.Expr
		if dot := strings.IndexByte(operand, '.'); dot >= 0 {
			inner = expr.Property{Variable: operand[:dot], Key: operand[dot+1:]}
		} else {
			inner = expr.Variable{Name: operand}
		}
		return expr.Aggregate{Fn: fn, Inner: inner, Distinct: distinct}, true, nil
	case parenthesized:
		// "sum(a + b)" names a recognized function but an operand shape the
		// engine does not compute; failing beats silently storing a string.
		return expr.Aggregate{}, false, fmt.Errorf("%w: designator %q", ErrUnsupported, s)
	default:
		// Free text that merely starts with an aggregate name ("count me
		// in") is an ordinary string value.
		return expr.Aggregate{}, false, nil
	}
}

// cutFold is strings.CutPrefix with ASCII case folding.
func cutFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func baseNode(field string, row record.Row, source *graph.Graph) (*graph.Node, error) {
	v, ok := row.Get(field)
	if !ok {
		return nil, fmt.Errorf("%w: base %q missing from row", ErrInvalidGroupingVariable, field)
	}
	ref, ok := v.AsNode()
	if !ok {
		return nil, fmt.Errorf("%w: base %q is %s, not a node", ErrInvalidGroupingVariable, field, v.Kind())
	}
	if source == nil {
		return nil, fmt.Errorf("%w: base %q with no source graph", ErrInvalidGroupingVariable, field)
	}
	return source.Node(ref.ID)
}

func baseRelationship(field string, row record.Row, source *graph.Graph) (*graph.Relationship, error) {
	v, ok := row.Get(field)
	if !ok {
		return nil, fmt.Errorf("%w: base %q missing from row", ErrInvalidGroupingVariable, field)
	}
	ref, ok := v.AsRelationship()
	if !ok {
		return nil, fmt.Errorf("%w: base %q is %s, not a relationship", ErrInvalidGroupingVariable, field, v.Kind())
	}
	if source == nil {
		return nil, fmt.Errorf("%w: base %q with no source graph", ErrInvalidGroupingVariable, field)
	}
	return source.Relationship(ref.ID)
}

// resolveEndpoint maps a relationship endpoint name to a node identifier:
// either an entity constructed in this pass (for the same match row) or a
// matched node column.
func resolveEndpoint(name string, row record.Row, ids map[string]int64) (int64, error) {
	if id, ok := ids[name]; ok {
		return id, nil
	}
	v, ok := row.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: endpoint %q", ErrInvalidGroupingVariable, name)
	}
	ref, ok := v.AsNode()
	if !ok {
		if _, isRel := v.AsRelationship(); isRel {
			return 0, fmt.Errorf("%w: relationship-valued endpoint %q", ErrNotImplemented, name)
		}
		return 0, fmt.Errorf("%w: endpoint %q is %s, not a node", ErrInvalidGroupingVariable, name, v.Kind())
	}
	return ref.ID, nil
}

// ensureEndpoint guarantees the endpoint node exists in the output graph,
// copying matched nodes over from the source graph on first use.
func ensureEndpoint(out, source *graph.Graph, id int64) error {
	if _, err := out.Node(id); err == nil {
		return nil
	}
	if source == nil {
		return fmt.Errorf("%w: endpoint node %d", graph.ErrNotFound, id)
	}
	n, err := source.Node(id)
	if err != nil {
		return fmt.Errorf("endpoint node %d: %w", id, err)
	}
	return out.AddNode(n)
}

func mergeLabels(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, l := range extra {
		found := false
		for _, have := range out {
			if have == l {
				found = true
				break
			}
		}
		if !found {
			out = append(out, l)
		}
	}
	return out
}
