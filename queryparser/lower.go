package queryparser

import "strings"

// FieldFilter is one field:value predicate that falls outside what FTS5 can
// express (numeric ranges, exact path/rating/date comparisons). The query
// layer (store.SearchFilters) turns these into SQL predicates; only the
// "tag" field is special-cased into TagNames instead.
type FieldFilter struct {
	Field    string
	Operator FieldOperator
	Value    string
}

// ParsedQuery is the result of lowering a QueryNode: an FTS5 MATCH
// expression (empty if the query had no free-text terms) plus the field
// filters and tag names that need to be applied outside FTS.
type ParsedQuery struct {
	FTSExpr      string
	FieldFilters []FieldFilter
	TagNames     []string
}

// ParseQuery parses and lowers a raw query string in one step.
func ParseQuery(input string) *ParsedQuery {
	node := Parse(input)
	if node == nil {
		return &ParsedQuery{}
	}
	pq := &ParsedQuery{}
	expr := lower(node, pq)
	pq.FTSExpr = expr
	return pq
}

// lower walks the AST, appending field filters and tag names to pq as it
// encounters them, and returns the FTS5 expression fragment for the
// remaining free-text structure.
func lower(node *QueryNode, pq *ParsedQuery) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case NodeTerm:
		return escapeFTS5(node.Text) + "*"
	case NodeWildcard:
		return escapeFTS5(strings.ReplaceAll(node.Text, "?", "_"))
	case NodePhrase:
		return `"` + escapeFTS5(node.Text) + `"`
	case NodeField:
		if node.Field == "tag" {
			pq.TagNames = append(pq.TagNames, node.Value)
			return ""
		}
		pq.FieldFilters = append(pq.FieldFilters, FieldFilter{Field: node.Field, Operator: node.Operator, Value: node.Value})
		return ""
	case NodeNot:
		inner := lower(node.Child, pq)
		if inner == "" {
			return ""
		}
		return "NOT " + inner
	case NodeAnd:
		return joinChildren(node.Children, pq, " AND ")
	case NodeOr:
		return joinChildren(node.Children, pq, " OR ")
	default:
		return ""
	}
}

func joinChildren(children []*QueryNode, pq *ParsedQuery, sep string) string {
	var parts []string
	for _, c := range children {
		if frag := lower(c, pq); frag != "" {
			parts = append(parts, frag)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

// escapeFTS5 doubles embedded double-quotes so a term or phrase can be
// safely wrapped in quotes inside an FTS5 MATCH expression.
func escapeFTS5(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
