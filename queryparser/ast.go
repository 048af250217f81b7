// Package queryparser implements PhotoWall's boolean/field search
// language: terms, quoted phrases, wildcards, field filters like
// camera:Nikon or iso:>800, and And/Or/Not composition, lowered to an
// FTS5 MATCH expression plus a set of out-of-FTS field filters.
package queryparser

// NodeKind discriminates the QueryNode variants.
type NodeKind int

const (
	NodeTerm NodeKind = iota
	NodePhrase
	NodeField
	NodeAnd
	NodeOr
	NodeNot
	NodeWildcard
)

// FieldOperator is the comparison a field filter applies.
type FieldOperator int

const (
	OpEquals FieldOperator = iota
	OpGreaterThan
	OpLessThan
	OpGreaterOrEqual
	OpLessOrEqual
)

// knownFields is the set of field names the tokenizer recognizes as
// "field:value" rather than a plain term containing a colon.
var knownFields = map[string]bool{
	"camera": true, "lens": true, "tag": true, "iso": true, "f": true,
	"aperture": true, "focal": true, "rating": true, "date": true,
	"path": true, "name": true, "format": true,
}

// QueryNode is one node of the parsed query AST.
type QueryNode struct {
	Kind     NodeKind
	Text     string        // Term, Phrase, Wildcard
	Field    string        // Field
	Operator FieldOperator // Field
	Value    string        // Field
	Children []*QueryNode  // And, Or
	Child    *QueryNode    // Not
}
