// Package query holds the types shared between the SQL-like parser
// (C9), the search planner (C8), and the Repository Port's per-table
// candidate lookups: the closed set of filter conditions, ordering
// enumeration, and the SearchQuery request shape (spec.md §4.6, §6).
package query

// Condition is one of the closed set of per-value-row filter predicates
// the search planner and the Repository Port's index tables understand.
type Condition string

const (
	Equals              Condition = "Equals"
	NotEquals           Condition = "NotEquals"
	GreaterThan         Condition = "GreaterThan"
	GreaterThanOrEqual  Condition = "GreaterThanOrEqualTo"
	LessThan            Condition = "LessThan"
	LessThanOrEqual     Condition = "LessThanOrEqualTo"
	IsNull              Condition = "IsNull"
	IsNotNull           Condition = "IsNotNull"
	Contains            Condition = "Contains"
	StartsWith          Condition = "StartsWith"
	EndsWith            Condition = "EndsWith"
	Like                Condition = "Like"
)

// Ordering is the closed set of result orderings the wire protocol
// exposes (spec.md §6).
type Ordering string

const (
	CreatedAscending     Ordering = "CreatedAscending"
	CreatedDescending    Ordering = "CreatedDescending"
	LastUpdateAscending  Ordering = "LastUpdateAscending"
	LastUpdateDescending Ordering = "LastUpdateDescending"
	NameAscending        Ordering = "NameAscending"
	NameDescending       Ordering = "NameDescending"
)

// Filter is one WHERE-clause predicate against a field key.
type Filter struct {
	Field     string
	Condition Condition
	Value     string
}

// Search is a fully resolved query ready for the planner (spec.md §4.6).
// Planner.Search normalizes MaxResults and Skip with Clamp before using
// them; Engine.Search first replaces a zero or over-cap MaxResults with
// the configured cap.
type Search struct {
	CollectionID   *string
	Filters        []Filter
	Labels         []string
	Tags           map[string]string
	MaxResults     int
	Skip           int
	Ordering       Ordering
	IncludeContent bool
	IncludeLabels  bool
	IncludeTags    bool
}

// MaxResultsCap is the hard ceiling spec.md §4.6 clamps MaxResults to.
const MaxResultsCap = 1000

// Clamp normalizes MaxResults into [1, MaxResultsCap] and Skip into
// [0, +inf), matching spec.md §4.6's "max_results (1..1000 clamped),
// skip (>=0)" contract.
func (s *Search) Clamp() {
	if s.MaxResults < 1 {
		s.MaxResults = 1
	}
	if s.MaxResults > MaxResultsCap {
		s.MaxResults = MaxResultsCap
	}
	if s.Skip < 0 {
		s.Skip = 0
	}
}
