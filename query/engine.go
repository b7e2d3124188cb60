package query

import "sls/record"

// Compile turns a parsed Query into a record.Matcher. The across-
// clause combinator mirrors the teacher's mysql.And/mysql.Or WHERE
// builder: a slice of sub-predicates folded by one boolean operator,
// just applied to in-memory records instead of SQL fragments.
func Compile(q *Query) record.Matcher {
	if q == nil || len(q.Clauses) == 0 {
		return record.MatchAll
	}

	type clause struct {
		key string
		val record.Value
	}
	clauses := make([]clause, 0, len(q.Clauses))
	for k, v := range q.Clauses {
		clauses = append(clauses, clause{key: k, val: v})
	}

	matchOne := func(r record.Record, c clause) bool {
		rv, ok := r.Get(c.key)
		if !ok {
			return false
		}
		return intersects(rv.Strings(), c.val.Strings())
	}

	op := q.Operator
	if op == "" {
		op = All
	}

	return record.MatcherFunc(func(r record.Record) bool {
		switch op {
		case Any:
			for _, c := range clauses {
				if matchOne(r, c) {
					return true
				}
			}
			return false
		default: // All
			for _, c := range clauses {
				if !matchOne(r, c) {
					return false
				}
			}
			return true
		}
	})
}

// intersects reports whether a and b share at least one element.
func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

// Run applies a query end to end against an already-matched slice —
// used by callers that already have candidate records (e.g. a
// secondary-index hint) and just need clause/skip/limit applied.
func Run(q *Query, candidates []record.Record) []record.Record {
	m := Compile(q)
	matches := make([]record.Record, 0, len(candidates))
	for _, r := range candidates {
		if m.Match(r) {
			matches = append(matches, r)
		}
	}
	if q.Skip > 0 {
		if q.Skip >= len(matches) {
			return []record.Record{}
		}
		matches = matches[q.Skip:]
	}
	if q.MaxResults > 0 && q.MaxResults < len(matches) {
		matches = matches[:q.MaxResults]
	}
	return matches
}
