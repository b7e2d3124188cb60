// Package query implements the sLS Query Engine (spec §4.3): parsing
// a query document into match clauses plus the operator/skip/limit
// controls, and compiling it into a record.Matcher.
package query

import (
	"strconv"
	"strings"

	"sls/apierr"
	"sls/record"
)

// Operator combines clause results across a query.
type Operator string

const (
	All Operator = "all"
	Any Operator = "any"
)

// Query is a parsed query document: reserved controls plus match
// clauses. The zero value (no clauses, All operator) matches every
// record, per spec §4.3's edge case.
type Query struct {
	Operator   Operator
	Skip       int
	MaxResults int
	Clauses    map[string]record.Value
}

// FromValues builds a Query from an already-decoded field map — the
// shape a JSON request body or a pre-typed query-string parse
// produces. Reserved-prefixed keys that aren't operator/skip/
// max-results are kept as ordinary clauses (forward compatibility,
// spec §4.3 edge case).
func FromValues(fields map[string]record.Value) (*Query, error) {
	q := &Query{Operator: All, Clauses: make(map[string]record.Value, len(fields))}

	for k, v := range fields {
		switch k {
		case record.KeyOperator:
			s, err := singleString(v)
			if err != nil {
				return nil, apierr.Wrap(apierr.BadRequest, err, "record-operator must be a string")
			}
			switch Operator(s) {
			case All, Any:
				q.Operator = Operator(s)
			default:
				return nil, apierr.New(apierr.BadRequest, "record-operator must be one of: all, any")
			}
		case record.KeySkip:
			n, err := singleNonNegativeInt(v)
			if err != nil {
				return nil, apierr.Wrap(apierr.BadRequest, err, "record-skip must be a non-negative integer")
			}
			q.Skip = n
		case record.KeyMaxResults:
			n, err := singleNonNegativeInt(v)
			if err != nil {
				return nil, apierr.Wrap(apierr.BadRequest, err, "record-max-results must be a non-negative integer")
			}
			q.MaxResults = n
		default:
			q.Clauses[normalizeKey(k)] = v
		}
	}
	return q, nil
}

// normalizeKey maps the wire's record-type to the internal "type"
// attribute so a query clause on type matches Record.Type via
// Record.Get, without needing special-casing at every call site.
func normalizeKey(k string) string {
	if k == record.KeyType {
		return "type"
	}
	return k
}

func singleString(v record.Value) (string, error) {
	if v.Kind == record.KindString {
		return v.Str, nil
	}
	if v.Kind == record.KindList && len(v.List) == 1 {
		return v.List[0], nil
	}
	return "", apierr.New(apierr.BadRequest, "expected a single string value")
}

func singleNonNegativeInt(v record.Value) (int, error) {
	s, err := singleString(v)
	if err != nil {
		if v.Kind == record.KindNumber {
			s = strconv.FormatFloat(v.Num, 'f', -1, 64)
		} else {
			return 0, err
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, apierr.New(apierr.BadRequest, "expected a non-negative integer")
	}
	return n, nil
}

// FromQueryString parses the HTTP query-string convention from spec
// §6: every parameter is a clause except operator/skip/max-results; a
// value containing commas becomes a list.
func FromQueryString(params map[string][]string) (*Query, error) {
	fields := make(map[string]record.Value, len(params))
	for k, vs := range params {
		if len(vs) == 0 {
			continue
		}
		// Query strings can repeat a key; sLS only defines a single
		// value per key, so the first wins and later repeats are
		// ignored rather than erroring (lenient wire handling).
		raw := vs[0]
		if strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			fields[k] = record.List(parts...)
		} else {
			fields[k] = record.String(raw)
		}
	}
	return FromValues(fields)
}
