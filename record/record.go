package record

import "time"

// Record is a registered document: reserved identity/lease/lifecycle
// fields plus free-form payload attributes (spec §3).
//
// Attrs never holds the reserved keys above — Type, State, TTL, and
// so on are promoted to dedicated fields. AccessToken, when set, is
// the sealed (encrypted-at-rest) form produced by the auth package;
// Record itself doesn't know how to seal or compare it.
type Record struct {
	URI         string
	Type        string
	TTL         time.Duration
	ExpiresAt   time.Time
	State       State
	AccessToken string
	ClientUUID  string
	Attrs       map[string]Value

	// Seq is the Store's monotonic mutation counter, stamped on
	// every insert/update/delete (spec §3 expansion: tie-breaking
	// for racing renew/delete on the same URI).
	Seq uint64
}

// Clone returns a deep-enough copy safe to hand to a caller without
// aliasing the Store's internal Attrs map.
func (r Record) Clone() Record {
	out := r
	if r.Attrs != nil {
		out.Attrs = make(map[string]Value, len(r.Attrs))
		for k, v := range r.Attrs {
			if v.Kind == KindList {
				v.List = append([]string(nil), v.List...)
			}
			out.Attrs[k] = v
		}
	}
	return out
}

// Matcher is a predicate over records, used by both the Query Engine
// (full query evaluation) and the Subscription Manager (saved-query,
// matcher-only evaluation against incoming mutations).
type Matcher interface {
	Match(r Record) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(Record) bool

func (f MatcherFunc) Match(r Record) bool { return f(r) }

// MatchAll matches every record — the zero-clause query (spec §4.3
// edge case) and the Subscription default when no saved query was
// supplied.
var MatchAll Matcher = MatcherFunc(func(Record) bool { return true })

// Get looks up a payload attribute by key, including the promoted
// "type" key for convenience of callers that treat Type uniformly
// with other clauses (the Query Engine does this).
func (r Record) Get(key string) (Value, bool) {
	if key == "type" {
		if r.Type == "" {
			return Value{}, false
		}
		return String(r.Type), true
	}
	v, ok := r.Attrs[key]
	return v, ok
}
