package record

import "github.com/cockroachdb/errors"

// State is the lifecycle stage of a record (spec §3).
type State int

const (
	Register State = iota
	Renew
	Delete
	Expired
)

func (s State) String() string {
	switch s {
	case Register:
		return "REGISTER"
	case Renew:
		return "RENEW"
	case Delete:
		return "DELETE"
	case Expired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON is the counterpart to MarshalJSON: without it, a State
// round-tripped through JSON (the Archive Store's at-rest encoding,
// replicated Updates) would fail to decode since encoding/json has no
// way to turn its quoted string form back into the underlying int.
func (s *State) UnmarshalJSON(data []byte) error {
	unquoted := string(data)
	if len(unquoted) >= 2 && unquoted[0] == '"' && unquoted[len(unquoted)-1] == '"' {
		unquoted = unquoted[1 : len(unquoted)-1]
	}
	parsed, ok := ParseState(unquoted)
	if !ok {
		return errors.Newf("unknown record state: %q", unquoted)
	}
	*s = parsed
	return nil
}

func ParseState(s string) (State, bool) {
	switch s {
	case "REGISTER":
		return Register, true
	case "RENEW":
		return Renew, true
	case "DELETE":
		return Delete, true
	case "EXPIRED":
		return Expired, true
	default:
		return 0, false
	}
}
