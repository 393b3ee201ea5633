package timeline

import "strings"

// Policy names the statuses that count as finished and the ones that drop an
// issue out of scope. Matching is case-insensitive.
type Policy struct {
	Terminal map[string]bool
	Excluded map[string]bool
}

// DefaultPolicy treats "Done" as terminal and "Cancelled" as out of scope.
func DefaultPolicy() Policy {
	return NewPolicy([]string{"Done"}, []string{"Cancelled"})
}

// NewPolicy builds a policy from status name lists.
func NewPolicy(terminal, excluded []string) Policy {
	return Policy{
		Terminal: toSet(terminal),
		Excluded: toSet(excluded),
	}
}

// IsTerminal reports whether status is a finished status.
func (p Policy) IsTerminal(status string) bool {
	return p.Terminal[strings.ToLower(status)]
}

// IsExcluded reports whether status takes an issue out of scope.
func (p Policy) IsExcluded(status string) bool {
	return p.Excluded[strings.ToLower(status)]
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			set[strings.ToLower(n)] = true
		}
	}
	return set
}
