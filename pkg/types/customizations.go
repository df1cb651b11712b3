package types

import "strings"

// Customizations captures the selections made for a single cart line: the
// chosen additions plus free-text preparation notes. Two lines with the same
// menu item merge only when their customizations are equal.
type Customizations struct {
	Additions []string `json:"additions,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Equal reports whether both customization sets are the same selection.
// Addition order is not significant; additions and notes compare
// case-insensitively with surrounding whitespace ignored.
func (c Customizations) Equal(other Customizations) bool {
	if normalizeNotes(c.Notes) != normalizeNotes(other.Notes) {
		return false
	}
	left := additionSet(c.Additions)
	right := additionSet(other.Additions)
	if len(left) != len(right) {
		return false
	}
	for key := range left {
		if _, ok := right[key]; !ok {
			return false
		}
	}
	return true
}

// IsZero reports whether no customizations were selected.
func (c Customizations) IsZero() bool {
	return len(additionSet(c.Additions)) == 0 && normalizeNotes(c.Notes) == ""
}

func additionSet(additions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(additions))
	for _, addition := range additions {
		trimmed := strings.TrimSpace(addition)
		if trimmed == "" {
			continue
		}
		set[strings.ToLower(trimmed)] = struct{}{}
	}
	return set
}

func normalizeNotes(notes string) string {
	return strings.ToLower(strings.TrimSpace(notes))
}
