package extract

import (
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Title-keyword ladder for picking the primary contact among employee
// candidates. Higher rank wins; ties break by list order.
var roleLadder = []struct {
	rank     int
	keywords []string
}{
	{3, []string{"owner", "founder"}},
	{2, []string{"chief executive officer", "ceo", "president"}},
	{1, []string{"director", "vice president", "vp", "partner", "principal", "chief"}},
}

// roleRank returns the ladder rank for a title, or 0 when no executive
// keyword matches.
func roleRank(title string) int {
	lower := strings.ToLower(title)
	for _, tier := range roleLadder {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.rank
			}
		}
	}
	return 0
}

// SelectPrimaryContact picks the most senior relevant contact from the
// employee candidates. When no candidate carries an executive title,
// none is selected: a junior name is worse than no name.
func SelectPrimaryContact(employees []model.Employee) (model.Employee, bool) {
	best := -1
	bestRank := 0
	for i, e := range employees {
		if r := roleRank(e.Title); r > bestRank {
			bestRank = r
			best = i
		}
	}
	if best < 0 {
		return model.Employee{}, false
	}
	return employees[best], true
}

// SplitName divides a full name into first and last parts. Everything
// after the first word becomes the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
