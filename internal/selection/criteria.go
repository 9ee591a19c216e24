package selection

import (
	"slices"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// Matches reports whether q passes every non-empty filter in c. Tags match
// when the question carries any of the listed tags.
func Matches(q exam.Question, c exam.Criteria) bool {
	if len(c.IncludeIDs) > 0 && !slices.Contains(c.IncludeIDs, q.ID) {
		return false
	}
	if slices.Contains(c.ExcludeIDs, q.ID) {
		return false
	}
	if len(c.Categories) > 0 && !slices.Contains(c.Categories, q.Category) {
		return false
	}
	if len(c.Difficulties) > 0 && !slices.Contains(c.Difficulties, q.Difficulty) {
		return false
	}
	if len(c.Types) > 0 && !slices.Contains(c.Types, q.Type) {
		return false
	}
	if len(c.Tags) > 0 && !slices.ContainsFunc(q.Tags, func(t string) bool { return slices.Contains(c.Tags, t) }) {
		return false
	}
	if c.MinMarks != nil && q.Marks < *c.MinMarks {
		return false
	}
	if c.MaxMarks != nil && q.Marks > *c.MaxMarks {
		return false
	}
	if c.CreatedAfter != nil && q.CreatedAt.Before(*c.CreatedAfter) {
		return false
	}
	if c.CreatedBefore != nil && q.CreatedAt.After(*c.CreatedBefore) {
		return false
	}
	return true
}
