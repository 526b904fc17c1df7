package lead

import (
	"sort"
	"strings"
	"time"
)

// SortKey selects the field the visible list is ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortUpdatedAt SortKey = "updated_at"
	SortScore     SortKey = "score"
	SortStage     SortKey = "pipeline_stage"
	SortFirstName SortKey = "first_name"
	SortCompany   SortKey = "company"
)

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// dateLayout is the operator-entered date-only format for the
// creation-date bounds.
const dateLayout = "2006-01-02"

// Query is the full input to the filter/sort pipeline: the stage
// filter, free-text search, advanced filters, and the sort order.
// A zero field means that filter stage is skipped entirely.
type Query struct {
	Stage    Stage
	Search   string
	Company  string
	Industry string
	DateFrom string // inclusive, date-only (2006-01-02)
	DateTo   string // inclusive through end of day
	MinScore *float64
	MaxScore *float64
	SortBy   SortKey
	Dir      SortDir
}

// Active reports whether any filter stage would run.
func (q Query) Active() bool {
	return q.Stage != "" ||
		strings.TrimSpace(q.Search) != "" ||
		strings.TrimSpace(q.Company) != "" ||
		strings.TrimSpace(q.Industry) != "" ||
		strings.TrimSpace(q.DateFrom) != "" ||
		strings.TrimSpace(q.DateTo) != "" ||
		q.MinScore != nil ||
		q.MaxScore != nil
}

// Visible runs the filter/sort pipeline: every set filter stage is
// conjunctive, the search matches if any field contains the query, and
// the final sort is stable so ties keep their input order. Pure; the
// input slice is never modified.
func Visible(leads []Lead, q Query) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if matches(l, q) {
			out = append(out, l)
		}
	}
	sortLeads(out, q.SortBy, q.Dir)
	return out
}

func matches(l Lead, q Query) bool {
	if q.Stage != "" && l.PipelineStage != q.Stage {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		if !anyFieldContains(l, search) {
			return false
		}
	}
	if company := strings.ToLower(strings.TrimSpace(q.Company)); company != "" {
		if !strings.Contains(strings.ToLower(l.Company), company) {
			return false
		}
	}
	if industry := strings.ToLower(strings.TrimSpace(q.Industry)); industry != "" {
		if !strings.Contains(strings.ToLower(l.Industry), industry) {
			return false
		}
	}
	if from, ok := parseDate(q.DateFrom); ok {
		if l.CreatedAt.Before(from) {
			return false
		}
	}
	if to, ok := parseDate(q.DateTo); ok {
		endOfDay := to.Add(24*time.Hour - time.Millisecond)
		if l.CreatedAt.After(endOfDay) {
			return false
		}
	}
	if q.MinScore != nil && l.ScoreValue() < *q.MinScore {
		return false
	}
	if q.MaxScore != nil && l.ScoreValue() > *q.MaxScore {
		return false
	}
	return true
}

func anyFieldContains(l Lead, query string) bool {
	fields := []string{
		l.FirstName,
		l.LastName,
		l.Email,
		l.Company,
		l.JobTitle,
		l.Industry,
		l.Notes,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// parseDate reads an operator-entered date bound. Empty or malformed
// input disables the bound rather than excluding everything.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sortLeads(leads []Lead, key SortKey, dir SortDir) {
	if key == "" {
		key = SortCreatedAt
	}
	if dir == "" {
		dir = Desc
	}
	sort.SliceStable(leads, func(i, j int) bool {
		less, equal := compare(leads[i], leads[j], key)
		if equal {
			return false
		}
		if dir == Desc {
			return !less
		}
		return less
	})
}

// compare orders two leads under key. Timestamps compare as times,
// pipeline_stage by rank (unknown stage ranks 0), score numerically,
// anything else by the raw field string.
func compare(a, b Lead, key SortKey) (less, equal bool) {
	switch key {
	case SortCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
	case SortStage:
		ra, rb := a.PipelineStage.Rank(), b.PipelineStage.Rank()
		return ra < rb, ra == rb
	case SortScore:
		sa, sb := a.ScoreValue(), b.ScoreValue()
		return sa < sb, sa == sb
	default:
		fa, fb := stringField(a, key), stringField(b, key)
		return fa < fb, fa == fb
	}
}

func stringField(l Lead, key SortKey) string {
	switch key {
	case SortFirstName:
		return strings.ToLower(l.FirstName)
	case "last_name":
		return strings.ToLower(l.LastName)
	case "email":
		return strings.ToLower(l.Email)
	case SortCompany:
		return strings.ToLower(l.Company)
	case "job_title":
		return strings.ToLower(l.JobTitle)
	case "industry":
		return strings.ToLower(l.Industry)
	default:
		return ""
	}
}
