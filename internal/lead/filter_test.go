package lead

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC)
}

func score(v float64) *float64 {
	return &v
}

func sampleLeads() []Lead {
	return []Lead{
		{ID: 1, FirstName: "Ada", LastName: "Nguyen", Email: "ada@northwind.io", Company: "Northwind", Industry: "Technology", JobTitle: "VP Engineering", PipelineStage: StageQualified, Score: score(85), CreatedAt: day(1)},
		{ID: 2, FirstName: "Bo", LastName: "Marsh", Email: "bo@acmehealth.com", Company: "Acme Health", Industry: "Healthcare", JobTitle: "Director", PipelineStage: StageNew, Score: score(55), CreatedAt: day(3)},
		{ID: 3, FirstName: "Cleo", LastName: "Park", Email: "cleo@finch.co", Company: "Finch Capital", Industry: "Finance", JobTitle: "Analyst", PipelineStage: StageContacted, Score: nil, CreatedAt: day(5), Notes: "met at conference"},
		{ID: 4, FirstName: "Dev", LastName: "Okafor", Email: "dev@northwind.io", Company: "Northwind", Industry: "Technology", JobTitle: "CTO", PipelineStage: StageClosedWon, Score: score(92), CreatedAt: day(7)},
	}
}

func ids(leads []Lead) []int {
	out := make([]int, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Lead, want ...int) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got ids %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got ids %v, want %v", gotIDs, want)
		}
	}
}

func TestVisibleDefaultSortIsNewestFirst(t *testing.T) {
	got := Visible(sampleLeads(), Query{})
	assertIDs(t, got, 4, 3, 2, 1)
}

func TestVisibleDoesNotModifyInput(t *testing.T) {
	in := sampleLeads()
	Visible(in, Query{SortBy: SortScore, Dir: Asc})
	assertIDs(t, in, 1, 2, 3, 4)
}

func TestVisibleStageFilter(t *testing.T) {
	got := Visible(sampleLeads(), Query{Stage: StageQualified})
	assertIDs(t, got, 1)
}

func TestVisibleSearchMatchesAnyField(t *testing.T) {
	cases := map[string][]int{
		"northwind":  {4, 1}, // company, sorted newest first
		"ADA":        {1},    // name, case-insensitive
		"conference": {3},    // notes
		"cto":        {4},    // job title
		"healthcare": {2},    // industry
		"nobody":     {},
	}
	for search, want := range cases {
		got := Visible(sampleLeads(), Query{Search: search})
		if len(got) != len(want) {
			t.Fatalf("search %q: got %v, want %v", search, ids(got), want)
		}
		for i := range want {
			if got[i].ID != want[i] {
				t.Fatalf("search %q: got %v, want %v", search, ids(got), want)
			}
		}
	}
}

func TestVisibleFiltersAreConjunctive(t *testing.T) {
	q := Query{Company: "northwind", Industry: "tech", MinScore: score(90)}
	got := Visible(sampleLeads(), q)
	assertIDs(t, got, 4)
}

func TestVisibleUnscoredCountsAsZero(t *testing.T) {
	got := Visible(sampleLeads(), Query{MaxScore: score(10)})
	assertIDs(t, got, 3)

	got = Visible(sampleLeads(), Query{MinScore: score(1)})
	assertIDs(t, got, 4, 2, 1)
}

func TestVisibleDateBoundsInclusive(t *testing.T) {
	q := Query{DateFrom: "2026-03-03", DateTo: "2026-03-05"}
	got := Visible(sampleLeads(), q)
	assertIDs(t, got, 3, 2)
}

func TestVisibleDateToIncludesEndOfDay(t *testing.T) {
	late := []Lead{{ID: 1, CreatedAt: time.Date(2026, time.March, 5, 23, 0, 0, 0, time.UTC)}}

	got := Visible(late, Query{DateTo: "2026-03-05"})
	assertIDs(t, got, 1)

	got = Visible(late, Query{DateTo: "2026-03-04"})
	if len(got) != 0 {
		t.Fatal("a lead created after the upper bound's day must be excluded")
	}
}

func TestVisibleMalformedDateDisablesBound(t *testing.T) {
	got := Visible(sampleLeads(), Query{DateFrom: "not-a-date"})
	if len(got) != 4 {
		t.Fatalf("malformed bound should be ignored, got %d leads", len(got))
	}
}

func TestVisibleSortByScoreDescending(t *testing.T) {
	got := Visible(sampleLeads(), Query{SortBy: SortScore, Dir: Desc})
	assertIDs(t, got, 4, 1, 2, 3)
}

func TestVisibleSortByStageRank(t *testing.T) {
	got := Visible(sampleLeads(), Query{SortBy: SortStage, Dir: Asc})
	assertIDs(t, got, 2, 1, 3, 4)
}

func TestVisibleSortIsStableOnTies(t *testing.T) {
	same := []Lead{
		{ID: 10, Company: "Same Co", CreatedAt: day(1)},
		{ID: 11, Company: "Same Co", CreatedAt: day(2)},
		{ID: 12, Company: "Same Co", CreatedAt: day(3)},
	}
	got := Visible(same, Query{SortBy: SortCompany, Dir: Asc})
	assertIDs(t, got, 10, 11, 12)
}

func TestQueryActive(t *testing.T) {
	if (Query{SortBy: SortScore, Dir: Desc}).Active() {
		t.Fatal("sort alone should not count as an active filter")
	}
	if !(Query{Stage: StageNew}).Active() {
		t.Fatal("stage filter should count as active")
	}
	if !(Query{MinScore: score(10)}).Active() {
		t.Fatal("score bound should count as active")
	}
}
