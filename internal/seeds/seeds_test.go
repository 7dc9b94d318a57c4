package seeds

import (
	"testing"
	"time"

	"github.com/kcgaragesales/kc-garage-sales/internal/catalog"
)

func TestLoadDemoListings(t *testing.T) {
	demos, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(demos) == 0 {
		t.Fatal("expected demo listings")
	}

	c := catalog.Default()
	for _, d := range demos {
		if !c.IsState(d.State) {
			t.Errorf("%s: unknown state %q", d.Title, d.State)
		}
		for _, cat := range d.Categories {
			if !c.IsCategory(cat) {
				t.Errorf("%s: unknown category %q", d.Title, cat)
			}
		}
	}
}

func TestDemoSubmissionDates(t *testing.T) {
	today := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	sub := Demo{StartsInDays: 2, Days: 3}.Submission(today)
	if sub.StartDate != "2025-06-01" || sub.EndDate != "2025-06-03" {
		t.Errorf("unexpected dates %s..%s", sub.StartDate, sub.EndDate)
	}

	sub = Demo{StartsInDays: 0}.Submission(today)
	if sub.StartDate != sub.EndDate {
		t.Errorf("single-day sale should end on its start date, got %s..%s", sub.StartDate, sub.EndDate)
	}
}
