package seeds

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/sales"
)

//go:embed listings.yaml
var listingsYAML []byte

// Demo is one seed listing with dates relative to the seeding day.
type Demo struct {
	Title        string   `yaml:"title"`
	Email        string   `yaml:"email"`
	Description  string   `yaml:"description"`
	Address      string   `yaml:"address"`
	City         string   `yaml:"city"`
	State        string   `yaml:"state"`
	ZipCode      string   `yaml:"zip_code"`
	StartsInDays int      `yaml:"starts_in_days"`
	Days         int      `yaml:"days"`
	StartTime    string   `yaml:"start_time"`
	EndTime      string   `yaml:"end_time"`
	Categories   []string `yaml:"categories"`
}

// Load parses the embedded demo listings.
func Load() ([]Demo, error) {
	var doc struct {
		Listings []Demo `yaml:"listings"`
	}
	if err := yaml.Unmarshal(listingsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing demo listings: %w", err)
	}
	return doc.Listings, nil
}

// Submission turns d into workflow input for a sale starting relative to today.
func (d Demo) Submission(today time.Time) sales.Submission {
	start := today.AddDate(0, 0, d.StartsInDays)
	end := start
	if d.Days > 1 {
		end = start.AddDate(0, 0, d.Days-1)
	}
	return sales.Submission{
		Email:       d.Email,
		Title:       d.Title,
		Description: d.Description,
		Address:     d.Address,
		City:        d.City,
		State:       d.State,
		ZipCode:     d.ZipCode,
		StartDate:   string(sales.DateOf(start)),
		EndDate:     string(sales.DateOf(end)),
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Categories:  d.Categories,
	}
}

// SeedListings submits every demo listing through svc and verifies it so it
// shows up on the public map. Listings already on the map are skipped.
func SeedListings(ctx context.Context, svc *sales.Service, repo sales.Repository) error {
	demos, err := Load()
	if err != nil {
		return err
	}

	today, err := time.Parse(sales.DateLayout, string(svc.Today()))
	if err != nil {
		return err
	}

	seeded := 0
	for _, d := range demos {
		existing, err := svc.ListUpcoming(ctx, sales.Filter{Query: d.Title})
		if err != nil {
			return fmt.Errorf("checking %q: %w", d.Title, err)
		}
		if containsTitle(existing, d.Title) {
			log.Info().Str("title", d.Title).Msg("Demo listing exists, skipping")
			continue
		}

		id, err := svc.Submit(ctx, d.Submission(today))
		if err != nil {
			return fmt.Errorf("submitting %q: %w", d.Title, err)
		}
		l, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading %q: %w", d.Title, err)
		}
		if _, err := svc.Verify(ctx, l.VerificationToken); err != nil {
			return fmt.Errorf("verifying %q: %w", d.Title, err)
		}
		seeded++
	}

	log.Info().Int("count", seeded).Msg("Seeded demo listings")
	return nil
}

func containsTitle(listings []sales.Listing, title string) bool {
	for _, l := range listings {
		if l.Title == title {
			return true
		}
	}
	return false
}
