package sales

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kcgaragesales/kc-garage-sales/internal/catalog"
)

var (
	zipPattern  = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

const missingFields = "Missing required fields"

// normalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM.
func normalizeTime(s string) (string, error) {
	if !timePattern.MatchString(s) {
		return "", invalid("Times must be in HH:MM format")
	}
	return s[:5], nil
}

// schedule validates a date range and time window. An empty end date means
// a single-day sale.
func schedule(start, end, startTime, endTime string) (Date, Date, string, string, error) {
	sd, err := ParseDate(start)
	if err != nil {
		return "", "", "", "", invalid("Start date must be in YYYY-MM-DD format")
	}
	ed := sd
	if end != "" {
		if ed, err = ParseDate(end); err != nil {
			return "", "", "", "", invalid("End date must be in YYYY-MM-DD format")
		}
	}
	if ed < sd {
		return "", "", "", "", invalid("End date cannot be before start date")
	}

	st, err := normalizeTime(startTime)
	if err != nil {
		return "", "", "", "", err
	}
	et, err := normalizeTime(endTime)
	if err != nil {
		return "", "", "", "", err
	}
	return sd, ed, st, et, nil
}

// categories trims, de-duplicates and checks names against the vocabulary.
func categories(c *catalog.Catalog, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !c.IsCategory(n) {
			return nil, invalid("Unknown category: " + n)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func titleCity(s string) string {
	return cases.Title(language.AmericanEnglish).String(strings.Join(strings.Fields(s), " "))
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
