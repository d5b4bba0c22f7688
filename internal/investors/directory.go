// Package investors loads and queries the investor directory CSV.
package investors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/seedscout/outreach/pkg/models"
)

// ErrNotFound is returned when no investor matches a name lookup
var ErrNotFound = errors.New("investor not found")

// ErrAmbiguous is returned when a name lookup matches more than one investor.
// Ambiguity is surfaced to the caller, never silently resolved.
var ErrAmbiguous = errors.New("ambiguous investor name")

// SearchLimit caps how many matches a search returns
const SearchLimit = 5

// Directory is an in-memory investor list loaded from CSV
type Directory struct {
	investors []models.Investor
}

// Load reads the investor CSV. Headers are normalized (trimmed, lower-cased,
// spaces replaced by underscores) so column order and header formatting in
// the source file do not matter.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open investor csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse investor csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("investor csv %s is empty", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
		cols[key] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("investor csv %s has no name column", path)
	}
	if _, ok := cols["email"]; !ok {
		return nil, fmt.Errorf("investor csv %s has no email column", path)
	}

	field := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	d := &Directory{}
	for _, row := range rows[1:] {
		d.investors = append(d.investors, models.Investor{
			Name:            field(row, "name"),
			Email:           field(row, "email"),
			FocusArea:       field(row, "focusarea"),
			InvestmentStage: field(row, "investmentstage"),
			Industry:        field(row, "industry"),
			Description:     field(row, "description"),
		})
	}

	return d, nil
}

// Len returns the number of loaded investors
func (d *Directory) Len() int {
	return len(d.investors)
}

// Search returns investors matching any whitespace-separated term of the
// query against name, focus area, stage, industry, description or email.
// At most SearchLimit results are returned; Total reports the full count.
func (d *Directory) Search(query string) (matches []models.Investor, total int, err error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, 0, fmt.Errorf("search query is empty")
	}

	for _, inv := range d.investors {
		if matchesAnyTerm(inv, terms) {
			total++
			if len(matches) < SearchLimit {
				matches = append(matches, inv)
			}
		}
	}
	return matches, total, nil
}

func matchesAnyTerm(inv models.Investor, terms []string) bool {
	haystacks := []string{
		strings.ToLower(inv.Name),
		strings.ToLower(inv.FocusArea),
		strings.ToLower(inv.InvestmentStage),
		strings.ToLower(inv.Industry),
		strings.ToLower(inv.Description),
		strings.ToLower(inv.Email),
	}
	for _, term := range terms {
		for _, h := range haystacks {
			if strings.Contains(h, term) {
				return true
			}
		}
	}
	return false
}

// FindByName resolves a name to exactly one investor. Matching is
// case-insensitive substring containment against the name column.
func (d *Directory) FindByName(name string) (*models.Investor, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, ErrNotFound
	}

	var found *models.Investor
	for i := range d.investors {
		if strings.Contains(strings.ToLower(d.investors[i].Name), needle) {
			if found != nil {
				return nil, fmt.Errorf("%w: multiple matches for %q", ErrAmbiguous, name)
			}
			found = &d.investors[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if !strings.Contains(found.Email, "@") {
		return nil, fmt.Errorf("investor %q has a missing or invalid email address", found.Name)
	}
	return found, nil
}
