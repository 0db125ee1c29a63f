package talent

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
)

//go:embed seed/talents.json
var seedFS embed.FS

// SeedIfEmpty loads the embedded starter catalog into the store when no
// talents exist yet. Returns the number of profiles seeded.
func (c *Catalog) SeedIfEmpty() (int, error) {
	n, err := c.store.CountTalents()
	if err != nil {
		return 0, fmt.Errorf("counting talents: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	data, err := seedFS.ReadFile("seed/talents.json")
	if err != nil {
		return 0, fmt.Errorf("reading seed fixture: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return 0, fmt.Errorf("parsing seed fixture: %w", err)
	}

	for _, p := range profiles {
		if _, err := c.Add(p); err != nil {
			return 0, err
		}
	}

	slog.Info("seeded talent catalog", "count", len(profiles))
	return len(profiles), nil
}
