// Package rewards implements the reward event subsystem: the redis-backed
// event bus fed by the ingestion loop and the challenge managers that turn
// events into user challenge progress.
package rewards

import (
	"context"
	"fmt"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

// CatalogEntry is one challenge definition in the JSON catalog file
type CatalogEntry struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	StepCount     int64  `json:"step_count"`
	StartingBlock uint64 `json:"starting_block"`
	Active        bool   `json:"active"`
	CooldownDays  int    `json:"cooldown_days"`
}

// Catalog loads challenge definitions from disk and reconciles them into
// the challenges table. The table is the single source the managers read;
// the file is only consulted at startup.
type Catalog struct {
	fs   adapter.FileSystem
	json adapter.JSON
	path string
}

// NewCatalog creates a catalog loader for the given file path
func NewCatalog(fs adapter.FileSystem, json adapter.JSON, path string) *Catalog {
	return &Catalog{fs: fs, json: json, path: path}
}

// Load parses the catalog file
func (c *Catalog) Load() ([]CatalogEntry, error) {
	data, err := c.fs.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", c.path, err)
	}
	var entries []CatalogEntry
	if err := c.json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", c.path, err)
	}
	for _, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog %s: entry without id", c.path)
		}
		if entry.StepCount <= 0 {
			return nil, fmt.Errorf("catalog %s: challenge %s needs a positive step count", c.path, entry.ID)
		}
	}
	return entries, nil
}

// Reconcile loads the catalog and upserts it into the store
func (c *Catalog) Reconcile(ctx context.Context, st store.Store) error {
	entries, err := c.Load()
	if err != nil {
		return err
	}
	challenges := make([]schema.Challenge, 0, len(entries))
	for _, entry := range entries {
		challenges = append(challenges, schema.Challenge{
			ID:            entry.ID,
			Type:          entry.Type,
			Amount:        entry.Amount,
			StepCount:     entry.StepCount,
			StartingBlock: entry.StartingBlock,
			Active:        entry.Active,
			CooldownDays:  entry.CooldownDays,
		})
	}
	return st.UpsertChallenges(ctx, challenges)
}
