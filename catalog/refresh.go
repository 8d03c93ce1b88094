package catalog

import (
	"context"
	"errors"
)

// Fetch retrieves the current metadata document for a record id from
// the remote source. The catalog treats the returned bytes as opaque
// until digest parses them.
type Fetch func(ctx context.Context, id string) ([]byte, error)

// RefreshStats summarizes one bulk refresh.
type RefreshStats struct {
	Refreshed int
	Failed    int
}

// RefreshAll re-fetches and re-digests every stored record, one digest
// transaction per record. Cancellation is checked between records and
// never interrupts a digest mid-flight, so an aborted refresh leaves
// every already-processed record fully indexed. A single record's
// fetch or parse failure is logged and counted, not fatal.
func (c *Catalog) RefreshAll(ctx context.Context, fetch Fetch) (RefreshStats, error) {
	var stats RefreshStats

	ids, err := c.ListIDs()
	if err != nil {
		return stats, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		metadata, err := fetch(ctx, id)
		if err != nil {
			c.log.Warn("refresh fetch failed", "id", id, "error", err)
			stats.Failed++
			continue
		}
		if err := c.Digest(id, metadata); err != nil {
			var malformed *ErrMalformedMetadata
			if errors.As(err, &malformed) {
				c.log.Warn("refresh digest failed", "id", id, "error", err)
				stats.Failed++
				continue
			}
			return stats, err
		}
		stats.Refreshed++
	}
	return stats, nil
}

// Refresh re-fetches and re-digests one record.
func (c *Catalog) Refresh(ctx context.Context, id string, fetch Fetch) error {
	exists, err := c.Contains(id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	metadata, err := fetch(ctx, id)
	if err != nil {
		return err
	}
	return c.Digest(id, metadata)
}
