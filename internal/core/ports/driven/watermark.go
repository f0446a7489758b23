package driven

import "context"

// WatermarkStore persists the last fully-synced library version and
// the archive alias map collected at index time. The watermark is
// advanced atomically only after a sync completes without fatal
// error, and never rolled back.
type WatermarkStore interface {
	// Watermark returns the last committed library version, zero if
	// no sync has completed yet.
	Watermark(ctx context.Context) (int64, error)

	// Advance commits a new library version.
	Advance(ctx context.Context, version int64) error

	// ArchiveAliases returns the acronym -> archive name map
	// (lowercased acronym keys).
	ArchiveAliases(ctx context.Context) (map[string]string, error)

	// SaveArchiveAliases replaces the alias map.
	SaveArchiveAliases(ctx context.Context, aliases map[string]string) error
}
