package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// LibraryClient fetches catalogue data from the library collaborator.
// The library owns all item metadata; the core never writes to it.
type LibraryClient interface {
	// ListItems returns items changed since the given library version.
	// sinceVersion zero returns the whole library.
	ListItems(ctx context.Context, sinceVersion int64) ([]domain.LibraryItem, error)

	// AttachmentBytes fetches an attachment's file content.
	// Returns domain.ErrNotFound when the attachment is gone.
	AttachmentBytes(ctx context.Context, itemKey, attachmentKey string) ([]byte, error)

	// CurrentVersion returns the library's current version counter.
	CurrentVersion(ctx context.Context) (int64, error)
}
