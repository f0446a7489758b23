package domain

import "strings"

// ItemType identifies the kind of library item.
// The segmentation strategy is selected by this type.
type ItemType string

// Known item types. The set is open: unknown types fall back to
// size-based chunking without structural detection.
const (
	ItemTypeBook       ItemType = "book"
	ItemTypeArticle    ItemType = "article"
	ItemTypeHearing    ItemType = "hearing"
	ItemTypeReport     ItemType = "report"
	ItemTypeManuscript ItemType = "manuscript"
	ItemTypeDocument   ItemType = "document"
	ItemTypeInterview  ItemType = "interview"
)

// Attachment is a file reference attached to a library item.
type Attachment struct {
	// Key is the attachment's identifier within the library.
	Key string

	// MIMEType is the declared content type (application/pdf, etc).
	MIMEType string

	// Filename is the original file name, if known.
	Filename string
}

// LibraryItem is one catalogue entry from the library collaborator.
// It is read-only to the core: the library owns it.
type LibraryItem struct {
	// Key is the library's unique identifier for the item.
	Key string

	// Type classifies the item (book, hearing, article, ...).
	Type ItemType

	// Title is the bibliographic title.
	Title string

	// Authors holds the item's creators in catalogue order.
	Authors []string

	// Date is the bibliographic date string as the library records it.
	Date string

	// Abstract is the catalogue abstract, if any.
	Abstract string

	// Archive and ArchiveLocation identify the physical source.
	Archive         string
	ArchiveLocation string

	// Collections are the names of collections containing the item.
	Collections []string

	// Tags are free-form labels attached to the item.
	Tags []string

	// Version is the library's modification counter for this item.
	Version int64

	// Attachments lists the item's file attachments.
	Attachments []Attachment
}

// DisplayTitle returns the title, or a placeholder built from type and
// date for untitled items so every item remains identifiable.
func (i *LibraryItem) DisplayTitle() string {
	if strings.TrimSpace(i.Title) != "" {
		return i.Title
	}
	if i.Date != "" {
		return "[Untitled " + string(i.Type) + ", " + i.Date + "]"
	}
	return "[Untitled " + string(i.Type) + "]"
}
