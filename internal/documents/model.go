package documents

import "time"

// Visibility controls whether a document is reachable through a share token.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// State is derived from the presence of extracted text; it is never stored.
type State string

const (
	StatePending   State = "pending"
	StateProcessed State = "processed"
)

// Document represents an uploaded document owned by a user.
type Document struct {
	ID            string
	OwnerID       string
	OriginalName  string
	MediaType     string
	ByteSize      int64
	StorageRef    string
	SHA256        string
	Visibility    Visibility
	ShareToken    string
	ExtractedText *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}

// State reports the processing state inferred from ExtractedText.
func (d Document) State() State {
	if IsQueryable(d) {
		return StateProcessed
	}
	return StatePending
}

// Text returns the extracted text, or "" when pending.
func (d Document) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}

// Counts summarizes an owner's documents.
type Counts struct {
	Total     int
	Processed int
}

// Unprocessed is Total minus Processed.
func (c Counts) Unprocessed() int {
	return c.Total - c.Processed
}
