package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested memory was not found. It is
	// an expected, common outcome that callers branch on.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	// Field-level violations wrap a types.ValidationError instead.
	ErrInvalidInput = errors.New("invalid input")
)

// AddParams carries the caller-supplied fields for MemoryStore.Add.
type AddParams struct {
	Content  string
	Source   string
	Category string

	// Importance, when nil, is defaulted via the store's configured
	// ImportanceSuggester (or types.DefaultImportance without one).
	Importance *int

	// Confidence defaults to 0.5 when zero-valued and unset.
	Confidence *float64

	Tags      []string
	Contexts  map[string]float64
	Metadata  map[string]string
	ExpiresAt *time.Time

	// CreatedAt backdates the record, for ingesting notes that carry their
	// own date. Nil means "now". Duplicate content still resolves to the
	// existing record with its original creation time.
	CreatedAt *time.Time
}

// SearchFilter holds the structural predicates for MemoryStore.Search.
type SearchFilter struct {
	// Query is carried for the caller's relevance pass; Search itself
	// performs no text ranking.
	Query string

	Category      string
	Source        string
	Tags          []string
	ContextRef    string
	MinImportance int

	// MaxResults defaults to 10 when <= 0.
	MaxResults int

	IncludeExpired bool
}

// defaultMaxResults caps Search result sets when the caller gives no limit.
const defaultMaxResults = 10

// Normalize applies defaults to the filter.
func (f *SearchFilter) Normalize() {
	if f.MaxResults <= 0 {
		f.MaxResults = defaultMaxResults
	}
}

// UpdateFields carries partial updates: nil pointers leave the stored value
// untouched.
type UpdateFields struct {
	Content    *string
	Category   *string
	Importance *int
	Confidence *float64

	// Tags, when non-nil, replaces the full tag list.
	Tags *[]string

	// Contexts and Metadata, when non-nil, set the provided keys and keep
	// the rest.
	Contexts map[string]float64
	Metadata map[string]string

	// ExpiresAt sets a new expiry; ClearExpiry removes it.
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// Empty reports whether the update would change nothing.
func (u *UpdateFields) Empty() bool {
	return u.Content == nil && u.Category == nil && u.Importance == nil &&
		u.Confidence == nil && u.Tags == nil && len(u.Contexts) == 0 &&
		len(u.Metadata) == 0 && u.ExpiresAt == nil && !u.ClearExpiry
}
