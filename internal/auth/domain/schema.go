package domain

// Schema is a named permission boundary. A token issued under a schema may
// only read the sections listed on it.
type Schema struct {
	ID       int64
	Name     string
	Sections []string // handles of sections readable under this schema
}

// Section is a named content collection that entry queries target.
type Section struct {
	ID     int64
	Handle string
	Name   string
}

// EntryQuery is the filter criteria handed to the content query engine
// after scoping. The scope resolver only ever narrows it: an owner filter
// may be injected, and AllowedSections is always populated from the
// caller's schema.
type EntryQuery struct {
	// Section and SectionID are the caller-supplied collection targets,
	// passed through untouched.
	Section   []string
	SectionID []int64

	// AuthorID, when non-empty, restricts results to entries owned by that
	// user.
	AuthorID string

	// AllowedSections is the set of section handles the caller's schema may
	// read at all. An empty (non-nil) set means the query must yield no
	// results rather than an error.
	AllowedSections []string
}
