package store

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Orderable fields per entity. Names match the JSON representation.
var (
	ProfileTypeOrderFields = []string{
		"id", "name", "organization_uuid", "is_global", "create_date", "edit_date",
	}
	SiteProfileOrderFields = []string{
		"uuid", "name", "profiletype",
		"address_line1", "address_line2", "address_line3", "address_line4",
		"postcode", "city", "country",
		"administrative_level1", "administrative_level2", "administrative_level3", "administrative_level4",
		"latitude", "longitude", "notes", "organization_uuid", "create_date", "edit_date",
	}
)

// DefaultOrdering sorts by name ascending.
var DefaultOrdering = Ordering{{Field: "name"}}

// OrderTerm is a single sort key.
type OrderTerm struct {
	Field string
	Desc  bool
}

// Ordering is an ordered list of sort keys. Stores always append the
// primary key as a final tie breaker so pages are stable.
type Ordering []OrderTerm

// ParseOrdering parses a comma separated ordering parameter. Terms not in
// allowed are dropped; if nothing valid remains def is returned.
func ParseOrdering(raw string, allowed []string, def Ordering) Ordering {
	var ordering Ordering
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if field == "" || !slices.Contains(allowed, field) {
			continue
		}
		ordering = append(ordering, OrderTerm{Field: field, Desc: desc})
	}
	if len(ordering) == 0 {
		return def
	}
	return ordering
}

// ProfileTypeQuery selects ProfileTypes.
type ProfileTypeQuery struct {
	// None matches nothing; set when no tenant could be resolved.
	None bool

	OrganizationUUID uuid.UUID
	// IncludeGlobal adds every global ProfileType to the tenant's own.
	IncludeGlobal bool
	// GlobalOnly ignores OrganizationUUID and returns global ProfileTypes.
	GlobalOnly bool

	Ordering Ordering
	Limit    int // 0 means no limit
	Offset   int
}

// SiteProfileQuery selects SiteProfiles.
type SiteProfileQuery struct {
	// None matches nothing; set when no tenant could be resolved.
	None bool

	OrganizationUUID uuid.UUID
	ProfileTypeID    *int64
	UUIDs            []uuid.UUID
	// Workflowlevel2UUIDs matches profiles whose workflowlevel2_uuid
	// contains any of the values.
	Workflowlevel2UUIDs []string
	// Search terms must each match address_line1, postcode or city.
	Search []string

	Ordering Ordering
	Limit    int
	Offset   int
}

// SearchTerms splits a search parameter on whitespace and commas.
func SearchTerms(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}
