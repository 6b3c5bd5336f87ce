package catalog

// UnknownAuthorLiteral is how an unknown contributor name is spelled in
// catalog records and on Work documents.
const UnknownAuthorLiteral = "[Unknown]"

// Contributor roles.
const (
	RolePrimaryAuthor = "Primary Author"
	RoleAuthor        = "Author"
	RoleNarrator      = "Narrator"
	RoleEditor        = "Editor"
	RoleDirector      = "Director"
	RoleActor         = "Actor"
)

// SearchRelevantRoles are the roles a free-text author match is checked against.
var SearchRelevantRoles = []string{RolePrimaryAuthor, RoleAuthor, RoleNarrator}

// AuthorMatchRoles are the roles an author filter is checked against.
var AuthorMatchRoles = []string{
	RolePrimaryAuthor, RoleAuthor, RoleNarrator,
	RoleEditor, RoleDirector, RoleActor,
}

// Name is a contributor name that may be explicitly unknown.
type Name struct {
	value   string
	unknown bool
}

// Unknown is the name of a contributor nothing is known about.
var Unknown = Name{unknown: true}

// KnownName creates a name from a catalog string. The unknown-author
// literal becomes Unknown.
func KnownName(s string) Name {
	if s == UnknownAuthorLiteral {
		return Unknown
	}
	return Name{value: s}
}

// Value returns the name text, empty for unknown names.
func (n Name) Value() string { return n.value }

// IsUnknown reports whether the name is the Unknown sentinel.
func (n Name) IsUnknown() bool { return n.unknown }

// Usable reports whether the name can identify a contributor.
func (n Name) Usable() bool { return !n.unknown && n.value != "" }

// Contributor is a partial identity record for one contributor.
type Contributor struct {
	SortName    Name
	DisplayName Name
	VIAF        Name
	LC          Name
}

// ContributorFromStrings builds a contributor identity from raw catalog values.
func ContributorFromStrings(sortName, displayName, viaf, lc string) *Contributor {
	return &Contributor{
		SortName:    KnownName(sortName),
		DisplayName: KnownName(displayName),
		VIAF:        KnownName(viaf),
		LC:          KnownName(lc),
	}
}
