package catalog

// Lane is one node of a library's browse hierarchy. Unset fields are
// inherited from the parent when InheritParentRestrictions is true.
type Lane struct {
	ID                        int64     `json:"id" yaml:"id"`
	ParentID                  *int64    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	LibraryID                 int64     `json:"library_id" yaml:"library_id"`
	DisplayName               string    `json:"display_name" yaml:"display_name"`
	Media                     []string  `json:"media,omitempty" yaml:"media,omitempty"`
	Languages                 []string  `json:"languages,omitempty" yaml:"languages,omitempty"`
	Fiction                   *bool     `json:"fiction,omitempty" yaml:"fiction,omitempty"`
	Audiences                 []string  `json:"audiences,omitempty" yaml:"audiences,omitempty"`
	TargetAge                 *AgeRange `json:"target_age,omitempty" yaml:"target_age,omitempty"`
	CollectionIDs             []int64   `json:"collection_ids,omitempty" yaml:"collection_ids,omitempty"`
	LicenseDataSourceID       *int64    `json:"license_datasource_id,omitempty" yaml:"license_datasource_id,omitempty"`
	GenreIDs                  []int64   `json:"genre_ids,omitempty" yaml:"genre_ids,omitempty"`
	CustomListIDs             []int64   `json:"customlist_ids,omitempty" yaml:"customlist_ids,omitempty"`
	InheritParentRestrictions bool      `json:"inherit_parent_restrictions" yaml:"inherit_parent_restrictions"`
}
