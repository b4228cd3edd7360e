package epub

// Package represents the parsed Open Package Format document
type Package struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item, first declaration wins
	ManifestOrder []string                // ids in declaration order
	Spine         []SpineItem
	Guide         []GuideReference

	raw string // package document text, kept for direct rescans
	dir string // directory of the package document
}

// Placeholders used when the package omits a title or creator.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title       string
	Author      string // first creator, or UnknownAuthor
	Creators    []Creator
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	CoverID     string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string // as written, relative to the package document
	Path       string // resolved archive path
	MediaType  string
	Properties []string
}

// HasProperty reports whether the item declares the given property token.
func (m ManifestItem) HasProperty(prop string) bool {
	for _, p := range m.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideReference is an EPUB 2 <guide> entry.
type GuideReference struct {
	Type  string
	Title string
	Href  string // resolved archive path, fragment removed
}
