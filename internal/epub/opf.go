package epub

import (
	"strings"
)

// ParsePackage extracts metadata, manifest, spine and guide from package
// document text. dir is the directory containing the package document
// (e.g., "OEBPS"). Missing parts degrade to placeholders or empty lists.
func ParsePackage(text, dir string) *Package {
	pkg := &Package{
		Manifest: make(map[string]ManifestItem),
		raw:      text,
		dir:      dir,
	}

	pkg.Metadata = parseMetadata(text)

	for _, el := range ScanElements(text, "item") {
		item, ok := manifestItemFrom(el, dir)
		if !ok {
			continue
		}
		if _, dup := pkg.Manifest[item.ID]; dup {
			continue
		}
		pkg.Manifest[item.ID] = item
		pkg.ManifestOrder = append(pkg.ManifestOrder, item.ID)
	}

	for _, el := range ScanElements(text, "itemref") {
		idref, _ := el.Attr("idref")
		idref = strings.TrimSpace(idref)
		if idref == "" {
			continue
		}
		linear, _ := el.Attr("linear")
		pkg.Spine = append(pkg.Spine, SpineItem{
			IDRef:  idref,
			Linear: !strings.EqualFold(strings.TrimSpace(linear), "no"),
		})
	}

	for _, el := range ScanElements(text, "reference") {
		href, _ := el.Attr("href")
		if strings.TrimSpace(href) == "" {
			continue
		}
		typ, _ := el.Attr("type")
		title, _ := el.Attr("title")
		pkg.Guide = append(pkg.Guide, GuideReference{
			Type:  strings.TrimSpace(typ),
			Title: title,
			Href:  resolvePath(dir, href),
		})
	}

	return pkg
}

// Dir returns the directory of the package document.
func (p *Package) Dir() string {
	return p.dir
}

// manifestItemFrom builds a ManifestItem; items lacking id or href are rejected.
func manifestItemFrom(el Element, dir string) (ManifestItem, bool) {
	id, _ := el.Attr("id")
	href, _ := el.Attr("href")
	if id == "" || strings.TrimSpace(href) == "" {
		return ManifestItem{}, false
	}
	mediaType, _ := el.Attr("media-type")
	item := ManifestItem{
		ID:        id,
		Href:      href,
		Path:      resolvePath(dir, href),
		MediaType: strings.TrimSpace(mediaType),
	}

	// Parse properties (space-separated)
	if props, ok := el.Attr("properties"); ok {
		item.Properties = strings.Fields(props)
	}
	return item, true
}

// parseMetadata parses the metadata section
func parseMetadata(text string) Metadata {
	md := Metadata{
		Title:    UnknownTitle,
		Author:   UnknownAuthor,
		Creators: []Creator{},
		Subjects: []string{},
	}

	if title, ok := FirstElementText(text, "title"); ok {
		md.Title = title
	}

	roles := creatorRoles(text)
	for _, el := range ScanElements(text, "creator") {
		name := collapseSpace(el.Text)
		if name == "" {
			continue
		}
		role, _ := el.Attr("role")
		if id, ok := el.Attr("id"); ok && role == "" {
			role = roles["#"+id]
		}
		md.Creators = append(md.Creators, Creator{Name: name, Role: role})
	}
	if len(md.Creators) > 0 {
		md.Author = md.Creators[0].Name
	}

	md.Language, _ = FirstElementText(text, "language")
	md.Identifier = primaryIdentifier(text)
	md.Publisher, _ = FirstElementText(text, "publisher")
	md.Date, _ = FirstElementText(text, "date")
	md.Description, _ = FirstElementText(text, "description")
	for _, el := range ScanElements(text, "subject") {
		if s := collapseSpace(el.Text); s != "" {
			md.Subjects = append(md.Subjects, s)
		}
	}

	md.CoverID = metaCoverID(text)

	return md
}

// creatorRoles maps "#creator-id" to the role refined by an EPUB 3.0
// <meta refines="#id" property="role"> element.
func creatorRoles(text string) map[string]string {
	roles := make(map[string]string)
	for _, m := range ScanElements(text, "meta") {
		prop, _ := m.Attr("property")
		refines, _ := m.Attr("refines")
		if prop != "role" || refines == "" {
			continue
		}
		// EPUB 3.0 uses element text, some generators use the content attribute
		value := collapseSpace(m.Text)
		if value == "" {
			value, _ = m.Attr("content")
		}
		if _, seen := roles[refines]; !seen {
			roles[refines] = value
		}
	}
	return roles
}

// metaCoverID returns the content of the first <meta name="cover"> element,
// whichever order its attributes appear in.
func metaCoverID(text string) string {
	for _, m := range ScanElements(text, "meta") {
		name, _ := m.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "cover") {
			continue
		}
		if content, _ := m.Attr("content"); strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// primaryIdentifier prefers the identifier named by the package's
// unique-identifier attribute and falls back to the first one.
func primaryIdentifier(text string) string {
	var uniqueID string
	if pkgs := ScanElements(text, "package"); len(pkgs) > 0 {
		uniqueID, _ = pkgs[0].Attr("unique-identifier")
	}
	var first string
	for _, el := range ScanElements(text, "identifier") {
		value := collapseSpace(el.Text)
		if value == "" {
			continue
		}
		if id, _ := el.Attr("id"); uniqueID != "" && id == uniqueID {
			return value
		}
		if first == "" {
			first = value
		}
	}
	return first
}
