package epub

import (
	"encoding/base64"
	"path"
	"strings"
)

// Cover holds a resolved cover image.
type Cover struct {
	ManifestID      string
	Path            string
	MediaType       string
	Data            []byte
	DetectionMethod string // "meta", "properties", "manifest-id", "guide", "filename"
}

// DataURI returns the cover as a base64 data: URI.
func (c *Cover) DataURI() string {
	return "data:" + c.MediaType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// coverCandidate is an archive entry a strategy proposes as the cover.
type coverCandidate struct {
	id   string
	path string
}

type coverStrategy struct {
	method     string
	candidates func(pkg *Package, a Archive) []coverCandidate
}

// coverStrategies are tried in priority order:
//  1. meta name="cover" (EPUB 2.0) resolved through the manifest
//  2. properties="cover-image" (EPUB 3.0)
//  3. every <item> declaring the meta cover id, rescanned from the raw package text
//  4. guide type="cover" (the image itself, or the first image of the cover page)
//  5. filename pattern (basename contains "cover", case-insensitive)
var coverStrategies = []coverStrategy{
	{method: "meta", candidates: coverByMeta},
	{method: "properties", candidates: coverByProperty},
	{method: "manifest-id", candidates: coverByManifestID},
	{method: "guide", candidates: coverByGuide},
	{method: "filename", candidates: coverByFilename},
}

// ResolveCover returns the first cover that a strategy proposes and the
// archive can supply. A candidate that cannot be read falls through to the
// next one. Returns nil if no cover image is found.
func ResolveCover(pkg *Package, a Archive) *Cover {
	if pkg == nil || a == nil {
		return nil
	}
	for _, s := range coverStrategies {
		for _, c := range s.candidates(pkg, a) {
			data, err := a.ReadBytes(c.path)
			if err != nil || len(data) == 0 {
				continue
			}
			return &Cover{
				ManifestID:      c.id,
				Path:            c.path,
				MediaType:       CoverMediaType(c.path),
				Data:            data,
				DetectionMethod: s.method,
			}
		}
	}
	return nil
}

// CoverMediaType infers a MIME type from the file extension: JPEG for
// .jpg/.jpeg, PNG for anything else.
func CoverMediaType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

func coverByMeta(pkg *Package, _ Archive) []coverCandidate {
	if pkg.Metadata.CoverID == "" {
		return nil
	}
	item, ok := pkg.Manifest[pkg.Metadata.CoverID]
	if !ok || !maybeImage(item.MediaType, item.Path) {
		return nil
	}
	return []coverCandidate{{id: item.ID, path: item.Path}}
}

func coverByProperty(pkg *Package, _ Archive) []coverCandidate {
	var out []coverCandidate
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		if item.HasProperty("cover-image") && maybeImage(item.MediaType, item.Path) {
			out = append(out, coverCandidate{id: item.ID, path: item.Path})
		}
	}
	return out
}

// coverByManifestID looks the meta cover id up directly in the package text.
// Exact id matches come first, then case-insensitive ones, so duplicate or
// mis-cased declarations hidden by the manifest map still get a chance.
func coverByManifestID(pkg *Package, _ Archive) []coverCandidate {
	coverID := pkg.Metadata.CoverID
	if coverID == "" {
		return nil
	}
	var exact, folded []coverCandidate
	for _, el := range ScanElements(pkg.raw, "item") {
		id, _ := el.Attr("id")
		href, _ := el.Attr("href")
		mediaType, _ := el.Attr("media-type")
		if strings.TrimSpace(href) == "" {
			continue
		}
		c := coverCandidate{id: id, path: resolvePath(pkg.dir, href)}
		if !maybeImage(mediaType, c.path) {
			continue
		}
		switch {
		case id == coverID:
			exact = append(exact, c)
		case strings.EqualFold(id, coverID):
			folded = append(folded, c)
		}
	}
	return append(exact, folded...)
}

func coverByGuide(pkg *Package, a Archive) []coverCandidate {
	var out []coverCandidate
	for _, ref := range pkg.Guide {
		if !strings.EqualFold(ref.Type, "cover") || ref.Href == "" {
			continue
		}

		item, inManifest := findManifestByPath(pkg, ref.Href)
		if inManifest && maybeImage(item.MediaType, item.Path) {
			out = append(out, coverCandidate{id: item.ID, path: item.Path})
			continue
		}
		if !inManifest && hasImageExt(ref.Href) {
			out = append(out, coverCandidate{path: ref.Href})
			continue
		}
		if !looksLikeXHTML(ref.Href) {
			continue
		}

		data, err := a.ReadBytes(ref.Href)
		if err != nil {
			continue
		}
		content, err := LoadContent(ref.Href, data)
		if err != nil || len(content.ImageRefs) == 0 {
			continue
		}
		first := content.ImageRefs[0]
		if !maybeImage("", first) {
			continue
		}
		imgItem, _ := findManifestByPath(pkg, first)
		out = append(out, coverCandidate{id: imgItem.ID, path: first})
	}
	return out
}

func coverByFilename(pkg *Package, _ Archive) []coverCandidate {
	var out []coverCandidate
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		if !isImageMediaType(item.MediaType) && !hasImageExt(item.Path) {
			continue
		}
		if !maybeImage(item.MediaType, item.Path) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Path)), "cover") {
			out = append(out, coverCandidate{id: item.ID, path: item.Path})
		}
	}
	return out
}

func findManifestByPath(pkg *Package, p string) (ManifestItem, bool) {
	for _, id := range pkg.ManifestOrder {
		if item := pkg.Manifest[id]; item.Path == p {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// maybeImage rejects entries that are declared, or named, as something other
// than a raster image. An undeclared media type with an unknown extension is
// given the benefit of the doubt.
func maybeImage(mediaType, p string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType != "" {
		return isImageMediaType(mediaType)
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == ".svg" || looksLikeXHTML(p) {
		return false
	}
	return true
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

func hasImageExt(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}

func looksLikeXHTML(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
