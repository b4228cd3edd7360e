package epub

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selfClosingRawRe matches XHTML self-closing forms of elements whose
// content an HTML5 parser reads as raw text.
var selfClosingRawRe = regexp.MustCompile(`(?i)<(title|script|style|textarea|noscript|iframe|xmp)\b([^>]*?)/>`)

// ExpandSelfClosing rewrites <title/>, <script .../> and the like into an
// explicit open and close pair. An HTML5 parser ignores the slash and would
// read the rest of the document as the element's text.
func ExpandSelfClosing(markup string) string {
	return selfClosingRawRe.ReplaceAllString(markup, "<$1$2></$1>")
}

// Content represents a parsed XHTML content file
type Content struct {
	ImageRefs []string // Referenced image paths, resolved against the file's directory
}

// LoadContent loads and parses an XHTML content file
// path: file path within EPUB (used for relative path resolution)
// content: XHTML file content
func LoadContent(path string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ExpandSelfClosing(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{ImageRefs: []string{}}

	baseDir := dirOf(path)

	// <img src> and SVG <image xlink:href> both reference raster covers
	doc.Find("img, image").Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists {
			src, exists = s.Attr("xlink:href")
		}
		if !exists {
			src, exists = s.Attr("href")
		}
		if exists && strings.TrimSpace(src) != "" && !strings.HasPrefix(src, "data:") {
			c.ImageRefs = append(c.ImageRefs, resolvePath(baseDir, src))
		}
	})

	return c, nil
}

// resolvePath resolves a relative href against a base directory
// baseDir: base directory (e.g., "text" for "text/chapter1.xhtml")
// relPath: relative path (e.g., "../images/photo.jpg#frag")
// returns: resolved path (e.g., "images/photo.jpg")
func resolvePath(baseDir, relPath string) string {
	relPath = strings.TrimSpace(relPath)
	relPath, _, _ = strings.Cut(relPath, "#")
	if decoded, err := url.PathUnescape(relPath); err == nil {
		relPath = decoded
	}
	if strings.HasPrefix(relPath, "/") {
		return normalizePath(path.Clean(relPath))
	}
	return normalizePath(path.Clean(path.Join(baseDir, relPath)))
}

func dirOf(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
