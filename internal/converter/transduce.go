package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/epub2txt/internal/epub"
	"golang.org/x/net/html"
)

// DefaultChapterTitle is used when a chapter has no h1, h2 or title element.
const DefaultChapterTitle = "Chapter"

// BulletMarker prefixes every list item line.
const BulletMarker = "• "

// Chapter is one chapter of plain text.
// Content separates paragraphs with a blank line and puts each list item on
// its own line prefixed with BulletMarker.
type Chapter struct {
	Title   string
	Content string
}

var (
	bodyOpenRe  = regexp.MustCompile(`(?i)<body\b[^>]*>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)

	// noiseBlockRes remove the element together with its contents.
	noiseBlockRes = blockPatterns("script", "style", "header", "footer")

	// titlePageRe matches the generator title page block
	// <div class="titlepage"><div><div>...</div></div></div>.
	titlePageRe = regexp.MustCompile(`(?is)<div\b[^>]*\bclass\s*=\s*["'][^"']*\btitlepage\b[^"']*["'][^>]*>\s*<div\b[^>]*>\s*<div\b[^>]*>.*?</div\s*>\s*</div\s*>\s*</div\s*>`)
	headingRe   = regexp.MustCompile(`(?is)<h[1-6]\b[^>]*>(.*?)</h[1-6]\s*>`)

	wrapperRe    = regexp.MustCompile(`(?i)</?(?:section|div)\b[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	listItemOpenRe  = regexp.MustCompile(`(?i)<li\b[^>]*>`)
	listItemCloseRe = regexp.MustCompile(`(?i)</li\s*>`)
	listRe          = regexp.MustCompile(`(?i)</?(?:ul|ol)\b[^>]*>`)
	navRe           = regexp.MustCompile(`(?i)</?nav\b[^>]*>`)

	anchorRe = regexp.MustCompile(`(?is)<a\b[^>]*>(.*?)</a\s*>`)

	paragraphBoundaryRe = regexp.MustCompile(`(?i)</p\s*>\s*<p\b[^>]*>`)
	paragraphCloseRe    = regexp.MustCompile(`(?i)</p\s*>`)
	paragraphOpenRe     = regexp.MustCompile(`(?i)<p\b[^>]*>`)
	headingCloseRe      = regexp.MustCompile(`(?i)</h[1-6]\s*>`)
	headingOpenRe       = regexp.MustCompile(`(?i)<h[1-6]\b[^>]*>`)
	lineBreakRe         = regexp.MustCompile(`(?i)<br\b[^>]*>`)

	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`</?[A-Za-z!?][^>]*>`)
)

// blockPatterns builds, per tag, a pattern for the self-closing form and one
// for the element with its contents. Self-closing forms go first so that
// <script src="x"/> does not swallow text up to a later </script>.
func blockPatterns(tags ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, 2*len(tags))
	for _, tag := range tags {
		res = append(res,
			regexp.MustCompile(fmt.Sprintf(`(?i)<%s\b[^>]*/>`, tag)),
			regexp.MustCompile(fmt.Sprintf(`(?is)<%s\b[^>]*>.*?</%s\s*>`, tag, tag)),
		)
	}
	return res
}

// ExtractTitle returns the text of the first h1 that has any, else of the
// first such h2, else of the title element, with nested tags stripped and
// whitespace collapsed. Returns DefaultChapterTitle when none carries text.
func ExtractTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(epub.ExpandSelfClosing(markup)))
	if err != nil {
		return DefaultChapterTitle
	}
	for _, selector := range []string{"h1", "h2", "title"} {
		var title string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			title = collapseSpaces(s.Text())
			return title == ""
		})
		if title != "" {
			return title
		}
	}
	return DefaultChapterTitle
}

// Transduce converts chapter markup into a titled plain-text chapter.
// The passes run in a fixed order; each relies on the normalization done by
// the ones before it.
func Transduce(markup string) Chapter {
	title := ExtractTitle(markup)

	s := isolateBody(markup)
	s = removeNoise(s)
	s = removeTitleBlocks(s, title)
	s = wrapperRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = convertLists(s)
	s = anchorRe.ReplaceAllString(s, "$1")
	s = convertParagraphs(s)
	s = decodeEntities(s)
	s = stripTags(s)
	s = normalizeLines(s)

	return Chapter{Title: title, Content: s}
}

// ContentMarkup renders a chapter back into markup that Transduce maps onto
// the same chapter: the title as an h1, lines joined by <br/>, and text
// escaped so it is not read back as tags or entities.
func ContentMarkup(c Chapter) string {
	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(escapeText(c.Title))
	b.WriteString("</h1>")
	for i, line := range strings.Split(c.Content, "\n") {
		if i > 0 {
			b.WriteString("<br/>")
		}
		b.WriteString(escapeText(line))
	}
	return b.String()
}

// isolateBody returns the contents of the body element, or the whole input
// when there is no body.
func isolateBody(s string) string {
	open := bodyOpenRe.FindStringIndex(s)
	if open == nil {
		return s
	}
	inner := s[open[1]:]
	if closes := bodyCloseRe.FindAllStringIndex(inner, -1); len(closes) > 0 {
		inner = inner[:closes[len(closes)-1][0]]
	}
	return inner
}

func removeNoise(s string) string {
	s = commentRe.ReplaceAllString(s, "")
	for _, re := range noiseBlockRes {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// removeTitleBlocks drops the title page block and any heading whose text is
// exactly the chapter title. Headings with differing text or markup that
// changes the text are kept.
func removeTitleBlocks(s, title string) string {
	s = titlePageRe.ReplaceAllString(s, "")
	return headingRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := headingRe.FindStringSubmatch(m)[1]
		if headingText(inner) == title {
			return ""
		}
		return m
	})
}

// headingText renders heading markup the way ExtractTitle sees it.
func headingText(inner string) string {
	return collapseSpaces(html.UnescapeString(tagRe.ReplaceAllString(inner, "")))
}

// convertLists turns each list item into its own bullet line. Nested lists
// are flattened: no indentation survives.
func convertLists(s string) string {
	s = listItemOpenRe.ReplaceAllString(s, "\n"+BulletMarker)
	s = listItemCloseRe.ReplaceAllString(s, "")
	s = listRe.ReplaceAllString(s, "\n")
	return navRe.ReplaceAllString(s, "")
}

func convertParagraphs(s string) string {
	s = paragraphBoundaryRe.ReplaceAllString(s, "\n\n")
	s = paragraphCloseRe.ReplaceAllString(s, "\n\n")
	s = paragraphOpenRe.ReplaceAllString(s, "")
	s = headingCloseRe.ReplaceAllString(s, "\n\n")
	s = headingOpenRe.ReplaceAllString(s, "")
	return lineBreakRe.ReplaceAllString(s, "\n")
}

// stripTags removes tags until none are left; removing one tag can join the
// text around it into another ("<<b>b>").
func stripTags(s string) string {
	for {
		next := tagRe.ReplaceAllString(commentRe.ReplaceAllString(s, ""), "")
		if next == s {
			return s
		}
		s = next
	}
}

// normalizeLines trims and collapses each line, drops bullet lines with no
// text, keeps at most one blank line between blocks (none between list
// items), and trims the result.
func normalizeLines(s string) string {
	bullet := strings.TrimSpace(BulletMarker)
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = collapseSpaces(line)
		if line == bullet {
			continue
		}
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(joinListRuns(out), "\n"))
}

// joinListRuns drops a blank line sitting between two bullet lines, which
// nested list containers and paragraphs inside items would otherwise leave.
func joinListRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if line == "" && i > 0 && i+1 < len(lines) &&
			strings.HasPrefix(lines[i-1], BulletMarker) && strings.HasPrefix(lines[i+1], BulletMarker) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
