package epub

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a tag found by ScanElements.
type Element struct {
	Name  string            // local name, lowercased
	Attrs map[string]string // attribute key (lowercased, prefix kept) -> value
	Text  string            // inner text with nested tags dropped
}

// Attr returns the value of the named attribute. A bare name also matches a
// prefixed key, so "role" finds "opf:role".
func (e Element) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	if v, ok := e.Attrs[name]; ok {
		return v, true
	}
	for k, v := range e.Attrs {
		if localName(k) == name {
			return v, true
		}
	}
	return "", false
}

// ScanElements returns every element whose local name equals name, in
// document order. It runs a lenient tokenizer over markup so that attribute
// order, namespace prefixes and unbalanced tags do not matter.
func ScanElements(markup, name string) []Element {
	name = strings.ToLower(name)
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		found []Element
		texts []*strings.Builder
		open  []int // indexes into found of elements awaiting their end tag
	)

	finish := func(idx int) {
		found[idx].Text = texts[idx].String()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			for _, idx := range open {
				finish(idx)
			}
			return found

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if localName(tok.Data) != name {
				continue
			}
			el := Element{Name: name, Attrs: make(map[string]string, len(tok.Attr))}
			for _, a := range tok.Attr {
				key := strings.ToLower(a.Key)
				if a.Namespace != "" {
					key = a.Namespace + ":" + key
				}
				if _, dup := el.Attrs[key]; !dup {
					el.Attrs[key] = a.Val
				}
			}
			found = append(found, el)
			texts = append(texts, &strings.Builder{})
			if tok.Type == html.StartTagToken {
				open = append(open, len(found)-1)
			}

		case html.EndTagToken:
			tok := z.Token()
			if localName(tok.Data) != name || len(open) == 0 {
				continue
			}
			finish(open[len(open)-1])
			open = open[:len(open)-1]

		case html.TextToken:
			if len(open) == 0 {
				continue
			}
			text := string(z.Text())
			for _, idx := range open {
				texts[idx].WriteString(text)
			}
		}
	}
}

// FirstElementText returns the trimmed text of the first element with the
// given local name that has non-blank text.
func FirstElementText(markup, name string) (string, bool) {
	for _, el := range ScanElements(markup, name) {
		if t := collapseSpace(el.Text); t != "" {
			return t, true
		}
	}
	return "", false
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
