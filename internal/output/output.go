// Package output renders loaded books for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/yuanying/epub2txt/internal/converter"
)

// WriteText writes the book as plain text: a header with title and author,
// then each chapter title underlined, followed by its content.
func WriteText(w io.Writer, book *converter.Book) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", book.Metadata.Title, book.Metadata.Author)
	for _, ch := range book.Chapters {
		b.WriteString("\n\n")
		writeChapter(&b, ch)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteChapter writes a single chapter as plain text.
func WriteChapter(w io.Writer, ch converter.Chapter) error {
	var b strings.Builder
	writeChapter(&b, ch)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChapter(b *strings.Builder, ch converter.Chapter) {
	b.WriteString(ch.Title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", max(utf8.RuneCountInString(ch.Title), 1)))
	b.WriteString("\n\n")
	b.WriteString(ch.Content)
	b.WriteByte('\n')
}

type jsonBook struct {
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	CoverImage  string        `json:"coverImage,omitempty"`
	Language    string        `json:"language,omitempty"`
	Identifier  string        `json:"identifier,omitempty"`
	Publisher   string        `json:"publisher,omitempty"`
	Date        string        `json:"date,omitempty"`
	Description string        `json:"description,omitempty"`
	Subjects    []string      `json:"subjects,omitempty"`
	Chapters    []jsonChapter `json:"chapters"`
}

type jsonChapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// WriteJSON writes the book as an indented JSON document. The cover, when
// present, is embedded as a data: URI.
func WriteJSON(w io.Writer, book *converter.Book) error {
	md := book.Metadata
	out := jsonBook{
		Title:       md.Title,
		Author:      md.Author,
		Language:    md.Language,
		Identifier:  md.Identifier,
		Publisher:   md.Publisher,
		Date:        md.Date,
		Description: md.Description,
		Subjects:    md.Subjects,
		Chapters:    make([]jsonChapter, 0, len(book.Chapters)),
	}
	if md.Cover != nil {
		out.CoverImage = md.Cover.DataURI()
	}
	for _, ch := range book.Chapters {
		out.Chapters = append(out.Chapters, jsonChapter{Title: ch.Title, Content: ch.Content})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// RenderInfo renders book metadata and a chapter table.
func RenderInfo(book *converter.Book) string {
	md := book.Metadata

	meta := table.NewWriter()
	meta.SetStyle(table.StyleRounded)
	meta.AppendRow(table.Row{"Title", md.Title})
	meta.AppendRow(table.Row{"Author", md.Author})
	for _, field := range []struct{ name, value string }{
		{"Language", md.Language},
		{"Identifier", md.Identifier},
		{"Publisher", md.Publisher},
		{"Date", md.Date},
	} {
		if field.value != "" {
			meta.AppendRow(table.Row{field.name, field.value})
		}
	}
	cover := "none"
	if md.Cover != nil {
		cover = fmt.Sprintf("%s (%s, %d bytes, via %s)", md.Cover.Path, md.Cover.MediaType, len(md.Cover.Data), md.Cover.DetectionMethod)
	}
	meta.AppendRow(table.Row{"Cover", cover})

	chapters := table.NewWriter()
	chapters.SetStyle(table.StyleRounded)
	chapters.AppendHeader(table.Row{"#", "Title", "Paragraphs", "Characters"})
	for i, ch := range book.Chapters {
		chapters.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			ch.Title,
			strconv.Itoa(countParagraphs(ch.Content)),
			strconv.Itoa(utf8.RuneCountInString(ch.Content)),
		})
	}
	chapters.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return meta.Render() + "\n" + chapters.Render()
}

func countParagraphs(content string) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}
	return strings.Count(content, "\n\n") + 1
}
