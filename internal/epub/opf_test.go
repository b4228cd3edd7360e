package epub

import "testing"

func TestParsePackage_EPUB20(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="BookId" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Test Book Title</dc:title>
    <dc:creator opf:role="aut">John Doe</dc:creator>
    <dc:creator opf:role="edt">Jane Smith</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="uuid">urn:uuid:1234</dc:identifier>
    <dc:identifier id="BookId">978-4-123456-78-9</dc:identifier>
    <dc:publisher>Test Publisher</dc:publisher>
    <dc:date>2024-01-01</dc:date>
    <dc:subject>Fiction</dc:subject>
    <dc:subject>Adventure</dc:subject>
    <meta name="cover" content="cover-image"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover-image" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="chapter1" href="text/chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item href="text/chapter2.xhtml" id="chapter2" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="chapter1"/>
    <itemref idref="chapter2" linear="no"/>
  </spine>
  <guide>
    <reference type="cover" title="Cover" href="text/cover.xhtml#top"/>
  </guide>
</package>`

	pkg := ParsePackage(opfContent, "OEBPS")

	md := pkg.Metadata
	if md.Title != "Test Book Title" {
		t.Errorf("Title = %q, want %q", md.Title, "Test Book Title")
	}
	if md.Author != "John Doe" {
		t.Errorf("Author = %q, want %q", md.Author, "John Doe")
	}
	if len(md.Creators) != 2 {
		t.Fatalf("Creators count = %d, want 2", len(md.Creators))
	}
	if md.Creators[1].Name != "Jane Smith" || md.Creators[1].Role != "edt" {
		t.Errorf("Creators[1] = %+v, want Jane Smith/edt", md.Creators[1])
	}
	if md.Language != "en" {
		t.Errorf("Language = %q, want %q", md.Language, "en")
	}
	if md.Identifier != "978-4-123456-78-9" {
		t.Errorf("Identifier = %q, want unique-identifier value", md.Identifier)
	}
	if md.Publisher != "Test Publisher" {
		t.Errorf("Publisher = %q, want %q", md.Publisher, "Test Publisher")
	}
	if md.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", md.Date, "2024-01-01")
	}
	if len(md.Subjects) != 2 || md.Subjects[0] != "Fiction" || md.Subjects[1] != "Adventure" {
		t.Errorf("Subjects = %v, want [Fiction Adventure]", md.Subjects)
	}
	if md.CoverID != "cover-image" {
		t.Errorf("CoverID = %q, want %q", md.CoverID, "cover-image")
	}

	if len(pkg.Manifest) != 4 {
		t.Fatalf("Manifest count = %d, want 4", len(pkg.Manifest))
	}
	wantOrder := []string{"ncx", "cover-image", "chapter1", "chapter2"}
	for i, id := range wantOrder {
		if pkg.ManifestOrder[i] != id {
			t.Errorf("ManifestOrder[%d] = %q, want %q", i, pkg.ManifestOrder[i], id)
		}
	}
	ch2 := pkg.Manifest["chapter2"]
	if ch2.Href != "text/chapter2.xhtml" {
		t.Errorf("chapter2 Href = %q, want %q", ch2.Href, "text/chapter2.xhtml")
	}
	if ch2.Path != "OEBPS/text/chapter2.xhtml" {
		t.Errorf("chapter2 Path = %q, want %q", ch2.Path, "OEBPS/text/chapter2.xhtml")
	}

	if len(pkg.Spine) != 2 {
		t.Fatalf("Spine count = %d, want 2", len(pkg.Spine))
	}
	if pkg.Spine[0].IDRef != "chapter1" || !pkg.Spine[0].Linear {
		t.Errorf("Spine[0] = %+v, want chapter1 linear", pkg.Spine[0])
	}
	if pkg.Spine[1].IDRef != "chapter2" || pkg.Spine[1].Linear {
		t.Errorf("Spine[1] = %+v, want chapter2 non-linear", pkg.Spine[1])
	}

	if len(pkg.Guide) != 1 {
		t.Fatalf("Guide count = %d, want 1", len(pkg.Guide))
	}
	if pkg.Guide[0].Href != "OEBPS/text/cover.xhtml" {
		t.Errorf("Guide[0].Href = %q, want fragment-free resolved path", pkg.Guide[0].Href)
	}
}

func TestParsePackage_EPUB30(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>EPUB 3 Book</dc:title>
    <dc:creator id="creator01">Author Name</dc:creator>
    <meta refines="#creator01" property="role" scheme="marc:relators">aut</meta>
  </metadata>
  <manifest>
    <item id="cover" href="images/cover.png" media-type="image/png" properties="cover-image"/>
    <item properties="nav" id="nav" href="nav.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine><itemref idref="nav"/></spine>
</package>`

	pkg := ParsePackage(opfContent, "")

	if pkg.Metadata.Creators[0].Role != "aut" {
		t.Errorf("Creator role = %q, want %q", pkg.Metadata.Creators[0].Role, "aut")
	}
	cover := pkg.Manifest["cover"]
	if !cover.HasProperty("cover-image") {
		t.Errorf("cover Properties = %v, want cover-image", cover.Properties)
	}
	if cover.Path != "images/cover.png" {
		t.Errorf("cover Path = %q, want %q", cover.Path, "images/cover.png")
	}
	if !pkg.Manifest["nav"].HasProperty("nav") {
		t.Errorf("nav Properties = %v, want nav", pkg.Manifest["nav"].Properties)
	}
}

func TestParsePackage_Placeholders(t *testing.T) {
	pkg := ParsePackage(`<package><metadata></metadata><manifest/><spine/></package>`, "OEBPS")

	if pkg.Metadata.Title != UnknownTitle {
		t.Errorf("Title = %q, want %q", pkg.Metadata.Title, UnknownTitle)
	}
	if pkg.Metadata.Author != UnknownAuthor {
		t.Errorf("Author = %q, want %q", pkg.Metadata.Author, UnknownAuthor)
	}
	if len(pkg.Manifest) != 0 || len(pkg.Spine) != 0 {
		t.Errorf("expected empty manifest and spine, got %d/%d", len(pkg.Manifest), len(pkg.Spine))
	}
}

func TestParsePackage_NotXML(t *testing.T) {
	pkg := ParsePackage("this is not a package document at all", "")
	if pkg == nil {
		t.Fatal("ParsePackage() = nil, want placeholders")
	}
	if pkg.Metadata.Title != UnknownTitle || pkg.Metadata.Author != UnknownAuthor {
		t.Errorf("Metadata = %+v, want placeholders", pkg.Metadata)
	}
}

func TestParsePackage_ManifestSkipsIncompleteItems(t *testing.T) {
	opfContent := `<manifest>
  <item id="no-href" media-type="application/xhtml+xml"/>
  <item href="no-id.xhtml" media-type="application/xhtml+xml"/>
  <item id="ok" href="ok.xhtml"/>
</manifest>`

	pkg := ParsePackage(opfContent, "")
	if len(pkg.Manifest) != 1 {
		t.Fatalf("Manifest count = %d, want 1", len(pkg.Manifest))
	}
	if _, ok := pkg.Manifest["ok"]; !ok {
		t.Error("item \"ok\" missing from manifest")
	}
}

func TestParsePackage_DuplicateIDFirstWins(t *testing.T) {
	opfContent := `<manifest>
  <item id="ch" href="first.xhtml"/>
  <item id="ch" href="second.xhtml"/>
  <item id="CH" href="upper.xhtml"/>
</manifest>`

	pkg := ParsePackage(opfContent, "OEBPS")
	if got := pkg.Manifest["ch"].Path; got != "OEBPS/first.xhtml" {
		t.Errorf("Manifest[ch].Path = %q, want first declaration", got)
	}
	if got := pkg.Manifest["CH"].Path; got != "OEBPS/upper.xhtml" {
		t.Errorf("Manifest[CH].Path = %q, ids are case-sensitive", got)
	}
	if len(pkg.ManifestOrder) != 2 {
		t.Errorf("ManifestOrder = %v, want 2 ids", pkg.ManifestOrder)
	}
}

func TestParsePackage_AttributeOrder(t *testing.T) {
	a := ParsePackage(`<item id="i" href="h.xhtml"/><meta name="cover" content="x"/>`, "")
	b := ParsePackage(`<item href="h.xhtml" id="i"/><meta content="x" name="cover"/>`, "")

	if a.Manifest["i"].Path != b.Manifest["i"].Path || a.Manifest["i"].Path != "h.xhtml" {
		t.Errorf("Manifest paths differ: %q vs %q", a.Manifest["i"].Path, b.Manifest["i"].Path)
	}
	if a.Metadata.CoverID != "x" || b.Metadata.CoverID != "x" {
		t.Errorf("CoverID = %q / %q, want %q", a.Metadata.CoverID, b.Metadata.CoverID, "x")
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		baseDir, href, want string
	}{
		{"OEBPS", "text/ch1.xhtml", "OEBPS/text/ch1.xhtml"},
		{"OEBPS/text", "../images/photo.jpg", "OEBPS/images/photo.jpg"},
		{"", "ch1.xhtml", "ch1.xhtml"},
		{"OEBPS", "ch%201.xhtml", "OEBPS/ch 1.xhtml"},
		{"OEBPS", "ch1.xhtml#section", "OEBPS/ch1.xhtml"},
		{"OEBPS", "./ch1.xhtml", "OEBPS/ch1.xhtml"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := resolvePath(tt.baseDir, tt.href); got != tt.want {
				t.Errorf("resolvePath(%q, %q) = %q, want %q", tt.baseDir, tt.href, got, tt.want)
			}
		})
	}
}
