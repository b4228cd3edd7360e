package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

type zipEntry struct {
	name string
	body string
}

// buildTestEPUB assembles an EPUB archive in memory from the given entries.
func buildTestEPUB(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	// mimetype (must be uncompressed/stored)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype: %v", err)
	}
	mw.Write([]byte("application/epub+zip"))

	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.name, err)
		}
		fw.Write([]byte(e.body))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func openTestEPUB(t *testing.T, entries ...zipEntry) *ZipArchive {
	t.Helper()
	a, err := OpenBytes(buildTestEPUB(t, entries...))
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	return a
}

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func TestOpenBytes_Entries(t *testing.T) {
	a := openTestEPUB(t,
		zipEntry{"META-INF/container.xml", testContainer},
		zipEntry{"./OEBPS/content.opf", "<package/>"},
	)

	want := []string{"META-INF/container.xml", "OEBPS/content.opf", "mimetype"}
	got := a.Entries()
	if len(got) != len(want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOpenBytes_NotZip(t *testing.T) {
	if _, err := OpenBytes([]byte("definitely not a zip")); err == nil {
		t.Fatal("OpenBytes() error = nil, want error")
	}
}

func TestZipArchive_ReadText(t *testing.T) {
	a := openTestEPUB(t, zipEntry{"OEBPS/ch1.xhtml", "\xEF\xBB\xBF<p>Hello</p>"})

	text, err := a.ReadText("OEBPS/ch1.xhtml")
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if text != "<p>Hello</p>" {
		t.Errorf("ReadText() = %q, want BOM stripped", text)
	}

	data, err := a.ReadBytes("./OEBPS/ch1.xhtml")
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("ReadBytes() should return raw bytes including the BOM")
	}
}

func TestZipArchive_CaseInsensitiveFallback(t *testing.T) {
	a := openTestEPUB(t, zipEntry{"meta-inf/Container.xml", testContainer})

	if !a.HasEntry("META-INF/container.xml") {
		t.Fatal("HasEntry() = false, want case-insensitive match")
	}
	if _, err := a.ReadText("META-INF/container.xml"); err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
}

func TestZipArchive_MissingEntry(t *testing.T) {
	a := openTestEPUB(t)

	if a.HasEntry("OEBPS/missing.xhtml") {
		t.Error("HasEntry() = true for missing entry")
	}
	_, err := a.ReadBytes("OEBPS/missing.xhtml")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("ReadBytes() error = %v, want ErrEntryNotFound", err)
	}
	if _, err := a.ReadText("OEBPS/missing.xhtml"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("ReadText() error = %v, want ErrEntryNotFound", err)
	}
}

func TestZipArchive_EntryTooLarge(t *testing.T) {
	a := openTestEPUB(t, zipEntry{"OEBPS/big.xhtml", "0123456789"})
	a.limit = 4

	if _, err := a.ReadBytes("OEBPS/big.xhtml"); !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("ReadBytes() error = %v, want ErrEntryTooLarge", err)
	}
}
