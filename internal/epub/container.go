package epub

import (
	"fmt"
	"path"
	"strings"
)

// ContainerPath is the fixed location of the container descriptor.
const ContainerPath = "META-INF/container.xml"

const packageMediaType = "application/oebps-package+xml"

// PackageLocation is the position of the package (OPF) document in the archive.
type PackageLocation struct {
	Path string // e.g. "OEBPS/content.opf"
	Dir  string // e.g. "OEBPS"; empty when the OPF sits at the archive root
}

// LocatePackage reads container.xml and returns the package document location.
func LocatePackage(a Archive) (PackageLocation, error) {
	content, err := a.ReadText(ContainerPath)
	if err != nil {
		return PackageLocation{}, fmt.Errorf("%w: %w", ErrMalformedArchive, ErrContainerNotFound)
	}

	fullPath, ok := findRootfile(content)
	if !ok {
		return PackageLocation{}, fmt.Errorf("%w: %w", ErrMalformedArchive, ErrOPFPathNotFound)
	}

	return newPackageLocation(fullPath), nil
}

// findRootfile picks the rootfile whose media-type names a package document,
// falling back to the first rootfile with a non-empty full-path.
func findRootfile(container string) (string, bool) {
	var fallback string
	for _, rf := range ScanElements(container, "rootfile") {
		fullPath, _ := rf.Attr("full-path")
		fullPath = strings.TrimSpace(fullPath)
		if fullPath == "" {
			continue
		}
		if mt, _ := rf.Attr("media-type"); strings.EqualFold(strings.TrimSpace(mt), packageMediaType) {
			return fullPath, true
		}
		if fallback == "" {
			fallback = fullPath
		}
	}
	return fallback, fallback != ""
}

func newPackageLocation(fullPath string) PackageLocation {
	p := normalizePath(path.Clean(normalizePath(fullPath)))
	dir := path.Dir(p)
	if dir == "." {
		dir = ""
	}
	return PackageLocation{Path: p, Dir: dir}
}
