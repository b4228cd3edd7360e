package epub

import "errors"

var (
	ErrEntryNotFound     = errors.New("entry not found in archive")
	ErrEntryTooLarge     = errors.New("entry exceeds decompression limit")
	ErrMalformedArchive  = errors.New("malformed archive: container descriptor missing or unreadable")
	ErrMalformedPackage  = errors.New("malformed package: package document missing or unreadable")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
)
