package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/yuanying/epub2txt/internal/epub"
	"golang.org/x/sync/errgroup"
)

// LoadOptions holds options for loading a book.
type LoadOptions struct {
	Logger           *slog.Logger
	Workers          int  // concurrent chapter transductions; <= 0 means NumCPU
	SkipNonLinear    bool // leave out spine items marked linear="no"
	MaxCoverWidth    int  // downscale wider covers; 0 keeps the original
	CoverJPEGQuality int
}

// BookMetadata describes a loaded book. Cover is nil when no cover image
// could be resolved.
type BookMetadata struct {
	Title       string
	Author      string
	Cover       *epub.Cover
	Creators    []epub.Creator
	Language    string
	Identifier  string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
}

// Book is the result of a load: metadata plus chapters in reading order.
type Book struct {
	Metadata BookMetadata
	Chapters []Chapter
}

// Loader turns EPUB archives into books.
type Loader struct {
	Options LoadOptions
	logger  *slog.Logger
	covers  *CoverOptimizer
}

// NewLoader creates a new loader.
func NewLoader(opts LoadOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Loader{
		Options: opts,
		logger:  logger,
		covers:  NewCoverOptimizer(opts),
	}
}

// Load is shorthand for NewLoader(opts).Load(ctx, data).
func Load(ctx context.Context, data []byte, opts LoadOptions) (*Book, error) {
	return NewLoader(opts).Load(ctx, data)
}

// LoadFile reads an EPUB from disk and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read EPUB: %w", err)
	}
	return l.Load(ctx, data)
}

// Load opens archive bytes and loads the book.
func (l *Loader) Load(ctx context.Context, data []byte) (*Book, error) {
	archive, err := epub.OpenBytes(data)
	if err != nil {
		return nil, &LoadError{
			Kind:    KindMalformedArchive,
			Message: "not a ZIP archive",
			Err:     fmt.Errorf("%w: %w", epub.ErrMalformedArchive, err),
		}
	}
	return l.LoadArchive(ctx, archive)
}

// LoadArchive runs the pipeline over an already opened archive. Only a
// missing container descriptor or package document fails the load; every
// other problem degrades the result.
func (l *Loader) LoadArchive(ctx context.Context, archive epub.Archive) (*Book, error) {
	loc, err := epub.LocatePackage(archive)
	if err != nil {
		return nil, &LoadError{Kind: KindMalformedArchive, Message: "cannot locate package document", Err: err}
	}

	opfText, err := archive.ReadText(loc.Path)
	if err != nil {
		return nil, &LoadError{
			Kind:    KindMalformedPackage,
			Message: fmt.Sprintf("cannot read package document %s", loc.Path),
			Err:     fmt.Errorf("%w: %w", epub.ErrMalformedPackage, err),
		}
	}

	pkg := epub.ParsePackage(opfText, loc.Dir)
	for _, idref := range epub.DanglingRefs(pkg) {
		l.logger.Warn("spine item not found in manifest, skipping", "idref", idref)
	}

	metadata := l.buildMetadata(pkg, archive)

	if l.Options.SkipNonLinear {
		pkg = pkg.LinearOnly()
	}
	chapters, err := l.transduceChapters(ctx, archive, epub.ReadingOrder(pkg))
	if err != nil {
		return nil, err
	}

	return &Book{Metadata: metadata, Chapters: chapters}, nil
}

func (l *Loader) buildMetadata(pkg *epub.Package, archive epub.Archive) BookMetadata {
	md := pkg.Metadata
	out := BookMetadata{
		Title:       md.Title,
		Author:      md.Author,
		Creators:    md.Creators,
		Language:    md.Language,
		Identifier:  md.Identifier,
		Publisher:   md.Publisher,
		Date:        md.Date,
		Description: md.Description,
		Subjects:    md.Subjects,
	}

	cover := epub.ResolveCover(pkg, archive)
	if cover == nil {
		l.logger.Debug("no cover image found")
		return out
	}
	l.logger.Debug("cover resolved", "path", cover.Path, "method", cover.DetectionMethod)

	optimized, warning, err := l.covers.Optimize(cover)
	switch {
	case err != nil:
		l.logger.Warn("failed to optimize cover, keeping original", "path", cover.Path, "error", err)
	case warning != "":
		l.logger.Warn("cover kept as-is", "path", cover.Path, "reason", warning)
	default:
		cover = optimized
	}
	out.Cover = cover
	return out
}

// transduceChapters converts chapters concurrently. Results are stored by
// spine position, so completion order does not affect reading order.
func (l *Loader) transduceChapters(ctx context.Context, archive epub.Archive, paths []string) ([]Chapter, error) {
	results := make([]*Chapter, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.Options.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			markup, err := archive.ReadText(path)
			if err != nil {
				l.logger.Warn("failed to read chapter, skipping", "path", path, "error", err)
				return nil
			}

			ch := Transduce(markup)
			if strings.TrimSpace(ch.Content) == "" {
				l.logger.Debug("chapter has no text, skipping", "path", path)
				return nil
			}
			results[i] = &ch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load canceled: %w", err)
	}

	chapters := make([]Chapter, 0, len(results))
	for _, ch := range results {
		if ch != nil {
			chapters = append(chapters, *ch)
		}
	}
	return chapters, nil
}
