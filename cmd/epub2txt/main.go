package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/yuanying/epub2txt/internal/config"
	"github.com/yuanying/epub2txt/internal/converter"
	"github.com/yuanying/epub2txt/internal/output"
)

type cliOptions struct {
	InputPath  string
	OutputPath string // empty or "-" writes to stdout
	Format     string
	Chapter    int // 1-based; 0 selects every chapter
	Load       converter.LoadOptions
	Logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2txt <book.epub>",
		Short: "Extract plain text chapters from EPUB files",
		Long: `epub2txt reads an EPUB ebook and prints its chapters as clean plain text
in reading order: paragraphs separated by blank lines, list items as bullets.

Book metadata and the cover image are resolved across EPUB 2 and EPUB 3
conventions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (default: $XDG_CONFIG_HOME/epub2txt/config.toml)")
	flags.Int("workers", 0, "Concurrent chapter conversions (default: number of CPUs)")
	flags.Bool("skip-non-linear", false, "Leave out spine items marked linear=\"no\"")
	flags.Int("max-cover-width", 0, "Downscale covers wider than this many pixels (0 keeps the original)")
	flags.Int("cover-quality", 0, "JPEG quality for downscaled covers (1-100)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.BoolP("verbose", "v", false, "Shorthand for --log-level debug")

	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringP("format", "f", "", "Output format: text or json")
	cmd.Flags().IntP("chapter", "c", 0, "Print only this chapter (1-based)")

	cmd.AddCommand(newInfoCmd(), newCoverCmd())
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <book.epub>",
		Short: "Show book metadata and the chapter list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			book, err := converter.NewLoader(opts.Load).LoadFile(cmd.Context(), opts.InputPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output.RenderInfo(book))
			return err
		},
	}
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover <book.epub>",
		Short: "Extract the cover image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return runCover(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input name with the image extension)")
	return cmd
}

// readCLIOptions merges the config file with the flags the user set.
func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return cliOptions{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("skip-non-linear") {
		cfg.SkipNonLinear, _ = flags.GetBool("skip-non-linear")
	}
	if flags.Changed("max-cover-width") {
		cfg.MaxCoverWidth, _ = flags.GetInt("max-cover-width")
	}
	if flags.Changed("cover-quality") {
		cfg.CoverJPEGQuality, _ = flags.GetInt("cover-quality")
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(level))
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.Format = strings.ToLower(strings.TrimSpace(format))
	}
	if err := cfg.Validate(); err != nil {
		return cliOptions{}, err
	}

	opts := cliOptions{
		InputPath: args[0],
		Format:    cfg.Format,
	}
	if flags.Lookup("output") != nil {
		opts.OutputPath, _ = flags.GetString("output")
	}
	if flags.Lookup("chapter") != nil {
		opts.Chapter, _ = flags.GetInt("chapter")
		if opts.Chapter < 0 {
			return cliOptions{}, fmt.Errorf("--chapter must be >= 1, got %d", opts.Chapter)
		}
	}

	opts.Logger = newLogger(os.Stderr, parseLevel(cfg.LogLevel))
	opts.Load = converter.LoadOptions{
		Logger:           opts.Logger,
		Workers:          cfg.Workers,
		SkipNonLinear:    cfg.SkipNonLinear,
		MaxCoverWidth:    cfg.MaxCoverWidth,
		CoverJPEGQuality: cfg.CoverJPEGQuality,
	}
	return opts, nil
}

// newLogger logs human-readable text to a terminal and JSON otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runConvert(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	book, err := converter.NewLoader(opts.Load).LoadFile(ctx, opts.InputPath)
	if err != nil {
		return err
	}
	opts.Logger.Debug("book loaded", "title", book.Metadata.Title, "chapters", len(book.Chapters))

	if opts.Chapter > len(book.Chapters) {
		return fmt.Errorf("chapter %d out of range: book has %d chapters", opts.Chapter, len(book.Chapters))
	}

	w := stdout
	if opts.OutputPath != "" && opts.OutputPath != "-" {
		f, err := os.Create(opts.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch {
	case opts.Chapter > 0 && opts.Format == "json":
		single := *book
		single.Chapters = book.Chapters[opts.Chapter-1 : opts.Chapter]
		return output.WriteJSON(w, &single)
	case opts.Chapter > 0:
		return output.WriteChapter(w, book.Chapters[opts.Chapter-1])
	case opts.Format == "json":
		return output.WriteJSON(w, book)
	default:
		return output.WriteText(w, book)
	}
}

func runCover(ctx context.Context, opts cliOptions) error {
	book, err := converter.NewLoader(opts.Load).LoadFile(ctx, opts.InputPath)
	if err != nil {
		return err
	}
	cover := book.Metadata.Cover
	if cover == nil {
		return errors.New("no cover image found")
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		ext := ".png"
		if cover.MediaType == "image/jpeg" {
			ext = ".jpg"
		}
		outputPath = strings.TrimSuffix(opts.InputPath, filepath.Ext(opts.InputPath)) + ext
	}
	if err := os.WriteFile(outputPath, cover.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	opts.Logger.Info("cover written", "path", outputPath, "source", cover.Path, "method", cover.DetectionMethod)
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var loadErr *converter.LoadError
		if errors.As(err, &loadErr) {
			fmt.Fprintf(os.Stderr, "epub2txt: invalid EPUB (%s): %s\n", loadErr.Kind, loadErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "epub2txt: %v\n", err)
		}
		os.Exit(1)
	}
}
