// Command featloc annotates bulk_extractor feature files with the names of
// the files that own each feature's byte offset, using a fiwalk DFXML map
// of the source image.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/featloc/featloc"
	"github.com/featloc/featloc/report"
)

type options struct {
	all           bool
	featureFiles  string
	xmlFile       string
	imageFilename string
	list          bool
	path          string
	save          string
	load          string
	terse         bool
	mactimes      bool
	verbose       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "featloc <bulk_extractor_report> <outdir>",
		Short: "Identify the files that own bulk_extractor features",
		Long: "featloc reads a bulk_extractor report (directory or ZIP) and a fiwalk\n" +
			"DFXML byte-run map, and writes annotated copies of the selected feature\n" +
			"files into <outdir>, tagging each feature with its owning file.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "process all feature files")
	cmd.Flags().StringVar(&opts.featureFiles, "featurefiles", "", "comma-separated feature files to process")
	cmd.Flags().StringVar(&opts.xmlFile, "xmlfile", "", "fiwalk DFXML file describing the image")
	cmd.Flags().StringVar(&opts.imageFilename, "image-filename", "", "override the source image path recorded in report.xml")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list feature files in the report and exit")
	cmd.Flags().StringVar(&opts.path, "path", "", "locate a single path token and exit")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the byte-run index to a snapshot file")
	cmd.Flags().StringVar(&opts.load, "load", "", "load the byte-run index from a snapshot file")
	cmd.Flags().BoolVarP(&opts.terse, "terse", "t", false, "omit the context column from output")
	cmd.Flags().BoolVar(&opts.mactimes, "mactimes", false, "include timestamps in annotated output")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rep, err := report.Open(args[0])
	if err != nil {
		return err
	}
	defer rep.Close()

	if opts.list {
		names, err := rep.FeatureFiles()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	if image := resolveImageFilename(rep, opts.imageFilename); image != "" {
		logger.Info("source image", "image", image)
	}

	loc, err := buildLocator(logger, opts)
	if err != nil {
		return err
	}
	if opts.save != "" {
		if err := loc.SaveSnapshot(opts.save); err != nil {
			return err
		}
		logger.Info("snapshot saved", "path", opts.save)
	}

	if opts.path != "" {
		return locatePath(cmd, loc, opts.path)
	}

	if len(args) < 2 {
		return fmt.Errorf("an output directory is required to annotate feature files")
	}
	return annotateReport(cmd, logger, loc, rep, args[1], opts)
}

// resolveImageFilename returns the override when given, falling back to the
// path recorded in report.xml. A report without a recorded image is not an
// error; the path is informational since the byte-run map comes from DFXML.
func resolveImageFilename(rep *report.Report, override string) string {
	if override != "" {
		return override
	}
	name, err := rep.ImageFilename()
	if err != nil {
		return ""
	}
	return name
}

// buildLocator restores the index from a snapshot or ingests a DFXML map.
func buildLocator(logger *slog.Logger, opts options) (*featloc.Locator, error) {
	locOpts := []featloc.Option{
		featloc.WithLogger(logger),
		featloc.WithTimestamps(opts.mactimes),
	}

	if opts.load != "" {
		loc, err := featloc.LoadSnapshot(opts.load, locOpts...)
		if err != nil {
			return nil, err
		}
		logger.Info("snapshot loaded", "path", opts.load, "extents", loc.Len())
		return loc, nil
	}

	if opts.xmlFile == "" {
		return nil, fmt.Errorf("provide --xmlfile (fiwalk DFXML) or --load (snapshot); featloc does not walk images itself")
	}
	f, err := os.Open(opts.xmlFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger.Info("reading file map", "xmlfile", opts.xmlFile)
	loc := featloc.New(locOpts...)
	if err := loc.IngestDFXML(f); err != nil {
		return nil, err
	}
	logger.Info("file map ready", "files", loc.FileCount(), "extents", loc.Len())
	return loc, nil
}

func locatePath(cmd *cobra.Command, loc *featloc.Locator, token string) error {
	e, ok, err := loc.ResolvePath([]byte(token))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "NOT FOUND")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Start:     %d\nEnd:       %d\nFile Name: %s\nFile MD5:  %s\n",
		e.Start, e.End, e.Info.Name, e.Info.Digest)
	return nil
}

func annotateReport(cmd *cobra.Command, logger *slog.Logger, loc *featloc.Locator, rep *report.Report, outdir string, opts options) error {
	var names []string
	switch {
	case opts.featureFiles != "":
		names = strings.Split(opts.featureFiles, ",")
	case opts.all:
		all, err := rep.FeatureFiles()
		if err != nil {
			return err
		}
		// tcp.txt maps packet payloads, not file content.
		names = slices.DeleteFunc(all, func(name string) bool { return name == "tcp.txt" })
	default:
		return fmt.Errorf("request specific feature files with --featurefiles or all of them with --all")
	}

	if err := os.MkdirAll(outdir, 0o750); err != nil {
		return err
	}

	jobs := make([]featloc.AnnotateJob, 0, len(names))
	var inputs []io.ReadCloser
	var outputs []*os.File
	defer func() {
		for _, in := range inputs {
			in.Close()
		}
		for _, out := range outputs {
			out.Close()
		}
	}()

	annOpts := []featloc.AnnotateOption{
		featloc.AnnotateTerse(opts.terse),
		featloc.AnnotateCommandLine(strings.Join(os.Args, " ")),
	}
	for _, name := range names {
		outPath := filepath.Join(outdir, "annotated_"+name)
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists", outPath)
		}

		in, err := rep.Open(name)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)

		out, err := os.Create(outPath)
		if err != nil {
			return err
		}
		outputs = append(outputs, out)

		jobs = append(jobs, featloc.AnnotateJob{Name: name, In: in, Out: out, Options: annOpts})
	}

	perJob, total, err := loc.AnnotateAll(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	// A failed close can lose buffered annotated output, so it is an error,
	// not cleanup.
	for _, out := range outputs {
		if err := out.Close(); err != nil {
			return fmt.Errorf("close %s: %w", out.Name(), err)
		}
	}
	outputs = nil
	for _, name := range names {
		stats := perJob[name]
		logger.Info("feature file annotated", "file", name,
			"features", stats.Features, "located", stats.Located,
			"unresolved", stats.Unresolved, "elapsed", stats.Elapsed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Total features: %d\nTotal located:  %d\n", total.Features, total.Located)
	return nil
}
