// Package featloc locates forensic features within a filesystem image.
//
// A feature extractor (such as bulk_extractor) reports artifacts like email
// addresses and credit-card numbers at byte offsets in a disk image. A
// filesystem walker (such as fiwalk) reports which byte ranges belong to
// which files. featloc joins the two: it builds a byte-run index from the
// walker's file records and annotates each feature with the file that owns
// its offset.
//
// # Quick start
//
// Build an index from fiwalk DFXML and annotate a feature file:
//
//	loc := featloc.New(featloc.WithLogger(logger))
//	f, err := os.Open("fiwalk.xml")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	if err := loc.IngestDFXML(f); err != nil {
//	    return err
//	}
//	stats, err := loc.Annotate(ctx, in, out)
//
// The index is built once, is read-only afterward, and can be queried by any
// number of concurrent annotation pipelines. Use [Locator.SaveSnapshot] and
// [LoadSnapshot] to skip re-ingestion on repeated runs against the same
// image.
//
// Offsets in feature files may be plain integers ("1048576"), carved-region
// offsets ("1048576-1048600"), or XOR-transform offsets ("1048576-XOR-16",
// resolving to origin plus in-region offset). Allocated files win ties over
// unallocated ones: an offset claimed by both a live file and stale deleted
// metadata is attributed to the live file.
//
// The [dfxml] and [report] subpackages adapt fiwalk DFXML streams and
// bulk_extractor report containers to this package's types.
package featloc
