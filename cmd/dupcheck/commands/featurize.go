package commands

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/domain/features"
)

var (
	featurizeIn         string
	featurizeOut        string
	featurizeWorkers    int
	featurizeNormalized bool
)

var featurizeCmd = &cobra.Command{
	Use:   "featurize",
	Short: "Compute features for every pair in a CSV file",
	Long: `Reads a CSV with a header row containing question1 and question2 columns
and writes one feature row per pair. id and is_duplicate columns are carried through when present.`,
	RunE: runFeaturize,
}

func init() {
	featurizeCmd.Flags().StringVarP(&featurizeIn, "in", "i", "-", "input CSV path, - for stdin")
	featurizeCmd.Flags().StringVarP(&featurizeOut, "out", "o", "-", "output CSV path, - for stdout")
	featurizeCmd.Flags().IntVarP(&featurizeWorkers, "workers", "w", runtime.NumCPU(), "concurrent workers")
	featurizeCmd.Flags().BoolVar(&featurizeNormalized, "with-normalized", false, "also write the normalized questions")
	rootCmd.AddCommand(featurizeCmd)
}

func runFeaturize(cmd *cobra.Command, args []string) error {
	normalizer, err := bootstrap.NewNormalizer(cfg)
	if err != nil {
		return err
	}
	extractor, err := bootstrap.NewExtractor(cfg)
	if err != nil {
		return err
	}
	in, err := openInput(featurizeIn)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := openOutput(featurizeOut)
	if err != nil {
		return err
	}
	defer out.Close()

	start := time.Now()
	n, err := featurizeCSV(cmd.Context(), in, out, featurizer{
		normalizer:     normalizer,
		extractor:      extractor,
		workers:        featurizeWorkers,
		withNormalized: featurizeNormalized,
	})
	if err != nil {
		return err
	}
	log.Info("featurize completed", "rows", n, "elapsed", time.Since(start).String())
	return nil
}

type featurizer struct {
	normalizer     dedup.Normalizer
	extractor      dedup.FeatureExtractor
	workers        int
	withNormalized bool
}

type csvLayout struct {
	q1, q2, id, label int
}

func resolveLayout(header []string) (csvLayout, error) {
	layout := csvLayout{q1: -1, q2: -1, id: -1, label: -1}
	for i, name := range header {
		switch name {
		case "question1":
			layout.q1 = i
		case "question2":
			layout.q2 = i
		case "id":
			layout.id = i
		case "is_duplicate":
			layout.label = i
		}
	}
	if layout.q1 < 0 || layout.q2 < 0 {
		return layout, errors.New("csv header must contain question1 and question2")
	}
	return layout, nil
}

func (l csvLayout) header(withNormalized bool) []string {
	var out []string
	if l.id >= 0 {
		out = append(out, "id")
	}
	if withNormalized {
		out = append(out, "normalized1", "normalized2")
	}
	out = append(out, features.Names[:]...)
	if l.label >= 0 {
		out = append(out, "is_duplicate")
	}
	return out
}

// featurizeCSV processes rows concurrently and writes them back in input order.
func featurizeCSV(ctx context.Context, r io.Reader, w io.Writer, f featurizer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	layout, err := resolveLayout(header)
	if err != nil {
		return 0, err
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv rows: %w", err)
	}

	results := make([][]string, len(rows))
	workers := f.workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		i, row := i, row
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, err := f.row(layout, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			results[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(layout.header(f.withNormalized)); err != nil {
		return 0, err
	}
	if err := writer.WriteAll(results); err != nil {
		return 0, err
	}
	return len(results), writer.Error()
}

func (f featurizer) row(layout csvLayout, row []string) ([]string, error) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	if layout.q2 >= len(row) && layout.q1 >= len(row) {
		return nil, errors.New("row has no question columns")
	}
	n1 := f.normalizer.Normalize(field(layout.q1))
	n2 := f.normalizer.Normalize(field(layout.q2))
	v := f.extractor.Extract(n1, n2)

	out := make([]string, 0, features.Width+4)
	if layout.id >= 0 {
		out = append(out, field(layout.id))
	}
	if f.withNormalized {
		out = append(out, n1, n2)
	}
	for _, value := range v.Slice() {
		out = append(out, strconv.FormatFloat(value, 'g', -1, 64))
	}
	if layout.label >= 0 {
		out = append(out, field(layout.label))
	}
	return out, nil
}
