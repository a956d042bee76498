package commands

import (
	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/domain/features"
)

var (
	featuresQ1  string
	featuresQ2  string
	featuresRaw bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print the feature vector of a question pair",
	RunE:  runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresQ1, "q1", "", "first question")
	featuresCmd.Flags().StringVar(&featuresQ2, "q2", "", "second question")
	featuresCmd.Flags().BoolVar(&featuresRaw, "raw", false, "treat the questions as already normalized")
	rootCmd.AddCommand(featuresCmd)
}

type namedFeature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func runFeatures(cmd *cobra.Command, args []string) error {
	extractor, err := bootstrap.NewExtractor(cfg)
	if err != nil {
		return err
	}
	q1, q2 := featuresQ1, featuresQ2
	if !featuresRaw {
		normalizer, err := bootstrap.NewNormalizer(cfg)
		if err != nil {
			return err
		}
		q1, q2 = normalizer.Normalize(q1), normalizer.Normalize(q2)
	}
	v := extractor.Extract(q1, q2)
	out := make([]namedFeature, 0, features.Width)
	for i, value := range v.Slice() {
		out = append(out, namedFeature{Name: features.Names[i], Value: value})
	}
	return writeJSON(cmd.OutOrStdout(), out)
}
