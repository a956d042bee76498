package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/infra/historyrepo"
	"github.com/yanqian/dupcheck/internal/infra/verdictcache"
)

var (
	predictQ1    string
	predictQ2    string
	predictModel string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a question pair with the trained model",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictQ1, "q1", "", "first question")
	predictCmd.Flags().StringVar(&predictQ2, "q2", "", "second question")
	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "", "model artifact path (overrides config)")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if predictModel != "" {
		cfg.Model.Path = predictModel
		cfg.Model.ObjectStore.Enabled = false
	}
	normalizer, err := bootstrap.NewNormalizer(cfg)
	if err != nil {
		return err
	}
	extractor, err := bootstrap.NewExtractor(cfg)
	if err != nil {
		return err
	}
	m, err := bootstrap.LoadModel(ctx, cfg, log)
	if err != nil {
		return err
	}
	svc := dedup.NewService(
		bootstrap.DedupConfig(cfg, m),
		normalizer,
		extractor,
		m,
		verdictcache.NewMemoryStore(),
		historyrepo.NewMemoryRepository(1),
		log,
	)
	resp, err := svc.Predict(ctx, dedup.Request{Question1: predictQ1, Question2: predictQ2})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}
