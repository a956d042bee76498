package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/infra/model"
)

var modelFile string

var errNoObjectStore = errors.New("model.objectStore is not configured")

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and publish model artifacts",
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Validate an artifact and print its summary",
	RunE:  runModelInspect,
}

var modelPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload an artifact to the configured object store",
	RunE:  runModelPush,
}

func init() {
	modelCmd.PersistentFlags().StringVarP(&modelFile, "file", "f", "", "artifact path (defaults to model.path)")
	modelCmd.AddCommand(modelInspectCmd, modelPushCmd)
	rootCmd.AddCommand(modelCmd)
}

func artifactPath() string {
	if modelFile != "" {
		return modelFile
	}
	return cfg.Model.Path
}

type modelSummary struct {
	Version        string  `json:"version"`
	VocabularySize int     `json:"vocabularySize"`
	Threshold      float64 `json:"threshold"`
	InputWidth     int     `json:"inputWidth"`
}

func runModelInspect(cmd *cobra.Command, args []string) error {
	m, err := model.Load(cmd.Context(), model.FileSource{Path: artifactPath()})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), modelSummary{
		Version:        m.Version(),
		VocabularySize: m.VocabularySize(),
		Threshold:      m.Threshold(),
		InputWidth:     m.InputWidth(),
	})
}

func runModelPush(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.Model.ObjectStore.Bucket == "" || cfg.Model.ObjectStore.Key == "" {
		return errNoObjectStore
	}
	data, err := os.ReadFile(artifactPath())
	if err != nil {
		return err
	}
	pushCfg := *cfg
	pushCfg.Model.ObjectStore.Enabled = true
	src, err := bootstrap.ModelSource(&pushCfg, log)
	if err != nil {
		return err
	}
	store, ok := src.(*model.ObjectSource)
	if !ok {
		return errNoObjectStore
	}
	if err := store.Publish(ctx, data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "published", store.String())
	return err
}
