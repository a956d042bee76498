package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/bootstrap"
)

var normalizeTrace bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text...]",
	Short: "Normalize a question",
	Long:  "Normalize a question the way the classifier sees it. Reads stdin when no text is given.",
	RunE:  runNormalize,
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeTrace, "trace", false, "print the output of every step as JSON")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	text, err := readTextArg(cmd, args)
	if err != nil {
		return err
	}
	normalizer, err := bootstrap.NewNormalizer(cfg)
	if err != nil {
		return err
	}
	if normalizeTrace {
		return writeJSON(cmd.OutOrStdout(), normalizer.Trace(text))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), normalizer.Normalize(text))
	return err
}
