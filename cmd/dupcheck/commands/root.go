package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/dupcheck/internal/infra/config"
	"github.com/yanqian/dupcheck/pkg/logger"
)

var (
	cfgFile string
	verbose bool

	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dupcheck",
	Short: "Duplicate question detection toolkit",
	Long: `dupcheck normalizes questions, extracts pairwise similarity features and
scores question pairs with a trained duplicate classifier.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFrom(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		level := "warn"
		if verbose {
			level = "debug"
		}
		log = logger.NewWithWriter(os.Stderr, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults to $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
