package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the tracking state",
	Long: `Print the tracking state as JSON: the access logs already merged and
the last access time of every tracked application, in epoch milliseconds.`,
	Args: cobra.NoArgs,
	RunE: printState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func printState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.State.Root == "" {
		return errors.New("retrificator root directory not specified, use --retrificator-root (-r)")
	}

	st, err := state.NewStore(cfg.State.FilePath(), fs.New()).Load()
	if err != nil {
		return err
	}
	return state.Encode(cmd.OutOrStdout(), st)
}
