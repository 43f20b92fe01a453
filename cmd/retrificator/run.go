package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single retrification pass",
	Long: `Run a single retrification pass and exit.

The pass removes archived packages of applications that were redeployed,
merges new access logs into the state, archives applications exceeding
the access or deploy age and saves the state.

Examples:
  # Archive apps unused for a week, ignore deploy age
  retrificator run -t /opt/tomcat -r /var/lib/retrificator -a 168h -d 0

  # Show decisions without changing anything
  retrificator run -t /opt/tomcat -r /var/lib/retrificator --dry-run -v`,
	Args: cobra.NoArgs,
	RunE: runPass,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPass(cmd *cobra.Command, args []string) error {
	cfg, err := loadValidConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := policy(cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg, log)
	rep, err := a.engine.Run(cmd.Context(), p)
	a.writeTextfile()
	if err != nil {
		return err
	}

	verb := "archived"
	if rep.DryRun {
		verb = "would archive"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d webapps", verb, len(rep.Archived), rep.Webapps)
	if len(rep.Failed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d failed", len(rep.Failed))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
