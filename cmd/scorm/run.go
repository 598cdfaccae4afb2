package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scorm/internal/cli"
	"github.com/aretw0/scorm/internal/presentation/tui"
	"github.com/aretw0/scorm/pkg/script"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Play a conformance script against the run-time",
	Long: `Plays a YAML script of API calls against a fresh session, prints the transcript
and exits non-zero when any expectation fails. The attempt is persisted through
the configured store, so it can be inspected afterwards with 'scorm session inspect'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Load(args[0])
		if err != nil {
			return err
		}
		registration, _ := cmd.Flags().GetString("registration")

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		transcript, err := cli.RunScript(cmd.Context(), rt, s, registration)
		if err != nil {
			return err
		}
		tui.PrintTranscript(os.Stdout, transcript, tui.IsTerminal(os.Stdout))
		if err := transcript.Err(); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("registration", "", "Attempt key (defaults to <learner>-<script name>)")
}
