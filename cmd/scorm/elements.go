package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/scorm/internal/presentation/tui"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/spf13/cobra"
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the data model elements",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := cmi.DefaultRegistry().Describe()
		out := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		rendered, err := tui.NewRenderer()(tui.ElementsMarkdown(infos))
		if err != nil {
			return fmt.Errorf("failed to render elements: %w", err)
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(elementsCmd)
	elementsCmd.Flags().Bool("json", false, "Print the listing as JSON")
}
