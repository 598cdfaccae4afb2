package main

import (
	"context"
	"os"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/internal/cli"
	"github.com/aretw0/scorm/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP run-time server",
	Long: `Starts the SCORM run-time as an HTTP JSON API. Content frames launch sessions,
call the API methods and may subscribe to data model changes over SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.Config.Server.Addr = addr
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(os.Stdout, scorm.Version)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		if err := cli.Serve(ctx, rt); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			rt.Logger.Info("HTTP server stopped gracefully", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
