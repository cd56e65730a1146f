package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/ingest"
	"github.com/KaramelBytes/tabloom/internal/server"
)

var (
	srvAddr   string
	srvNoAI   bool
	srvUpload string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/analyze over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") && srvAddr != "" {
			c.ServerAddress = srvAddr
		}
		if cmd.Flags().Changed("upload-folder") && srvUpload != "" {
			c.UploadFolder = srvUpload
		}

		a, closeFn := buildAnalyzer(cmd.Context(), c, srvNoAI, ingest.Options{})
		defer closeFn()

		s, err := server.New(c, a, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s (uploads in %s)\n", c.ServerAddress, c.UploadFolder)
		return s.ListenAndServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides config server_address)")
	serveCmd.Flags().StringVar(&srvUpload, "upload-folder", "", "temporary upload folder (overrides config upload_folder)")
	serveCmd.Flags().BoolVar(&srvNoAI, "no-ai", false, "skip the AI insight call")
}
