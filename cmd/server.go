package cmd

import (
	"beatstore/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the beatstore HTTP server",
	Long:  `Starts the marketplace HTTP server: catalog, uploads, purchases and user sessions.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
