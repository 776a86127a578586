package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full sync pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, cleanup, err := buildSyncer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		return s.Run(ctx)
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
