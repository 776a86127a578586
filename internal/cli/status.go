package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ScottStevenWhite/photosync/internal/state"
	"github.com/ScottStevenWhite/photosync/internal/syncer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tracked record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := state.Open(cfg.State.Backend, cfg.DataDir)
		if err != nil {
			return err
		}
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}

		m, err := store.Load()
		if err != nil {
			return err
		}

		var starred, inWindow, inAlbums, stale int
		folders := map[string]int{}
		for _, rec := range m {
			if rec.IsStarred {
				starred++
			}
			if rec.InWindow {
				inWindow++
			}
			if len(rec.Albums) > 0 {
				inAlbums++
			}
			if !rec.Retained() {
				stale++
			}
			folders[syncer.Resolve(rec)]++
		}

		fmt.Printf("records:     %d\n", len(m))
		fmt.Printf("starred:     %d\n", starred)
		fmt.Printf("in window:   %d\n", inWindow)
		fmt.Printf("in albums:   %d\n", inAlbums)
		fmt.Printf("prunable:    %d\n", stale)
		fmt.Println("\ncanonical folders:")
		for folder, n := range folders {
			if folder == "" {
				folder = "(root)"
			}
			fmt.Printf("  %-30s %d\n", folder, n)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
