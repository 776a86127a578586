// Package cli implements the photosync CLI commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ScottStevenWhite/photosync/internal/config"
	"github.com/ScottStevenWhite/photosync/internal/localfs"
	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
	"github.com/ScottStevenWhite/photosync/internal/syncer"
)

var (
	cfgFile string
	cfg     *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "photosync",
	Short: "Keep a local mirror of your remote photo library",
	Long: `photosync mirrors favorites, recent photos, and selected albums from a
remote photo library into a local folder, pushes new local files upward,
and prunes whatever no longer qualifies for a local copy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c

		return logging.Init(logging.Config{
			Level:  c.Log.Level,
			Format: c.Log.Format,
			File:   c.Log.File,
		})
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default: ./photosync.yaml or ~/.config/photosync/photosync.yaml)")
}

// buildSyncer wires the remote client, local store, and state store into
// a ready-to-run syncer. The returned cleanup closes the state backend.
func buildSyncer(ctx context.Context) (*syncer.Syncer, func(), error) {
	files, err := localfs.New(cfg.LibraryDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open library: %w", err)
	}

	store, err := state.Open(cfg.State.Backend, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}
	cleanup := func() {
		if c, ok := store.(io.Closer); ok {
			c.Close()
		}
		logging.Sync()
	}

	ts, err := photos.TokenSource(ctx, cfg.DataDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	lib := photos.New(photos.Config{
		BaseURL:     cfg.Remote.BaseURL,
		UploadURL:   cfg.Remote.UploadURL,
		Timeout:     cfg.Remote.Timeout,
		TokenSource: ts,
	})

	s := syncer.New(lib, files, store, syncer.Config{
		WindowDays: cfg.WindowDays,
		Albums:     cfg.Albums,
	})
	return s, cleanup, nil
}
