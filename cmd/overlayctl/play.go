package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/streamoverlay/server/internal/player"
)

var playFlags struct {
	native   bool
	command  string
	prefetch int
	probe    bool
}

var playCmd = &cobra.Command{
	Use:   "play [manifest url]",
	Short: "Play the HLS stream",
	Long: `Play the HLS stream served by the overlay server.

Without --native the media segments are written to stdout in order, e.g.
  overlayctl play | ffplay -
With --native the manifest is handed to an external player (ffplay by default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		manifestURL := apiURL() + "/streams/index.m3u8"
		if len(args) == 1 {
			manifestURL = args[0]
		}

		p := player.New(
			player.WithLogger(logger),
			player.WithSoftwareDecoder(!playFlags.native),
			player.WithPrefetch(playFlags.prefetch),
			player.WithHooks(player.Hooks{
				ManifestParsed: func(pb player.Playback) {
					logger.Info("manifest parsed", "url", pb.StreamURL, "live", pb.Live, "variants", len(pb.Variants))
				},
				VariantSelected: func(v player.Variant) {
					logger.Info("variant selected", "uri", v.URI, "bandwidth", v.Bandwidth)
				},
			}),
		)

		if playFlags.probe {
			pb, err := p.Probe(ctx, manifestURL)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pb)
		}

		var target player.Target = stdoutTarget{cmd.OutOrStdout()}
		if playFlags.native {
			target = player.NewExecTarget(logger, playFlags.command)
		}

		err := p.Play(ctx, manifestURL, target)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if errors.Is(err, player.ErrUnsupported) {
			return fmt.Errorf("no player for %s: %w", player.MimeTypeHLS, err)
		}

		return err
	},
}

// stdoutTarget hides any other methods of the writer from the player.
type stdoutTarget struct {
	io.Writer
}

func init() {
	playCmd.Flags().BoolVar(&playFlags.native, "native", false, "hand the manifest to an external player")
	playCmd.Flags().StringVar(&playFlags.command, "player", "", "external player command used with --native (default ffplay)")
	playCmd.Flags().IntVar(&playFlags.prefetch, "prefetch", 3, "segments downloaded ahead")
	playCmd.Flags().BoolVar(&playFlags.probe, "probe", false, "print the playback descriptor and exit")
}
