package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/streamoverlay/server/internal/apiclient"
	"github.com/streamoverlay/server/internal/domain"
	"github.com/streamoverlay/server/internal/panel"
	"github.com/streamoverlay/server/internal/render"
)

// session is the panel wired to the configured server.
type session struct {
	client *apiclient.Client
	store  *panel.Store
	poller *panel.Poller
	editor *panel.Editor
	form   *panel.AddForm
}

func newSession(interval time.Duration) *session {
	client := apiclient.New(apiURL())
	store := panel.NewStore()
	poller := panel.NewPoller(client, store, interval, logger)

	return &session{
		client: client,
		store:  store,
		poller: poller,
		editor: panel.NewEditor(client, poller, store),
		form:   panel.NewAddForm(client, poller, store),
	}
}

func printOverlays(w io.Writer, overlays []domain.Overlay) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tZ\tPOSITION\tSIZE\tOPACITY\tROTATION\tCONTENT")
	for _, o := range overlays {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d,%d\t%dx%d\t%g\t%g\t%s\n",
			o.ID, o.Type, o.ZIndex,
			o.Position.X, o.Position.Y,
			o.Size.Width, o.Size.Height,
			o.Opacity, o.Rotation, o.Content,
		)
	}

	return tw.Flush()
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List overlays ordered by zIndex",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(0)
		if err := s.poller.Refresh(cmd.Context()); err != nil {
			return err
		}

		return printOverlays(cmd.OutOrStdout(), s.store.Snapshot().Overlays)
	},
}

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a text overlay",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(0)
		if err := s.form.SubmitText(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}

		return printOverlays(cmd.OutOrStdout(), s.store.Snapshot().Overlays)
	},
}

var setFlags struct {
	width    int
	height   int
	opacity  float64
	rotation int
}

var setCmd = &cobra.Command{
	Use:   "set [overlay id]",
	Short: "Change the size, opacity or rotation of an overlay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()
		if !flags.Changed("width") && !flags.Changed("height") && !flags.Changed("opacity") && !flags.Changed("rotation") {
			return fmt.Errorf("nothing to set: use --width, --height, --opacity or --rotation")
		}

		s := newSession(0)
		if err := s.poller.Refresh(ctx); err != nil {
			return err
		}

		find := func() (domain.Overlay, error) {
			o, ok := s.store.Find(args[0])
			if !ok {
				return domain.Overlay{}, fmt.Errorf("overlay %s: %w", args[0], apiclient.ErrNotFound)
			}
			return o, nil
		}

		if flags.Changed("width") {
			o, err := find()
			if err != nil {
				return err
			}
			if err := s.editor.SetWidth(ctx, o, setFlags.width); err != nil {
				return err
			}
		}
		if flags.Changed("height") {
			o, err := find()
			if err != nil {
				return err
			}
			if err := s.editor.SetHeight(ctx, o, setFlags.height); err != nil {
				return err
			}
		}
		if flags.Changed("opacity") {
			if err := s.editor.SetOpacity(ctx, args[0], setFlags.opacity); err != nil {
				return err
			}
		}
		if flags.Changed("rotation") {
			if err := s.editor.SetRotation(ctx, args[0], setFlags.rotation); err != nil {
				return err
			}
		}

		return printOverlays(cmd.OutOrStdout(), s.store.Snapshot().Overlays)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [overlay id]",
	Short: "Delete an overlay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(0)
		if err := s.editor.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		return printOverlays(cmd.OutOrStdout(), s.store.Snapshot().Overlays)
	},
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the overlay list and print the rendered layers on every change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(watchInterval)
		out := cmd.OutOrStdout()

		var lastSeq uint64
		cancel := s.store.Subscribe(func(state panel.State) {
			if state.Err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", state.Err)
				return
			}
			if state.Seq == lastSeq {
				return
			}
			lastSeq = state.Seq

			layers, err := render.Layers(state.Overlays)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return
			}
			fmt.Fprintf(out, "--- %s (%d overlays)\n", state.FetchedAt.Format(time.TimeOnly), len(layers))
			for _, l := range layers {
				label := l.Text
				if !l.IsText() {
					label = l.ImageURL
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", l.ID, label, l.Style)
			}
		})
		defer cancel()

		return s.poller.Run(cmd.Context())
	},
}

func init() {
	setCmd.Flags().IntVar(&setFlags.width, "width", 0, "width in pixels (50-800)")
	setCmd.Flags().IntVar(&setFlags.height, "height", 0, "height in pixels (30-400)")
	setCmd.Flags().Float64Var(&setFlags.opacity, "opacity", 1, "opacity (0-1, step 0.1)")
	setCmd.Flags().IntVar(&setFlags.rotation, "rotation", 0, "rotation in degrees (-180-180)")

	watchCmd.Flags().DurationVar(&watchInterval, "interval", panel.DefaultPollInterval, "poll interval")
}
