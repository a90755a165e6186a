package cli

import (
	"context"
	"fmt"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/catalog"
	"github.com/echoverse/echoverse/internal/domain"
)

var (
	playFor    time.Duration
	playRepeat string
)

var playCmd = &cobra.Command{
	Use:   "play <track-id|query>",
	Short: "Play a catalog track and watch the meter",
	Long: `Queues the catalog starting at the given track and prints playback
and accrual updates until interrupted.

Examples:
  echoverse play song1              # Play by catalog id
  echoverse play "midnight"         # Play the first search match
  echoverse play song3 --for 30s    # Stop after 30 seconds`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().DurationVar(&playFor, "for", 0, "stop after this long (0 plays until interrupted)")
	playCmd.Flags().StringVar(&playRepeat, "repeat", "", "repeat mode: all, off or one")
	rootCmd.AddCommand(playCmd)
}

// findTrack looks the argument up as a catalog id, then as a search query.
func findTrack(query string) (domain.Track, error) {
	if track, ok := catalog.Find(query); ok {
		return track, nil
	}
	if matches := catalog.Search(query); len(matches) > 0 {
		return matches[0], nil
	}
	return domain.Track{}, fmt.Errorf("no track matches %q: %w", query, domain.ErrNotFound)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if playFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playFor)
		defer cancel()
	}

	track, err := findTrack(strings.Join(args, " "))
	if err != nil {
		return err
	}

	application, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	playback := application.Services().Playback
	if playRepeat != "" {
		mode, err := domain.ParseRepeatMode(playRepeat)
		if err != nil {
			return err
		}
		playback.SetRepeat(mode)
	}

	lines := make(chan string, 64)
	idle := make(chan struct{}, 1)
	bus := application.EventBus()
	subID := bus.SubscribeAll(func(e domain.Event) {
		var line string
		switch ev := e.(type) {
		case domain.TrackStartedEvent:
			line = fmt.Sprintf("▶ %s - %s", ev.Track.Artist, ev.Track.Title)
		case domain.AccrualTickEvent:
			line = fmt.Sprintf("  %s/s  total %s", ev.Rate, ev.Total)
		case domain.TrackErrorEvent:
			line = fmt.Sprintf("✖ %s", ev.Message)
		case domain.NotificationEvent:
			if Verbose() {
				line = fmt.Sprintf("[%s] %s", ev.Kind, ev.Message)
			}
		case domain.PlayerIdleEvent:
			select {
			case idle <- struct{}{}:
			default:
			}
		}
		if line == "" {
			return
		}
		select {
		case lines <- line:
		default:
		}
	})
	defer bus.Unsubscribe(subID)

	library := catalog.Library()
	start := slices.IndexFunc(library, func(t domain.Track) bool { return t.ID == track.ID })
	if err := playback.LoadQueue(library, start); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case line := <-lines:
			fmt.Fprintln(out, line)
		case <-idle:
			return printAccrual(cmd, playback.Accrual())
		case <-ctx.Done():
			return printAccrual(cmd, playback.Accrual())
		}
	}
}

func printAccrual(cmd *cobra.Command, state domain.AccrualState) error {
	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, state)
	}
	fmt.Fprintf(out, "Session total: %s\n", state.Total)
	return nil
}
