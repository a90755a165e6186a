package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/app"
	"github.com/echoverse/echoverse/internal/domain"
)

var (
	playlistUser        string
	playlistDescription string
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"pl"},
	Short:   "Manage playlists",
	Long: `Manage the playlists of the guest or, with --user, of a signed-in
user. Playlists are kept in the configured storage backend.`,
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(cmd, func(ctx context.Context, a *app.Application) error {
			playlists := a.Services().Playlists.List()
			if JSONOutput() {
				return printJSON(cmd.OutOrStdout(), playlists)
			}
			if len(playlists) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No playlists")
				return nil
			}
			t := NewTable(cmd.OutOrStdout(), "ID", "NAME", "TRACKS")
			for _, p := range playlists {
				t.Row(p.ID, TruncateString(p.Name, 40), strconv.Itoa(len(p.Tracks)))
			}
			t.Flush()
			return nil
		})
	},
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(cmd, func(ctx context.Context, a *app.Application) error {
			p, err := a.Services().Playlists.Create(ctx, args[0], playlistDescription)
			if err != nil {
				return err
			}
			return printPlaylist(cmd, p)
		})
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(cmd, func(ctx context.Context, a *app.Application) error {
			if err := a.Services().Playlists.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <playlist-id> <track-id|query>",
	Short: "Add a catalog track to a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := findTrack(args[1])
		if err != nil {
			return err
		}
		return withPlaylists(cmd, func(ctx context.Context, a *app.Application) error {
			added, err := a.Services().Playlists.AddTrack(ctx, args[0], track)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in the playlist\n", track.Title)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", track.Title)
			return nil
		})
	},
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove <playlist-id> <track-id>",
	Short: "Remove a track from a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(cmd, func(ctx context.Context, a *app.Application) error {
			if err := a.Services().Playlists.RemoveTrack(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[1])
			return nil
		})
	},
}

func init() {
	playlistCmd.PersistentFlags().StringVarP(&playlistUser, "user", "u", "", "sign in with this email first")
	playlistCreateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "playlist description")

	playlistCmd.AddCommand(playlistListCmd, playlistCreateCmd, playlistDeleteCmd, playlistAddCmd, playlistRemoveCmd)
	rootCmd.AddCommand(playlistCmd)
}

// withPlaylists builds the application, opens the requested session and runs fn.
func withPlaylists(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if playlistUser != "" {
		if _, err := a.Services().Session.Login(ctx, playlistUser); err != nil {
			return fmt.Errorf("sign in as %s: %w", playlistUser, err)
		}
	}
	return fn(ctx, a)
}

func printPlaylist(cmd *cobra.Command, p domain.Playlist) error {
	if JSONOutput() {
		return printJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%d tracks)\n", p.ID, p.Name, len(p.Tracks))
	return nil
}
