package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the public room list",
		Long: `Open a websocket to the server and print the public room list each
time it changes. No player identity is claimed.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return watchRooms(ctx, cmd, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first room list")

	return cmd
}

// frame is an inbound websocket message
type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error,omitempty"`
}

func watchRooms(ctx context.Context, cmd *cobra.Command, once bool) error {
	wsURL, err := client.WebSocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on interrupt
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(map[string]string{"type": "list_rooms"}); err != nil {
		return fmt.Errorf("failed to request rooms: %w", err)
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if cfg.Output == "text" {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), pterm.Info.Sprintln("Connected to "+wsURL))
	}

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		if f.Type != "rooms_list" {
			if cfg.Verbose {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", time.Now().Format(time.TimeOnly), f.Type)
			}
			continue
		}

		var list RoomList
		if err := json.Unmarshal(f.Payload, &list); err != nil {
			return fmt.Errorf("failed to parse room list: %w", err)
		}
		if cfg.Output == "text" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", time.Now().Format(time.TimeOnly))
		}
		out.Print(list)

		if once {
			return nil
		}
	}
}
