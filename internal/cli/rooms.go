package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect rooms",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsShowCmd())
	cmd.AddCommand(newRoomsQRCmd())

	return cmd
}

func roomPath(code string) string {
	return "/rooms/" + url.PathEscape(code)
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList

			if err := client.Get("/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show a room by join code or ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomDetail

			if err := client.Get(roomPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <code>",
		Short: "Print or save a room's join QR code",
		Long: `Without --file the room's join URL is rendered as a QR code in the
terminal. With --file the server's PNG is downloaded instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			if file != "" {
				png, err := client.GetBytes(roomPath(args[0]) + "/qr")
				if err != nil {
					return err
				}
				if err := os.WriteFile(file, png, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", file, err)
				}
				out.PrintMessage("QR code written to " + file)
				return nil
			}

			var room RoomDetail
			if err := client.Get(roomPath(args[0]), &room); err != nil {
				return err
			}
			qr, err := qrcode.New(room.JoinURL, qrcode.Medium)
			if err != nil {
				return fmt.Errorf("failed to encode QR code: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), qr.ToSmallString(false))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), room.JoinURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the PNG to this path")

	return cmd
}
