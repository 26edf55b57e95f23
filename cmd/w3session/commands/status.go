package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"w3session/internal/protocol/handshake"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Resume the persisted session and print the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := wire.Session.Resume(cmd.Context())
			switch {
			case errors.Is(err, handshake.ErrSessionNotFound):
				fmt.Println("Not logged in.")
				return nil
			case err != nil:
				if last := wire.Handshake.Err(); last != nil {
					fmt.Printf("State:    %s (%v)\n", wire.Handshake.State(), last)
				}
				return err
			case out.Kind == handshake.Logout:
				fmt.Println("Session ended remotely; logged out.")
				return nil
			}
			fmt.Printf("State:    %s\n", wire.Handshake.State())
			ui, err := wire.Session.UserInfo()
			if err != nil {
				return err
			}
			printUser(ui)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session remotely and locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Session.Logout(cmd.Context()); err != nil {
				// Local state is gone either way.
				fmt.Println("Logged out locally.")
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
