package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"w3session/internal/domain"
	"w3session/internal/protocol/handshake"
	"w3session/internal/services/session"
)

func loginCmd() *cobra.Command {
	var (
		provider  string
		loginHint string
		mfaLevel  string
		curve     string
		showKey   bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the hosted flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initSession(ctx); err != nil {
				return err
			}
			params := session.LoginParams{
				LoginProvider: provider,
				MFALevel:      mfaLevel,
				Curve:         curve,
			}
			if loginHint != "" {
				extra, err := json.Marshal(map[string]string{"login_hint": loginHint})
				if err != nil {
					return err
				}
				params.ExtraLoginOptions = extra
			}

			out, err := handOff(ctx, func(ctx context.Context, ch domain.RedirectChannel) (*handshake.Pending, error) {
				return wire.Session.Login(ctx, ch, params)
			})
			if err != nil {
				return err
			}
			if out.Kind == handshake.Logout {
				fmt.Println("The session carries no key; logged out.")
				return nil
			}
			fmt.Println("Logged in.")
			if out.Response.UserInfo != nil {
				printUser(out.Response.UserInfo)
			}
			if showKey {
				fmt.Printf("PrivKey:  %s\n", wire.Session.PrivKey())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "google", "login provider")
	cmd.Flags().StringVar(&loginHint, "login-hint", "", "email or phone for passwordless providers")
	cmd.Flags().StringVar(&mfaLevel, "mfa-level", "", "default, optional, mandatory or none")
	cmd.Flags().StringVar(&curve, "curve", "", "secp256k1 or ed25519")
	cmd.Flags().BoolVar(&showKey, "show-key", false, "print the session private key")
	return cmd
}

func mfaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mfa",
		Short: "Enable MFA for the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initSession(ctx); err != nil {
				return err
			}
			_, err := handOff(ctx, func(ctx context.Context, ch domain.RedirectChannel) (*handshake.Pending, error) {
				return wire.Session.EnableMFA(ctx, ch, session.LoginParams{})
			})
			if err != nil {
				return err
			}
			fmt.Println("MFA enabled.")
			return nil
		},
	}
}
