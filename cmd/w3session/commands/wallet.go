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

func chainFlags(cmd *cobra.Command, c *session.ChainConfig) {
	cmd.Flags().StringVar(&c.ChainNamespace, "chain-namespace", "eip155", "chain namespace")
	cmd.Flags().StringVar(&c.ChainID, "chain-id", "0x1", "chain id")
	cmd.Flags().StringVar(&c.RPCTarget, "rpc", "https://rpc.ethereum.org", "RPC endpoint")
	cmd.Flags().StringVar(&c.DisplayName, "chain-name", "", "display name")
	cmd.Flags().StringVar(&c.Ticker, "ticker", "ETH", "ticker")
	cmd.Flags().StringVar(&c.TickerName, "ticker-name", "Ethereum", "ticker name")
	cmd.Flags().StringVar(&c.BlockExplorerURL, "explorer", "", "block explorer URL")
	cmd.Flags().IntVar(&c.Decimals, "decimals", 18, "native token decimals")
}

func walletCmd() *cobra.Command {
	var (
		chain session.ChainConfig
		path  string
	)
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Open the wallet UI for the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initSession(ctx); err != nil {
				return err
			}
			_, err := handOff(ctx, func(ctx context.Context, ch domain.RedirectChannel) (*handshake.Pending, error) {
				return wire.Session.LaunchWalletServices(ctx, ch, chain, path)
			})
			if err != nil {
				return err
			}
			fmt.Println("Wallet closed.")
			return nil
		},
	}
	chainFlags(cmd, &chain)
	cmd.Flags().StringVar(&path, "path", "", "wallet path (default wallet)")
	return cmd
}

// request <method> [json-params]: e.g. request personal_sign '["0x48656c6c6f","0xabc"]'
func requestCmd() *cobra.Command {
	var (
		chain session.ChainConfig
		path  string
	)
	cmd := &cobra.Command{
		Use:   "request <method> [json-params]",
		Short: "Ask the wallet to run a JSON-RPC method",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var params any = []any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
					return fmt.Errorf("params must be JSON: %w", err)
				}
			}
			if err := initSession(ctx); err != nil {
				return err
			}
			out, err := handOff(ctx, func(ctx context.Context, ch domain.RedirectChannel) (*handshake.Pending, error) {
				return wire.Session.Request(ctx, ch, chain, args[0], params, path)
			})
			if err != nil {
				return err
			}
			fmt.Println(string(out.Result))
			return nil
		},
	}
	chainFlags(cmd, &chain)
	cmd.Flags().StringVar(&path, "path", "", "request path (default wallet/request)")
	return cmd
}
