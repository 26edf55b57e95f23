package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"w3session/internal/app"
)

var (
	configPath string
	wire       *app.Wire

	flags struct {
		home         string
		clientID     string
		network      string
		storeURL     string
		redirectMode string
		keystore     string
		passphrase   string
		logLevel     string
	}
)

func Execute() error {
	root := &cobra.Command{
		Use:          "w3session",
		Short:        "Obtain and manage a Web3Auth session from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Finish(); err != nil {
				return err
			}

			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			lvl, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(lvl)

			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, log.Logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "w3session.yaml", "config file")
	pf.StringVar(&flags.home, "home", "", "state dir (default ~/.w3session)")
	pf.StringVar(&flags.clientID, "client-id", "", "project client id")
	pf.StringVar(&flags.network, "network", "", "network, e.g. sapphire_mainnet")
	pf.StringVar(&flags.storeURL, "store", "", "session store base URL")
	pf.StringVar(&flags.redirectMode, "redirect", "", "redirect mode: loopback, deeplink or nats")
	pf.StringVar(&flags.keystore, "keystore", "", "local key store: file, sqlite or memory")
	pf.StringVarP(&flags.passphrase, "passphrase", "p", "", "passphrase to encrypt the file key store")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level")

	root.AddCommand(loginCmd(), statusCmd(), mfaCmd(), walletCmd(), requestCmd(), logoutCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}

// applyFlags overrides cfg with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *app.Config) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("home", &cfg.Home, flags.home)
	set("client-id", &cfg.ClientID, flags.clientID)
	set("network", &cfg.Network, flags.network)
	set("store", &cfg.StoreURL, flags.storeURL)
	set("redirect", &cfg.Redirect.Mode, flags.redirectMode)
	set("keystore", &cfg.KeyStore.Backend, flags.keystore)
	set("passphrase", &cfg.KeyStore.Passphrase, flags.passphrase)
	set("log-level", &cfg.LogLevel, flags.logLevel)
}
