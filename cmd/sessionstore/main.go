package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"w3session/internal/storeserver"
)

func main() {
	var (
		addr          string
		redisAddr     string
		redisPassword string
		level         string
	)

	cmd := &cobra.Command{
		Use:   "sessionstore",
		Short: "Development session store server",
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(lvl)
			gin.SetMode(gin.ReleaseMode)

			var backend storeserver.Backend = storeserver.NewMemoryBackend()
			if redisAddr != "" {
				client, err := storeserver.DialRedis(redisAddr, redisPassword)
				if err != nil {
					return err
				}
				defer client.Close()
				backend = storeserver.NewRedisBackend(client)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           storeserver.New(backend, log.Logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()

			log.Info().Str("addr", addr).Bool("redis", redisAddr != "").Msg("session store listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Info().Msg("session store stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (empty keeps entries in memory)")
	cmd.Flags().StringVar(&redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().StringVar(&level, "log-level", "info", "log level")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
