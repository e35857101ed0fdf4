package nutri

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		secret := []byte(cfg.Server.JWTSecret)
		if len(secret) == 0 {
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("generate token secret: %w", err)
			}
			logger.Warn("no jwt_secret configured; tokens will not survive a restart")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withDB(func(sqldb *sql.DB) error {
			srv := httpapi.New(httpapi.Options{
				DB:             sqldb,
				Logger:         logger.Named("http"),
				Secret:         secret,
				TokenTTL:       cfg.TokenTTLDuration(),
				AllowedOrigins: cfg.Server.AllowedOrigins,
			})
			logger.Info("serving api", zap.String("addr", addr))
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
			return srv.Run(ctx, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
