package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/numberdesk/numberdesk/internal/config"
	"github.com/numberdesk/numberdesk/internal/server"
	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/session"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the numberdesk API server",
		Long:  "Start the HTTP server that exposes the user and phone number API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntP("port", "p", config.Default().Server.Port, "HTTP listen port")
	cmd.Flags().String("host", config.Default().Server.Host, "HTTP listen host")
	cmd.Flags().String("db", config.Default().Database.Path, "SQLite database file")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("database.path", cmd.Flags().Lookup("db"))

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := stderrLogger(cfg)

	// 1. Open the database and the event publisher
	dir, st, cleanup, err := openDirectory(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	logger.Info("database ready", "path", st.Path())

	// 2. Session store
	sessions, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	// 3. Auth service
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set; legacy bearer credentials will not survive a restart")
	}
	authSvc, err := service.NewAuthService(st, sessions, cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// 4. First run: seed the default admin
	generated, seeded, err := authSvc.SeedDefaultAdmin(ctx, cfg.Auth.Admin.Username, cfg.Auth.Admin.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		if generated != "" {
			logger.Warn("created default admin with a generated password; change it or set auth.admin.password",
				"username", cfg.Auth.Admin.Username,
				"password", generated,
			)
		} else {
			logger.Info("created default admin", "username", cfg.Auth.Admin.Username)
		}
	}

	// 5. Build and start HTTP server
	srvCfg := server.ConfigFrom(cfg)
	srvCfg.Version = versionString()
	srv := server.New(srvCfg, dir, authSvc, st, logger)

	fmt.Printf("→ numberdesk %s\n", versionString())
	fmt.Printf("→ Listening on http://%s\n", cfg.Addr())
	fmt.Printf("→ OpenAPI:    http://%s/openapi.json\n", cfg.Addr())
	fmt.Printf("→ Swagger UI: http://%s/swagger/\n", cfg.Addr())
	fmt.Printf("→ Health:     http://%s/health\n", cfg.Addr())
	fmt.Println()

	return srv.ListenAndServe(ctx)
}

// openSessions picks Redis when an address is configured and the in-memory
// store otherwise.
func openSessions(ctx context.Context, cfg config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.Session.RedisAddr == "" {
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.DialRedis(ctx, session.RedisOptions{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect session store: %w", err)
	}
	logger.Info("sessions stored in redis", "addr", cfg.Session.RedisAddr)
	return session.NewRedisStore(client, cfg.Session.Prefix), func() { client.Close() }, nil
}
