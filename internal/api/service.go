// filename: internal/api/service.go
package api

import (
	"context"
	cryptotls "crypto/tls"
	"fmt"

	"github.com/rulesmith/rulesmith/internal/api/server"
	"github.com/rulesmith/rulesmith/internal/auth"
	"github.com/rulesmith/rulesmith/internal/common/ch"
	"github.com/rulesmith/rulesmith/internal/common/config"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/nats"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	commontls "github.com/rulesmith/rulesmith/internal/common/tls"
	"github.com/rulesmith/rulesmith/internal/llm"
	"github.com/rulesmith/rulesmith/internal/pcapstore"
	rulevalidator "github.com/rulesmith/rulesmith/internal/validator"
)

// Service представляет API сервис со всеми зависимостями // v1.0
type Service struct {
	config   *config.Config
	logger   *logging.Logger
	server   *server.Server
	pgClient *pg.Client
	chClient *ch.Client
	natsConn *nats.Client
	sessions *auth.SessionStore
}

// NewService создает API сервис и подключает все зависимости // v1.0
func NewService(cfg *config.Config, logger *logging.Logger) (*Service, error) {
	pgClient, err := pg.NewClient(pg.Config{
		Host:            cfg.PostgreSQL.Host,
		Port:            cfg.PostgreSQL.Port,
		Database:        cfg.PostgreSQL.Database,
		Username:        cfg.PostgreSQL.Username,
		Password:        cfg.PostgreSQL.Password,
		SSLMode:         cfg.PostgreSQL.SSLMode,
		MaxOpenConns:    cfg.PostgreSQL.MaxOpenConns,
		MaxIdleConns:    cfg.PostgreSQL.MaxIdleConns,
		ConnMaxLifetime: cfg.PostgreSQL.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgresql: %w", err)
	}

	if err := pgClient.InitSchema(context.Background()); err != nil {
		pgClient.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// ClickHouse и NATS не критичны для старта, аудит и события
	// деградируют до логов
	chClient, err := ch.NewClient(ch.Config{
		Hosts:    cfg.ClickHouse.Hosts,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		Port:     cfg.ClickHouse.Port,
		Secure:   cfg.ClickHouse.Secure,
		Compress: cfg.ClickHouse.Compress,
		MaxOpen:  cfg.ClickHouse.MaxOpen,
		MaxIdle:  cfg.ClickHouse.MaxIdle,
		Timeout:  cfg.ClickHouse.Timeout,
	})
	if err != nil {
		logger.Logger.WithField("error", err.Error()).Warn("ClickHouse is not available, audit disabled")
		chClient = nil
	}

	natsConn, err := nats.NewClient(nats.Config{
		URLs:        cfg.NATS.URLs,
		ClusterID:   cfg.NATS.ClusterID,
		ClientID:    cfg.NATS.ClientID,
		Credentials: cfg.NATS.Credentials,
		Timeout:     cfg.NATS.Timeout,
	})
	if err != nil {
		logger.Logger.WithField("error", err.Error()).Warn("NATS is not available, events disabled")
		natsConn = nil
	}

	sessions, err := auth.NewSessionStore(cfg.Redis)
	if err != nil {
		pgClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		pgClient.Close()
		sessions.Close()
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	authService := auth.NewService(pgClient, sessions, tokens, logger)

	llmClient, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		pgClient.Close()
		sessions.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	store, err := pcapstore.NewStore(cfg.Uploads, pgClient, logger)
	if err != nil {
		pgClient.Close()
		sessions.Close()
		return nil, fmt.Errorf("failed to create pcap store: %w", err)
	}

	validator := rulevalidator.New(rulevalidator.EngineConfigFromApp(cfg.Suricata), logger)

	var tlsConfig *cryptotls.Config
	if cfg.TLS.Enabled {
		tlsConfig, err = commontls.ServerTLSConfig(commontls.Config{
			Enabled:    cfg.TLS.Enabled,
			CAFile:     cfg.TLS.CAFile,
			CertFile:   cfg.TLS.CertFile,
			KeyFile:    cfg.TLS.KeyFile,
			MinVersion: cfg.TLS.MinVersion,
			SelfSigned: cfg.TLS.SelfSigned,
		})
		if err != nil {
			pgClient.Close()
			sessions.Close()
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	srv := server.NewServer(&server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		LogLevel:     cfg.Logging.Level,
		RateLimit: server.RateLimit{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
			BlockDuration:     cfg.Server.RateLimit.BlockDuration,
		},
		TLS: tlsConfig,
	}, server.Deps{
		AppConfig: cfg,
		PG:        pgClient,
		CH:        chClient,
		NATS:      natsConn,
		LLM:       llmClient,
		Validator: validator,
		PcapStore: store,
		Auth:      authService,
	}, logger)

	return &Service{
		config:   cfg,
		logger:   logger,
		server:   srv,
		pgClient: pgClient,
		chClient: chClient,
		natsConn: natsConn,
		sessions: sessions,
	}, nil
}

// Start запускает API сервис // v1.0
func (s *Service) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- s.server.Start()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop останавливает сервис и закрывает соединения // v1.0
func (s *Service) Stop(ctx context.Context) {
	if err := s.server.Stop(ctx); err != nil {
		s.logger.Logger.WithField("error", err.Error()).Error("Failed to stop server")
	}

	if s.natsConn != nil {
		s.natsConn.Close()
	}
	if s.chClient != nil {
		s.chClient.Close()
	}
	if s.sessions != nil {
		s.sessions.Close()
	}
	if s.pgClient != nil {
		s.pgClient.Close()
	}
}
