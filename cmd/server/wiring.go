package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authHandler "syncauth/internal/auth/handler"
	authMetrics "syncauth/internal/auth/metrics"
	authService "syncauth/internal/auth/service"
	"syncauth/internal/auth/store/account"
	"syncauth/internal/auth/tracer"
	jwttoken "syncauth/internal/jwt_token"
	"syncauth/internal/platform/clientconfig"
	"syncauth/internal/platform/config"
	"syncauth/internal/platform/database"
	"syncauth/internal/platform/health"
	"syncauth/internal/platform/kafka/producer"
	"syncauth/internal/platform/metrics"
	"syncauth/internal/platform/redis"
	ratelimitConfig "syncauth/internal/ratelimit/config"
	abuseHandler "syncauth/internal/ratelimit/handler"
	ratelimitMetrics "syncauth/internal/ratelimit/metrics"
	"syncauth/internal/ratelimit/service/abuseguard"
	"syncauth/internal/ratelimit/store/failures"
	"syncauth/internal/ratelimit/store/settings"
	"syncauth/internal/ratelimit/workers/settingsync"
	"syncauth/internal/seeder"
	httptransport "syncauth/internal/transport/http"
	"syncauth/pkg/platform/audit/publisher"
	"syncauth/pkg/platform/middleware/metadata"
)

const auditBufferSize = 1024

// accountRegistry is what both the authenticator and the seeder need.
type accountRegistry interface {
	authService.AccountRegistry
	seeder.AccountStore
}

type app struct {
	router       http.Handler
	redis        *redis.Client
	settingsSync *settingsync.SettingsSyncService
	closers      []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	healthHandler := health.New(cfg.Server.Environment)

	log.Info("initializing syncauth",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"failed_auth_for_temp_ban", cfg.AuthService.FailedAuthForTempBan,
		"temp_ban_duration_minutes", cfg.AuthService.TempBanDurationInMinutes,
		"whitelisted_ips", len(cfg.AuthService.WhitelistedIPs),
		"use_geoip", cfg.GeoIP.Enabled,
		"geoip_db_city_file", cfg.GeoIP.CityDatabase,
		"oauth_base_uri", cfg.OAuth.PublicBaseURI,
		"discord_oauth_client_id", cfg.OAuth.DiscordClientID,
		"oauth_enabled", cfg.OAuth.Enabled(),
	)
	if cfg.GeoIP.Enabled {
		log.Warn("USE_GEOIP is set but geo restrictions are not enforced")
	}

	accounts, err := buildAccountRegistry(ctx, a, cfg, log, reg, healthHandler)
	if err != nil {
		return nil, err
	}
	if err := seed(ctx, cfg, accounts, log); err != nil {
		return nil, err
	}

	auditPublisher, err := buildAuditPublisher(a, cfg, log, httpMetrics, healthHandler)
	if err != nil {
		return nil, err
	}

	guardSettings := cfg.AuthService.GuardSettings()
	live := ratelimitConfig.NewLive(guardSettings)
	guard, err := abuseguard.New(
		failures.New(failures.WithMaxTracked(guardSettings.MaxTrackedAddresses)),
		live,
		abuseguard.WithLogger(log),
		abuseguard.WithMetrics(ratelimitMetrics.New(reg)),
		abuseguard.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return nil, err
	}

	if err := buildSettingsSync(ctx, a, cfg, log, reg, live, healthHandler); err != nil {
		return nil, err
	}

	authenticator, err := authService.New(accounts, guard,
		authService.WithLogger(log),
		authService.WithMetrics(authMetrics.New(reg)),
		authService.WithTracer(tracer.NewOTel()),
		authService.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return nil, err
	}

	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.IdentityKey, cfg.Server.TokenIssuer, cfg.Server.TokenTTL)

	trustedProxies, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	clientHandler := clientconfig.New(clientconfig.Info{
		ServerName:    cfg.Server.Name,
		ServerVersion: health.Version,
		DiscordInvite: cfg.Server.DiscordInvite,
		ServerRules:   cfg.Server.Rules,
		OAuthEnabled:  cfg.OAuth.Enabled(),
	})

	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Auth:       authHandler.New(authenticator, tokens, guard, log),
		Abuse:      abuseHandler.New(guard, log),
		Client:     clientHandler,
		Health:     healthHandler,
		Metrics:    httpMetrics,
		Gatherer:   reg,
		Metadata:   metadata.NewMiddleware(&metadata.Config{TrustedProxies: trustedProxies}),
		AdminToken: cfg.Server.AdminAPIToken,
	})
	return a, nil
}

// buildAccountRegistry uses Postgres when DATABASE_URL is set, otherwise an
// in-memory registry.
func buildAccountRegistry(ctx context.Context, a *app, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer, h *health.Handler) (accountRegistry, error) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, using in-memory account registry")
		return account.New(), nil
	}
	a.closers = append(a.closers, func() { _ = pool.Close() })

	if err := database.Migrate(ctx, pool.DB()); err != nil {
		return nil, err
	}
	if err := pool.RegisterMetrics(reg); err != nil {
		return nil, err
	}
	h.RegisterCheck("database", pool.Health)
	log.Info("connected to account database")
	return account.NewPostgres(pool.DB()), nil
}

func seed(ctx context.Context, cfg *config.Config, accounts seeder.AccountStore, log *slog.Logger) error {
	s := seeder.New(accounts, log)
	if cfg.Server.SeedDemoData {
		if _, err := s.SeedDemo(ctx); err != nil {
			return err
		}
	}
	if cfg.Server.SeedFile != "" {
		if _, err := s.SeedFile(ctx, cfg.Server.SeedFile); err != nil {
			return err
		}
	}
	return nil
}

// buildAuditPublisher always logs audit events and also ships them to Kafka
// when brokers are configured.
func buildAuditPublisher(a *app, cfg *config.Config, log *slog.Logger, m *metrics.Metrics, h *health.Handler) (*publisher.Publisher, error) {
	sinks := []publisher.Sink{publisher.NewLogSink(log)}

	if cfg.Kafka.Brokers != "" {
		pcfg := producer.DefaultConfig()
		pcfg.Brokers = cfg.Kafka.Brokers
		p, err := producer.New(pcfg, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = p.Close() })
		h.RegisterCheck("kafka", p.Healthy)
		sinks = append(sinks, publisher.NewKafkaSink(p, cfg.Kafka.AuditTopic))
		log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	pub := publisher.NewPublisher(sinks,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithPublisherLogger(log),
		publisher.WithDropHook(m.AuditEventsDropped.Inc),
	)
	a.closers = append(a.closers, pub.Close)
	return pub, nil
}

// buildSettingsSync connects Redis and starts polling runtime overrides into
// live. Without REDIS_URL the environment defaults stay in force.
func buildSettingsSync(ctx context.Context, a *app, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer, live *ratelimitConfig.Live, h *health.Handler) error {
	client, err := redis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return err
	}
	if client == nil {
		log.Info("REDIS_URL not set, abuse guard runs on environment settings only")
		return nil
	}
	a.redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	h.RegisterCheck("redis", client.Health)

	a.settingsSync = settingsync.New(
		settings.NewRedis(client.Client, cfg.Redis.ConfigKey),
		live,
		settingsync.WithLogger(log),
		settingsync.WithInterval(cfg.Redis.SyncInterval),
	)
	return nil
}
