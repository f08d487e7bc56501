package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/data"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// Infra holds the connections shared by every enabled service.
type Infra struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// Close releases both connections and joins their errors.
func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var closeErr error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// InfraRequest selects which backends ConnectInfra must reach.
type InfraRequest struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	WantRedis bool
}

// ConnectInfra is the startup check. Postgres is always required and Redis
// only when requested; an unreachable backend is returned as an error after
// anything already opened is closed, so callers can exit non-zero.
func ConnectInfra(req InfraRequest) (*Infra, error) {
	if req.Config == nil {
		return nil, errors.New("infra config is required")
	}
	dbCfg := DatabaseConfig{DBConfig: req.Config.Postgres, RedisConfig: req.Config.Redis, Logger: req.Logger}

	db, err := ConnectDB(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &Infra{DB: db}
	if !req.WantRedis {
		if req.Logger != nil {
			req.Logger.Info("redis not required by enabled services; skipping connection")
		}
		return infra, nil
	}

	rdb, err := ConnectRedis(dbCfg)
	if err != nil {
		err = fmt.Errorf("connect redis: %w", err)
		if closeErr := infra.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	infra.Redis = rdb
	return infra, nil
}

// RedisRequired reports whether an enabled service reads the news cache:
// the HTTP run-once trigger, the news worker and the news scheduler.
func RedisRequired(services map[config.ServiceMode]bool) bool {
	return services[config.ServiceModeHTTP] ||
		services[config.ServiceModeNewsWorker] ||
		services[config.ServiceModeNewsScheduler]
}

func postgresDSN(cfg config.DBConfig) string {
	// url.URL escapes special characters in credentials
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DBConfig.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// redisOptions accepts either a redis:// or rediss:// URL or a bare host:port.
// Password and DB from the config apply only when the URL leaves them unset.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("redis URI is required")
	}

	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.Options{Addr: uri, Password: cfg.Password, DB: cfg.DB}, nil
	}

	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opt.Password == "" {
		opt.Password = cfg.Password
	}
	if opt.DB == 0 {
		opt.DB = cfg.DB
	}
	return opt, nil
}

// ConnectRedis establishes a connection to Redis.
//
//nolint:ireturn // callers hold redis.UniversalClient so the cache repo accepts test clients.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	opt, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", opt.Addr, "db", opt.DB, "tls", opt.TLSConfig != nil)
	}

	return client, nil
}

// RunMigrations runs database migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
