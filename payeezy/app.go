package payeezy

import (
    "context"
    "database/sql"
    "fmt"
    "net"
    "net/http"
    "sync"
    "time"

    "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    _ "github.com/lib/pq"
    "github.com/redis/go-redis/v9"
    "golang.org/x/exp/slog"

    "github.com/alovak/cardflow-gateway/internal/credentials"
    "github.com/alovak/cardflow-gateway/internal/expiry"
    "github.com/alovak/cardflow-gateway/internal/iso8583"
    "github.com/alovak/cardflow-gateway/internal/middleware"
)

// App is the main application, it wires the credential store, the gateway, the
// optional Redis and ISO 8583 connections and the HTTP server.
type App struct {
    srv    *http.Server
    wg     *sync.WaitGroup
    Addr   string
    logger *slog.Logger
    config *Config

    // Credentials is created by Start unless set beforehand.
    Credentials *credentials.Repository
    db          *sql.DB
    redis       *redis.Client
    iso8583     *iso8583.Client
}

func NewApp(logger *slog.Logger, config *Config) *App {
    logger = logger.With(slog.String("app", "paymentd"))

    if config == nil {
        config = DefaultConfig()
    }

    return &App{
        wg:     &sync.WaitGroup{},
        logger: logger,
        config: config,
    }
}

func (a *App) Start() (err error) {
    a.logger.Info("starting app...")

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    defer func() {
        if err != nil {
            a.closeClients()
        }
    }()

    if a.config.ExpiryTZ != "" {
        loc, err := time.LoadLocation(a.config.ExpiryTZ)
        if err != nil {
            return fmt.Errorf("loading expiry timezone %s: %w", a.config.ExpiryTZ, err)
        }
        expiry.SetDefaultExpiryLocation(loc)
    }

    if a.Credentials == nil {
        repo, err := a.openCredentials(ctx)
        if err != nil {
            return err
        }
        a.Credentials = repo
    }

    gateway, err := NewGatewayFromStore(ctx, a.Credentials, a.config,
        WithLogger(a.logger),
        WithHTTPClient(&http.Client{Timeout: a.config.HTTPTimeout}),
    )
    if err != nil {
        // validation routes still work without a gateway
        a.logger.Warn("payeezy gateway disabled", slog.Any("err", err))
    }

    router := chi.NewRouter()
    router.Use(chimw.RequestID)
    router.Use(middleware.NewStructuredLogger(a.logger))

    var txMiddleware []func(http.Handler) http.Handler
    if a.config.RedisURL != "" {
        client, err := newRedisClient(ctx, a.config.RedisURL)
        if err != nil {
            return err
        }
        a.redis = client
        txMiddleware = append(txMiddleware, middleware.Idempotency(client, a.config.IdempotencyTTL, a.logger))
    }

    api := NewAPI(gateway, a.logger)
    if a.config.ISO8583Addr != "" {
        client := iso8583.NewClient(a.logger, a.config.ISO8583Addr)
        if err := client.Connect(); err != nil {
            return fmt.Errorf("connecting iso8583 client: %w", err)
        }
        a.iso8583 = client
        api.WithAuthorizer(client)
    }
    api.AppendRoutes(router, txMiddleware...)

    router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
    router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
        ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
        defer cancel()
        if err := a.Credentials.Ping(ctx); err != nil {
            http.Error(w, "credential store not ready", http.StatusServiceUnavailable)
            return
        }
        if a.redis != nil {
            if err := a.redis.Ping(ctx).Err(); err != nil {
                http.Error(w, "redis not ready", http.StatusServiceUnavailable)
                return
            }
        }
        w.WriteHeader(http.StatusOK)
    })

    l, err := net.Listen("tcp", a.config.HTTPAddr)
    if err != nil {
        return fmt.Errorf("listening tcp port: %w", err)
    }

    a.Addr = l.Addr().String()

    a.srv = &http.Server{
        Handler:           router,
        ReadHeaderTimeout: 5 * time.Second,
    }

    a.wg.Add(1)
    go func() {
        a.logger.Info("http server started", slog.String("addr", a.Addr))

        if err := a.srv.Serve(l); err != nil {
            if err != http.ErrServerClosed {
                a.logger.Error("starting http server", "err", err)
            }

            a.logger.Info("http server stopped")
        }

        a.wg.Done()
    }()

    return nil
}

func (a *App) openCredentials(ctx context.Context) (*credentials.Repository, error) {
    switch a.config.CredentialsBackend {
    case "env":
        return credentials.NewEnvRepository("GATEWAY", nil), nil
    case "mem":
        return credentials.NewRepository(), nil
    case "pg":
        if a.config.DBDSN == "" {
            return nil, fmt.Errorf("DB_DSN is required for pg backend")
        }
        db, err := sql.Open("postgres", a.config.DBDSN)
        if err != nil {
            return nil, fmt.Errorf("open postgres: %w", err)
        }
        db.SetMaxIdleConns(5)
        db.SetMaxOpenConns(10)
        if err := db.PingContext(ctx); err != nil {
            db.Close()
            return nil, fmt.Errorf("ping postgres: %w", err)
        }
        if err := credentials.Migrate(ctx, db); err != nil {
            db.Close()
            return nil, fmt.Errorf("migrating credentials: %w", err)
        }
        a.db = db
        return credentials.NewPGRepository(db), nil
    default:
        return nil, fmt.Errorf("unsupported CREDENTIALS_BACKEND=%s", a.config.CredentialsBackend)
    }
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
    opt, err := redis.ParseURL(url)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }

    client := redis.NewClient(opt)
    if err := client.Ping(ctx).Err(); err != nil {
        client.Close()
        return nil, fmt.Errorf("ping redis: %w", err)
    }
    return client, nil
}

func (a *App) Shutdown() {
    a.logger.Info("shutting down app...")

    if a.srv != nil {
        a.srv.Shutdown(context.Background())
    }

    a.closeClients()

    a.wg.Wait()

    a.logger.Info("app stopped")
}

// closeClients releases the connections opened by Start. It is safe to call
// more than once.
func (a *App) closeClients() {
    if a.iso8583 != nil {
        if err := a.iso8583.Close(); err != nil {
            a.logger.Error("closing iso8583 client", "err", err)
        }
        a.iso8583 = nil
    }
    if a.redis != nil {
        if err := a.redis.Close(); err != nil {
            a.logger.Error("closing redis", "err", err)
        }
        a.redis = nil
    }
    if a.db != nil {
        if err := a.db.Close(); err != nil {
            a.logger.Error("closing postgres", "err", err)
        }
        a.db = nil
    }
}
