package payeezy

import (
    "context"
    "fmt"
    "os"
    "time"

    "github.com/alovak/cardflow-gateway/internal/credentials"
    "github.com/alovak/cardflow-gateway/internal/security"
)

// SandboxURL is the public Payeezy sandbox transactions endpoint.
const SandboxURL = "https://api-cert.payeezy.com/v1/transactions"

// Config is a configuration for the payment service
type Config struct {
    HTTPAddr string
    LogLevel string
    // PayeezyURL overrides the url stored with the gateway credentials.
    PayeezyURL string
    Currency   string
    // ExpiryTZ is an IANA timezone name for expiry computations (e.g., "America/New_York").
    ExpiryTZ string
    // CredentialsBackend is one of env, mem or pg.
    CredentialsBackend string
    DBDSN              string
    // RedisURL enables idempotent replay on transaction routes when set.
    RedisURL       string
    IdempotencyTTL time.Duration
    // ISO8583Addr enables the /iso8583/authorize route when set.
    ISO8583Addr    string
    FingerprintKey string
    HTTPTimeout    time.Duration
}

func DefaultConfig() *Config {
    return &Config{
        HTTPAddr:           "localhost:9090",
        LogLevel:           "info",
        Currency:           DefaultCurrency,
        CredentialsBackend: "env",
        IdempotencyTTL:     24 * time.Hour,
        HTTPTimeout:        30 * time.Second,
    }
}

// LoadConfig reads the environment on top of DefaultConfig.
func LoadConfig() *Config {
    def := DefaultConfig()
    return &Config{
        HTTPAddr:           getenv("HTTP_ADDR", def.HTTPAddr),
        LogLevel:           getenv("LOG_LEVEL", def.LogLevel),
        PayeezyURL:         getenv("PAYEEZY_URL", ""),
        Currency:           getenv("CURRENCY", def.Currency),
        ExpiryTZ:           getenv("EXPIRY_TZ", ""),
        CredentialsBackend: getenv("CREDENTIALS_BACKEND", def.CredentialsBackend),
        DBDSN:              getenv("DB_DSN", ""),
        RedisURL:           getenv("REDIS_URL", ""),
        IdempotencyTTL:     getduration("IDEMPOTENCY_TTL", def.IdempotencyTTL),
        ISO8583Addr:        getenv("ISO8583_ADDR", ""),
        FingerprintKey:     getenv("FINGERPRINT_KEY", ""),
        HTTPTimeout:        getduration("HTTP_TIMEOUT", def.HTTPTimeout),
    }
}

func getenv(k, def string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return def
}

func getduration(k string, def time.Duration) time.Duration {
    if v := os.Getenv(k); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return def
}

// CredentialStore is the part of the credentials repository the gateway needs.
type CredentialStore interface {
    Section(ctx context.Context, gateway string) (map[string]string, error)
}

// Credential keys stored under the "payeezy" gateway.
const (
    CredentialsGateway = "payeezy"
    KeyAPIKey          = "api_key"
    KeyAPISecret       = "api_secret"
    KeyToken           = "token"
    KeyURL             = "url"
)

// NewGatewayFromStore builds a Gateway from the stored payeezy credentials.
func NewGatewayFromStore(ctx context.Context, store CredentialStore, config *Config, opts ...Option) (*Gateway, error) {
    section, err := store.Section(ctx, CredentialsGateway)
    if err != nil {
        return nil, fmt.Errorf("loading payeezy credentials: %w", err)
    }
    for _, k := range []string{KeyAPIKey, KeyAPISecret, KeyToken} {
        if section[k] == "" {
            return nil, fmt.Errorf("payeezy credential %q: %w", k, credentials.ErrNotFound)
        }
    }

    endpoint := config.PayeezyURL
    if endpoint == "" {
        endpoint = section[KeyURL]
    }
    if endpoint == "" {
        endpoint = SandboxURL
    }

    signer := NewSigner(section[KeyAPIKey], section[KeyToken], security.NewHMACSHA256([]byte(section[KeyAPISecret])))
    opts = append([]Option{WithCurrency(config.Currency)}, opts...)
    if config.FingerprintKey != "" {
        opts = append(opts, WithFingerprintKey([]byte(config.FingerprintKey)))
    }
    return NewGateway(endpoint, signer, opts...), nil
}
