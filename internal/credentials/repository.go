// Package credentials stores gateway credentials as (gateway, key, value) records.
package credentials

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "sort"
    "strings"
    "sync"

    "github.com/jackc/pgconn"
    "github.com/lib/pq"
)

var (
    ErrNotFound = fmt.Errorf("not found")
    ErrConflict = fmt.Errorf("conflict")
)

// Record is one credential value for one gateway.
type Record struct {
    Gateway string
    Key     string
    Value   string
}

// Repository keeps records in memory, or in postgres when built with NewPGRepository.
type Repository struct {
    mu      sync.RWMutex
    records map[string]map[string]string
    db      *sql.DB
}

func NewRepository() *Repository {
    return &Repository{records: make(map[string]map[string]string)}
}

// NewPGRepository constructs a db-backed repository over the gateway_credentials table.
func NewPGRepository(db *sql.DB) *Repository {
    return &Repository{db: db}
}

// NewEnvRepository loads records from environment variables named
// <PREFIX>_<GATEWAY>_<KEY>, e.g. GATEWAY_PAYEEZY_API_KEY.
func NewEnvRepository(prefix string, environ []string) *Repository {
    r := NewRepository()
    if environ == nil {
        environ = os.Environ()
    }
    p := strings.ToUpper(prefix) + "_"
    for _, kv := range environ {
        name, value, ok := strings.Cut(kv, "=")
        if !ok || !strings.HasPrefix(name, p) {
            continue
        }
        gateway, key, ok := strings.Cut(strings.TrimPrefix(name, p), "_")
        if !ok || gateway == "" || key == "" {
            continue
        }
        r.put(Record{Gateway: gateway, Key: key, Value: value})
    }
    return r
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *Repository) put(rec Record) {
    g := normalize(rec.Gateway)
    if r.records[g] == nil {
        r.records[g] = make(map[string]string)
    }
    r.records[g][normalize(rec.Key)] = rec.Value
}

// Create inserts a record; ErrConflict when the gateway already has the key.
func (r *Repository) Create(ctx context.Context, rec Record) error {
    if rec.Gateway == "" || rec.Key == "" {
        return fmt.Errorf("gateway and key are required")
    }
    if r.db == nil {
        r.mu.Lock()
        defer r.mu.Unlock()
        if _, ok := r.records[normalize(rec.Gateway)][normalize(rec.Key)]; ok {
            return fmt.Errorf("credential %s/%s exists: %w", rec.Gateway, rec.Key, ErrConflict)
        }
        r.put(rec)
        return nil
    }
    _, err := r.db.ExecContext(ctx, `
        INSERT INTO gateway_credentials(gateway, key, value)
        VALUES ($1,$2,$3)
    `, normalize(rec.Gateway), normalize(rec.Key), rec.Value)
    if isUniqueViolation(err) {
        return fmt.Errorf("credential %s/%s exists: %w", rec.Gateway, rec.Key, ErrConflict)
    }
    return err
}

// Get returns one value; ErrNotFound when absent.
func (r *Repository) Get(ctx context.Context, gateway, key string) (string, error) {
    if r.db == nil {
        r.mu.RLock()
        defer r.mu.RUnlock()
        v, ok := r.records[normalize(gateway)][normalize(key)]
        if !ok {
            return "", ErrNotFound
        }
        return v, nil
    }
    var v string
    err := r.db.QueryRowContext(ctx, `SELECT value FROM gateway_credentials WHERE gateway=$1 AND key=$2`,
        normalize(gateway), normalize(key)).Scan(&v)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    return v, err
}

// Section returns every key/value of a gateway; ErrNotFound when the gateway has none.
func (r *Repository) Section(ctx context.Context, gateway string) (map[string]string, error) {
    out := make(map[string]string)
    if r.db == nil {
        r.mu.RLock()
        defer r.mu.RUnlock()
        for k, v := range r.records[normalize(gateway)] {
            out[k] = v
        }
    } else {
        rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM gateway_credentials WHERE gateway=$1`, normalize(gateway))
        if err != nil {
            return nil, err
        }
        defer rows.Close()
        for rows.Next() {
            var k, v string
            if err := rows.Scan(&k, &v); err != nil {
                return nil, err
            }
            out[k] = v
        }
        if err := rows.Err(); err != nil {
            return nil, err
        }
    }
    if len(out) == 0 {
        return nil, fmt.Errorf("gateway %s: %w", gateway, ErrNotFound)
    }
    return out, nil
}

// Gateways lists the gateway names that have at least one record.
func (r *Repository) Gateways(ctx context.Context) ([]string, error) {
    if r.db != nil {
        rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT gateway FROM gateway_credentials ORDER BY gateway`)
        if err != nil {
            return nil, err
        }
        defer rows.Close()
        var out []string
        for rows.Next() {
            var g string
            if err := rows.Scan(&g); err != nil {
                return nil, err
            }
            out = append(out, g)
        }
        return out, rows.Err()
    }
    r.mu.RLock()
    defer r.mu.RUnlock()
    out := make([]string, 0, len(r.records))
    for g := range r.records {
        out = append(out, g)
    }
    sort.Strings(out)
    return out, nil
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
    if r.db == nil {
        return nil
    }
    return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
    var pe *pq.Error
    if errors.As(err, &pe) && pe.Code == "23505" {
        return true
    }
    var pgerr *pgconn.PgError
    if errors.As(err, &pgerr) && pgerr.Code == "23505" {
        return true
    }
    return false
}
