package credentials_test

import (
    "context"
    "testing"

    "github.com/alovak/cardflow-gateway/internal/credentials"
    "github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
    ctx := context.Background()
    repo := credentials.NewRepository()

    require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "Payeezy", Key: "api_key", Value: "k"}))
    require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "payeezy", Key: "TOKEN", Value: "t"}))

    err := repo.Create(ctx, credentials.Record{Gateway: "PAYEEZY", Key: "api_key", Value: "other"})
    require.ErrorIs(t, err, credentials.ErrConflict)

    v, err := repo.Get(ctx, "payeezy", "Api_Key")
    require.NoError(t, err)
    require.Equal(t, "k", v)

    _, err = repo.Get(ctx, "payeezy", "missing")
    require.ErrorIs(t, err, credentials.ErrNotFound)

    section, err := repo.Section(ctx, "Payeezy")
    require.NoError(t, err)
    require.Equal(t, map[string]string{"api_key": "k", "token": "t"}, section)

    _, err = repo.Section(ctx, "firstdata")
    require.ErrorIs(t, err, credentials.ErrNotFound)

    require.Error(t, repo.Create(ctx, credentials.Record{Gateway: "x"}))
    require.NoError(t, repo.Ping(ctx))
}

func TestEnvRepository(t *testing.T) {
    ctx := context.Background()
    repo := credentials.NewEnvRepository("GATEWAY", []string{
        "GATEWAY_PAYEEZY_API_KEY=key",
        "GATEWAY_PAYEEZY_API_SECRET=secret",
        "GATEWAY_FIRSTDATA_ID=AD1234-56",
        "GATEWAY_BROKEN=ignored",
        "HOME=/root",
    })

    section, err := repo.Section(ctx, "payeezy")
    require.NoError(t, err)
    require.Equal(t, map[string]string{"api_key": "key", "api_secret": "secret"}, section)

    gateways, err := repo.Gateways(ctx)
    require.NoError(t, err)
    require.Equal(t, []string{"firstdata", "payeezy"}, gateways)
}
