package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/alovak/cardflow-gateway/internal/middleware"
	"github.com/alovak/cardflow-gateway/payeezy"
)

func TestValidateCardAgainstAPI(t *testing.T) {
	router := chi.NewRouter()
	payeezy.NewAPI(nil, logging.Discard()).AppendRoutes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	c := New(server.URL+"/", nil)

	res, err := c.ValidateCard(context.Background(), CardCheck{CardNumber: "4111 1111 1111 1111", ExpMonth: "12", ExpYear: "2040"})
	require.NoError(t, err)
	require.Equal(t, "visa", res.CardType)
	require.Equal(t, "411111******1111", res.MaskedNumber)
	require.True(t, res.GatewaySupported)

	_, err = c.ValidateCard(context.Background(), CardCheck{CardNumber: "4111111111111112", ExpMonth: "12", ExpYear: "2040"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnprocessableEntity, se.Status)
	require.Equal(t, "card_number_invalid", se.Code)

	// transaction routes answer 503 without a gateway
	_, err = c.Transact(context.Background(), "purchase", Charge{CardNumber: "4111111111111111"}, "")
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Status)
	require.Equal(t, "gateway_unavailable", se.Code)
}

func TestTransactAndTagged(t *testing.T) {
	var (
		gotKey  string
		gotPath string
		gotBody map[string]string
	)
	router := chi.NewRouter()
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(middleware.IdempotencyKeyHeader)
		gotPath = r.URL.Path
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"approved":true,"fields":{"transaction_id":"ET1","transaction_tag":"22"},"transaction_status":"approved","transaction_type":"purchase","bank_response_code":"approved","gateway_response_code":"transaction_normal"}`))
	}
	router.Post("/transactions/purchase", handler)
	router.Post("/transactions/{id}/void", handler)
	router.Post("/plain", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	c := New(server.URL, nil)

	tx, err := c.Transact(context.Background(), "purchase", Charge{CardNumber: "4111111111111111", Amount: "12.00"}, "key-1")
	require.NoError(t, err)
	require.True(t, tx.Approved)
	require.Equal(t, "ET1", tx.Fields["transaction_id"])
	require.Equal(t, "key-1", gotKey)
	require.Equal(t, "12.00", gotBody["amount"])

	_, err = c.Tagged(context.Background(), "void", "ET1", "22", "12.00")
	require.NoError(t, err)
	require.Equal(t, "/transactions/ET1/void", gotPath)
	require.Equal(t, "22", gotBody["transaction_tag"])
	require.Empty(t, gotKey)

	err = c.post(context.Background(), "/plain", "", struct{}{}, &struct{}{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "boom", se.Message)
	require.Empty(t, se.Code)
}
