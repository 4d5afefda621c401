package payeezy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/alovak/cardflow-gateway/internal/credentials"
	"github.com/alovak/cardflow-gateway/internal/iso8583"
	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/alovak/cardflow-gateway/internal/middleware"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

func newTestRouter(t *testing.T, gw *Gateway, auth Authorizer, mw ...func(http.Handler) http.Handler) chi.Router {
	t.Helper()
	api := NewAPI(gw, logging.Discard())
	api.now = func() time.Time { return testNow }
	if auth != nil {
		api.WithAuthorizer(auth)
	}
	router := chi.NewRouter()
	api.AppendRoutes(router, mw...)
	return router
}

func postJSON(h http.Handler, path string, body any, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPI_ValidateCard(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	t.Run("valid", func(t *testing.T) {
		w := postJSON(router, "/cards/validate", map[string]string{
			"card_number": "4111 1111 1111 1111", "exp_month": "12", "exp_year": "30", "cvv": "123",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			CardType         string `json:"card_type"`
			CardFace         string `json:"card_face"`
			MaskedNumber     string `json:"masked_number"`
			GatewaySupported bool   `json:"gateway_supported"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "visa", resp.CardType)
		require.Equal(t, "12/30", resp.CardFace)
		require.Equal(t, "411111******1111", resp.MaskedNumber)
		require.True(t, resp.GatewaySupported)
	})

	t.Run("diners is valid but not gateway supported", func(t *testing.T) {
		w := postJSON(router, "/cards/validate", map[string]string{
			"card_number": "30000000000004", "exp_month": "12", "exp_year": "30",
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"gateway_supported":false`)
	})

	t.Run("validation error is 422 with kind", func(t *testing.T) {
		w := postJSON(router, "/cards/validate", map[string]string{
			"card_number": "4111111111111111", "exp_month": "12", "exp_year": "01",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, payment.CardExpired.String(), body.Error)
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cards/validate", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_ParseAmount(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/amounts/parse", map[string]string{"amount": "$1,234.56"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"cents":"123456","display":"1234.56"}`, w.Body.String())

	w = postJSON(router, "/amounts/parse", map[string]string{"amount": "1.2.3"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_MICR(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := postJSON(router, "/checks/micr", map[string]any{"micr": "t011110756t123456789o1234"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"routing_number":"011110756","account_number":"123456789","check_number":"1234","offset":25,"routing_number_valid":true}`, w.Body.String())

	w = postJSON(router, "/checks/micr", map[string]any{"micr": "t0111?0756t"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = postJSON(router, "/checks/micr", map[string]any{"micr": "t011", "offset": 10})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_Transactions(t *testing.T) {
	sb := newSandbox(t)
	router := newTestRouter(t, sb.gateway(), nil)

	t.Run("purchase", func(t *testing.T) {
		w := postJSON(router, "/transactions/purchase", validCardRequest())
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Fields            map[string]string `json:"fields"`
			TransactionStatus string            `json:"transaction_status"`
			BankResponseCode  string            `json:"bank_response_code"`
			Approved          bool              `json:"approved"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "approved", resp.TransactionStatus)
		require.Equal(t, "approved", resp.BankResponseCode)
		require.Equal(t, "ET141870", resp.Fields[FieldTransactionID])
		require.True(t, resp.Approved)
	})

	t.Run("capture by id", func(t *testing.T) {
		w := postJSON(router, "/transactions/ET141870/capture", map[string]string{"transaction_tag": "2264357", "amount": "12.99"})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "/v1/transactions/ET141870", sb.last().Path)
		require.Equal(t, "capture", sb.last().Payload["transaction_type"])
	})

	t.Run("missing tag", func(t *testing.T) {
		w := postJSON(router, "/transactions/ET141870/void", map[string]string{"amount": "12.99"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("token purchase", func(t *testing.T) {
		w := postJSON(router, "/transactions/token-purchase", TokenRequest{
			Token: "9495846215171111", CardType: "Visa", ExpMonth: "12", ExpYear: "30", Amount: "5.00",
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "token", sb.last().Payload["method"])
	})

	t.Run("validation error", func(t *testing.T) {
		req := validCardRequest()
		req.CVV = "1"
		w := postJSON(router, "/transactions/authorize", req)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Contains(t, w.Body.String(), payment.SecurityCodeFormat.String())
	})

	t.Run("transport fault is 502", func(t *testing.T) {
		sb.respond(http.StatusBadGateway, "")
		defer sb.respond(http.StatusCreated, approvedBody)

		w := postJSON(router, "/transactions/refund", validCardRequest())
		require.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestAPI_NoGateway(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	w := postJSON(router, "/transactions/purchase", validCardRequest())
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPI_IdempotentTransactions(t *testing.T) {
	sb := newSandbox(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	router := newTestRouter(t, sb.gateway(), nil, middleware.Idempotency(cache, time.Minute, logging.Discard()))

	first := postJSON(router, "/transactions/purchase", validCardRequest(), middleware.IdempotencyKeyHeader, "order-1")
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(router, "/transactions/purchase", validCardRequest(), middleware.IdempotencyKeyHeader, "order-1")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, sb.count())

	// helpers are not behind the idempotency middleware
	w := postJSON(router, "/amounts/parse", map[string]string{"amount": "1.00"})
	require.Equal(t, http.StatusOK, w.Code)
}

type stubAuthorizer struct {
	result iso8583.AuthorizationResult
	err    error
	cents  int64
}

func (s *stubAuthorizer) Authorize(_ context.Context, _ payment.Details, cents int64) (iso8583.AuthorizationResult, error) {
	s.cents = cents
	return s.result, s.err
}

func TestAPI_ISO8583Authorize(t *testing.T) {
	t.Run("not mounted without authorizer", func(t *testing.T) {
		router := newTestRouter(t, nil, nil)
		w := postJSON(router, "/iso8583/authorize", map[string]string{})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("approved", func(t *testing.T) {
		auth := &stubAuthorizer{result: iso8583.AuthorizationResult{ResponseCode: iso8583.Approved, RawCode: "00"}}
		router := newTestRouter(t, nil, auth)

		w := postJSON(router, "/iso8583/authorize", map[string]string{
			"card_number": "4111111111111111", "exp_month": "12", "exp_year": "30", "amount": "10.50",
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"approved":true`)
		require.EqualValues(t, 1050, auth.cents)
	})

	t.Run("transport fault", func(t *testing.T) {
		auth := &stubAuthorizer{err: payment.Faultf(nil, "down")}
		router := newTestRouter(t, nil, auth)

		w := postJSON(router, "/iso8583/authorize", map[string]string{
			"card_number": "4111111111111111", "exp_month": "12", "exp_year": "30", "amount": "10.50",
		})
		require.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestNewGatewayFromStore(t *testing.T) {
	ctx := context.Background()
	repo := credentials.NewRepository()

	_, err := NewGatewayFromStore(ctx, repo, DefaultConfig())
	require.ErrorIs(t, err, credentials.ErrNotFound)

	require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "payeezy", Key: KeyAPIKey, Value: testAPIKey}))
	_, err = NewGatewayFromStore(ctx, repo, DefaultConfig())
	require.ErrorIs(t, err, credentials.ErrNotFound)

	sb := newSandbox(t)
	require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "payeezy", Key: KeyAPISecret, Value: testAPISecret}))
	require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "payeezy", Key: KeyToken, Value: testToken}))
	require.NoError(t, repo.Create(ctx, credentials.Record{Gateway: "payeezy", Key: KeyURL, Value: sb.server.URL + "/v1/transactions"}))

	gw, err := NewGatewayFromStore(ctx, repo, DefaultConfig(), WithLogger(logging.Discard()))
	require.NoError(t, err)

	resp, err := gw.Purchase(ctx, validCardRequest())
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Equal(t, testAPIKey, sb.last().Header.Get(HeaderAPIKey))
}

func TestApp_StartWithoutGateway(t *testing.T) {
	config := DefaultConfig()
	config.HTTPAddr = "127.0.0.1:0"
	config.CredentialsBackend = "mem"

	app := NewApp(logging.Discard(), config)
	require.NoError(t, app.Start())
	defer app.Shutdown()

	for _, path := range []string{"/-/live", "/-/ready"} {
		resp, err := http.Get("http://" + app.Addr + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Post("http://"+app.Addr+"/amounts/parse", "application/json", bytes.NewBufferString(`{"amount":"2.50"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_StartFailureClosesOpenedClients(t *testing.T) {
	mr := miniredis.RunT(t)

	config := DefaultConfig()
	config.HTTPAddr = "127.0.0.1:0"
	config.CredentialsBackend = "mem"
	config.RedisURL = "redis://" + mr.Addr()
	// nothing listens on port 1, so the iso8583 dial is refused after redis is up
	config.ISO8583Addr = "127.0.0.1:1"

	app := NewApp(logging.Discard(), config)
	err := app.Start()
	require.ErrorContains(t, err, "connecting iso8583 client")

	require.Nil(t, app.redis)
	require.Nil(t, app.iso8583)
	require.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)

	// a later Shutdown from the caller must not double close
	app.Shutdown()
}
