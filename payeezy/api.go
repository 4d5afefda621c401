package payeezy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/alovak/cardflow-gateway/internal/iso8583"
	"github.com/alovak/cardflow-gateway/internal/micr"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

// Authorizer sends a validated card to an issuer host.
type Authorizer interface {
	Authorize(ctx context.Context, card payment.Details, amountCents int64) (iso8583.AuthorizationResult, error)
}

// API is a HTTP API for validation helpers and gateway transactions
type API struct {
	gateway    *Gateway
	authorizer Authorizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewAPI accepts a nil gateway; transaction routes then answer 503.
func NewAPI(gateway *Gateway, logger *slog.Logger) *API {
	return &API{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// WithAuthorizer enables POST /iso8583/authorize.
func (a *API) WithAuthorizer(auth Authorizer) *API {
	a.authorizer = auth
	return a
}

// AppendRoutes mounts the routes. txMiddleware wraps only the routes that reach a gateway.
func (a *API) AppendRoutes(r chi.Router, txMiddleware ...func(http.Handler) http.Handler) {
	r.Post("/cards/validate", a.validateCard)
	r.Post("/amounts/parse", a.parseAmount)
	r.Post("/checks/micr", a.parseMICR)

	r.Group(func(r chi.Router) {
		r.Use(txMiddleware...)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/authorize", a.cardTransaction(Authorize))
			r.Post("/purchase", a.cardTransaction(Purchase))
			r.Post("/refund", a.cardTransaction(Refund))
			r.Post("/token-purchase", a.tokenPurchase)
			r.Route("/{transactionID}", func(r chi.Router) {
				r.Post("/capture", a.taggedTransaction(Capture))
				r.Post("/void", a.taggedTransaction(Void))
				r.Post("/refund", a.taggedTransaction(Refund))
			})
		})

		if a.authorizer != nil {
			r.Post("/iso8583/authorize", a.isoAuthorize)
		}
	})
}

type validateCardRequest struct {
	CardNumber string `json:"card_number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVV        string `json:"cvv,omitempty"`
}

type validateCardResponse struct {
	CardType         card.Type `json:"card_type"`
	Expiration       time.Time `json:"expiration"`
	CardFace         string    `json:"card_face"`
	MaskedNumber     string    `json:"masked_number"`
	GatewaySupported bool      `json:"gateway_supported"`
}

func (a *API) validateCard(w http.ResponseWriter, r *http.Request) {
	var req validateCardRequest
	if !decode(w, r, &req) {
		return
	}

	details, err := payment.ValidateCreditCardAt(req.CardNumber, req.ExpMonth, req.ExpYear, a.now())
	if err != nil {
		writeError(w, err)
		return
	}
	if req.CVV != "" {
		if _, err := payment.ValidateSecurityCode(details.Type, req.CVV); err != nil {
			writeError(w, err)
			return
		}
	}
	_, supported := CardTypeName(details.Type)

	writeJSON(w, http.StatusOK, validateCardResponse{
		CardType:         details.Type,
		Expiration:       details.Expiration,
		CardFace:         expiry.CardFace(details.Expiration),
		MaskedNumber:     card.Mask(details.Number),
		GatewaySupported: supported,
	})
}

func (a *API) parseAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}

	cents, err := payment.ParseAmountToCents(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	display, err := payment.FormatCentsString(cents)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"cents": cents, "display": display})
}

type micrResponse struct {
	micr.Check
	Offset             int  `json:"offset"`
	RoutingNumberValid bool `json:"routing_number_valid"`
}

func (a *API) parseMICR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MICR   string `json:"micr"`
		Offset int    `json:"offset"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Offset < 0 || req.Offset > len(req.MICR) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "micr_offset", Message: "offset is outside the micr line"})
		return
	}

	next, check, err := micr.ParseCheck([]byte(req.MICR), req.Offset)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "micr_invalid", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, micrResponse{
		Check:              check,
		Offset:             next,
		RoutingNumberValid: micr.IsValidRoutingNumber(check.RoutingNumber),
	})
}

func (a *API) cardTransaction(typ TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.gatewayReady(w) {
			return
		}
		var req CardRequest
		if !decode(w, r, &req) {
			return
		}

		var (
			resp *Response
			err  error
		)
		switch typ {
		case Authorize:
			resp, err = a.gateway.Authorize(r.Context(), req)
		case Purchase:
			resp, err = a.gateway.Purchase(r.Context(), req)
		default:
			resp, err = a.gateway.Refund(r.Context(), req)
		}
		a.writeTransaction(w, resp, err)
	}
}

func (a *API) taggedTransaction(typ TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.gatewayReady(w) {
			return
		}
		var req TaggedRequest
		if !decode(w, r, &req) {
			return
		}
		req.TransactionID = chi.URLParam(r, "transactionID")

		var (
			resp *Response
			err  error
		)
		switch typ {
		case Capture:
			resp, err = a.gateway.Capture(r.Context(), req)
		case Void:
			resp, err = a.gateway.Void(r.Context(), req)
		default:
			resp, err = a.gateway.RefundByTag(r.Context(), req)
		}
		a.writeTransaction(w, resp, err)
	}
}

func (a *API) tokenPurchase(w http.ResponseWriter, r *http.Request) {
	if !a.gatewayReady(w) {
		return
	}
	var req TokenRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := a.gateway.TokenPurchase(r.Context(), req)
	a.writeTransaction(w, resp, err)
}

type isoAuthorizeRequest struct {
	validateCardRequest
	Amount string `json:"amount"`
}

func (a *API) isoAuthorize(w http.ResponseWriter, r *http.Request) {
	var req isoAuthorizeRequest
	if !decode(w, r, &req) {
		return
	}

	details, err := payment.ValidateCreditCardAt(req.CardNumber, req.ExpMonth, req.ExpYear, a.now())
	if err != nil {
		writeError(w, err)
		return
	}
	if req.CVV != "" {
		if _, err := payment.ValidateSecurityCode(details.Type, req.CVV); err != nil {
			writeError(w, err)
			return
		}
	}
	cents, err := payment.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := a.authorizer.Authorize(r.Context(), details, cents)
	if err != nil {
		a.logger.Error("iso8583 authorization", slog.Any("err", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		iso8583.AuthorizationResult
		Approved bool `json:"approved"`
	}{result, result.Approved()})
}

func (a *API) gatewayReady(w http.ResponseWriter) bool {
	if a.gateway == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "gateway_unavailable", Message: "payeezy gateway is not configured"})
		return false
	}
	return true
}

func (a *API) writeTransaction(w http.ResponseWriter, resp *Response, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*Response
		Approved bool `json:"approved"`
	}{resp, resp.Approved()})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps validation kinds to 422, transport faults to 502 and missing
// references to 400.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case payment.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: payment.KindOf(err).String(), Message: err.Error()})
	case errors.Is(err, payment.ErrTransportFault):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: payment.TransportFault.String(), Message: err.Error()})
	case errors.Is(err, ErrTransactionIDRequired), errors.Is(err, ErrTransactionTagRequired):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
