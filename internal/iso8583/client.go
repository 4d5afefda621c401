package iso8583

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	connection "github.com/moov-io/iso8583-connection"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardflow-gateway/internal/payment"
)

// Client is an ISO 8583 connection to an issuer host.
type Client struct {
	addr       string
	logger     *slog.Logger
	conn       *connection.Connection
	stan       atomic.Uint32
	TerminalID string
	MerchantID string
	now        func() time.Time
}

func NewClient(logger *slog.Logger, addr string) *Client {
	return &Client{
		addr:       addr,
		logger:     logger.With(slog.String("component", "iso8583-client")),
		TerminalID: "CARDFLOW",
		MerchantID: "CARDFLOWGATEWAY",
		now:        time.Now,
	}
}

func (c *Client) Connect() error {
	conn, err := connection.New(c.addr, Spec, readMessageLength, writeMessageLength,
		connection.SendTimeout(5*time.Second),
		connection.ErrorHandler(func(err error) {
			c.logger.Error("iso8583 connection error", slog.Any("err", err))
		}),
	)
	if err != nil {
		return fmt.Errorf("creating iso8583 connection: %w", err)
	}

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("connecting to iso8583 server %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("connected", slog.String("addr", c.addr))
	return nil
}

// Authorize sends a 0100 for a validated card and waits for the 0110 reply.
// Connection failures are returned as payment TransportFault errors.
func (c *Client) Authorize(ctx context.Context, card payment.Details, amountCents int64) (AuthorizationResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthorizationResult{}, payment.Faultf(err, "authorizing over iso8583")
	}
	if c.conn == nil {
		return AuthorizationResult{}, payment.Faultf(nil, "iso8583 client is not connected")
	}

	now := c.now()
	stan := c.nextSTAN()
	msg, err := NewAuthorizationMessage(AuthorizationRequest{
		Card:        card,
		AmountCents: amountCents,
		STAN:        stan,
		RRN:         retrievalReference(now, stan),
		TerminalID:  c.TerminalID,
		MerchantID:  c.MerchantID,
		Time:        now,
	})
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("building authorization: %w", err)
	}

	reply, err := c.conn.Send(msg)
	if err != nil {
		return AuthorizationResult{}, payment.Faultf(err, "sending authorization")
	}

	result, err := ParseAuthorizationResponse(reply)
	if err != nil {
		return AuthorizationResult{}, payment.Faultf(err, "reading authorization response")
	}
	c.logger.Info("authorization", slog.String("stan", stan), slog.String("response_code", result.RawCode))
	return result, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// nextSTAN cycles through 000001..999999.
func (c *Client) nextSTAN() string {
	n := (c.stan.Add(1)-1)%999999 + 1
	return fmt.Sprintf("%06d", n)
}

// retrievalReference is YDDDHH followed by the STAN.
func retrievalReference(t time.Time, stan string) string {
	t = t.UTC()
	return fmt.Sprintf("%d%03d%02d%s", t.Year()%10, t.YearDay(), t.Hour(), stan)
}
