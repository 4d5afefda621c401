package iso8583

import (
	"fmt"
	"strconv"
	"time"

	"github.com/moov-io/iso8583"
	connection "github.com/moov-io/iso8583-connection"
	"github.com/moov-io/iso8583-connection/server"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardflow-gateway/internal/card"
)

// Simulator is a stand-in issuer host for development and tests. It approves
// Luhn-valid, unexpired cards up to Limit cents.
type Simulator struct {
	Addr   string
	Limit  int64
	logger *slog.Logger
	server *server.Server
	now    func() time.Time
}

func NewSimulator(logger *slog.Logger, addr string, limit int64) *Simulator {
	return &Simulator{
		Addr:   addr,
		Limit:  limit,
		logger: logger.With(slog.String("component", "iso8583-simulator")),
		now:    time.Now,
	}
}

func (s *Simulator) Start() error {
	s.server = server.New(Spec, readMessageLength, writeMessageLength, connection.InboundMessageHandler(s.handleMessage))

	if err := s.server.Start(s.Addr); err != nil {
		return fmt.Errorf("starting iso8583 simulator: %w", err)
	}
	s.Addr = s.server.Addr
	s.logger.Info("iso8583 simulator started", slog.String("addr", s.Addr))
	return nil
}

func (s *Simulator) Close() error {
	if s.server != nil {
		s.server.Close()
	}
	return nil
}

func (s *Simulator) handleMessage(c *connection.Connection, message *iso8583.Message) {
	mti, err := message.GetMTI()
	if err != nil || mti != MTIAuthorizationRequest {
		s.logger.Error("unsupported message", slog.String("mti", mti), slog.Any("err", err))
		return
	}

	reply := iso8583.NewMessage(Spec)
	reply.MTI(MTIAuthorizationResponse)
	for _, id := range []int{2, 3, 4, 7, 11, 14, 37, 41, 42, 49} {
		if v, err := message.GetString(id); err == nil && v != "" {
			if err := reply.Field(id, v); err != nil {
				s.logger.Error("echoing field", slog.Int("field", id), slog.Any("err", err))
				return
			}
		}
	}
	if err := reply.Field(39, s.decide(message).Code()); err != nil {
		s.logger.Error("setting response code", slog.Any("err", err))
		return
	}

	if err := c.Reply(reply); err != nil {
		s.logger.Error("replying", slog.Any("err", err))
	}
}

func (s *Simulator) decide(message *iso8583.Message) ResponseCode {
	pan, _ := message.GetString(2)
	if !card.HasValidLuhnChecksum(pan) {
		return InvalidCard
	}

	exp, _ := message.GetString(14)
	if len(exp) != 4 || exp < s.now().UTC().Format("0601") {
		return ExpiredCard
	}

	raw, _ := message.GetString(4)
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return InvalidAmount
	}
	if amount > s.Limit {
		return InsufficientFunds
	}
	return Approved
}
