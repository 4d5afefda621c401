package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alovak/cardflow-gateway/firstdata"
	"github.com/alovak/cardflow-gateway/internal/apiclient"
	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/credentials"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/alovak/cardflow-gateway/internal/iso8583"
	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/alovak/cardflow-gateway/internal/micr"
	"github.com/alovak/cardflow-gateway/internal/payment"
	"github.com/alovak/cardflow-gateway/payeezy"
)

func validateCmd() *cobra.Command {
	var month, year, cvv string

	cmd := &cobra.Command{
		Use:   "validate [card number]",
		Short: "Run the card, expiry and security code checks locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := payment.ValidateCreditCard(args[0], month, year)
			if err != nil {
				return err
			}
			if cvv != "" {
				if _, err := payment.ValidateSecurityCode(details.Type, cvv); err != nil {
					return err
				}
			}
			name, supported := payeezy.CardTypeName(details.Type)

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"card_type":         details.Type,
				"gateway_name":      name,
				"gateway_supported": supported,
				"masked_number":     card.Mask(details.Number),
				"card_face":         expiry.CardFace(details.Expiration),
				"expiration":        details.Expiration,
			})
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "expiration month (1-12)")
	cmd.Flags().StringVarP(&year, "year", "y", "", "expiration year (YY or YYYY)")
	cmd.Flags().StringVar(&cvv, "cvv", "", "security code")

	return cmd
}

func amountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "amount [dollars]",
		Short: "Convert a dollar amount to cents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := payment.ParseAmountToCents(args[0])
			if err != nil {
				return err
			}
			display, err := payment.FormatCentsString(cents)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"cents": cents, "display": display})
		},
	}
}

func micrCmd() *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "micr [line]",
		Short: "Parse a MICR line into routing, account and check number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if offset < 0 || offset > len(args[0]) {
				return fmt.Errorf("offset %d is outside the micr line", offset)
			}
			next, check, err := micr.ParseCheck([]byte(args[0]), offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"routing_number":       check.RoutingNumber,
				"account_number":       check.AccountNumber,
				"check_number":         check.CheckNumber,
				"offset":               next,
				"routing_number_valid": micr.IsValidRoutingNumber(check.RoutingNumber),
			})
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "byte offset to start scanning from")

	return cmd
}

func generateCmd() *cobra.Command {
	var (
		brand   string
		count   int
		years   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Luhn-valid test card numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseBrand(brand)
			if err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			now := time.Now()
			exp := expiry.EndOfMonth(now.Year()+years, int(now.Month()), expiry.Location())

			for i := 0; i < count; i++ {
				number, err := card.GenerateFor(typ)
				if err != nil {
					return err
				}
				printed := card.Mask(number)
				if verbose {
					printed = number
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", printed, expiry.CardFace(exp), typ)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&brand, "brand", "b", "visa", "visa|mastercard|amex|discover|diners")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many numbers to print")
	cmd.Flags().IntVar(&years, "years", 3, "validity in years from today")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print full numbers (otherwise masked)")

	return cmd
}

func parseBrand(s string) (card.Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visa":
		return card.Visa, nil
	case "mastercard", "mc":
		return card.MasterCard, nil
	case "amex", "american_express":
		return card.AmericanExpress, nil
	case "discover":
		return card.Discover, nil
	case "diners":
		return card.Diners, nil
	}
	return card.Invalid, fmt.Errorf("unknown brand %q", s)
}

func chargeCmd() *cobra.Command {
	var (
		via         string
		server      string
		kind        string
		req         apiclient.Charge
		idempotency string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "charge",
		Short: "Send a card transaction through paymentd or directly to First Data GGE4",
		Long: `Send a card transaction.

--via paymentd posts to a running paymentd at --server.
--via firstdata signs a GGE4 request with credentials read from
GATEWAY_FIRSTDATA_EXACT_ID, _PASSWORD, _KEY_ID, _HMAC_KEY and _URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			switch via {
			case "paymentd":
				tx, err := apiclient.New(server, nil).Transact(ctx, kind, req, idempotency)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tx)
			case "firstdata":
				return chargeFirstData(ctx, cmd, kind, req)
			}
			return fmt.Errorf("unknown --via %q", via)
		},
	}

	cmd.Flags().StringVar(&via, "via", "paymentd", "paymentd|firstdata")
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:9090", "paymentd base URL")
	cmd.Flags().StringVar(&kind, "kind", "purchase", "authorize|purchase|refund")
	cmd.Flags().StringVar(&req.CardNumber, "card", "", "card number")
	cmd.Flags().StringVar(&req.ExpMonth, "month", "", "expiration month")
	cmd.Flags().StringVar(&req.ExpYear, "year", "", "expiration year")
	cmd.Flags().StringVar(&req.CVV, "cvv", "", "security code")
	cmd.Flags().StringVar(&req.Amount, "amount", "", "dollar amount, e.g. 12.34")
	cmd.Flags().StringVar(&req.CardholderName, "name", "", "cardholder name")
	cmd.Flags().StringVar(&req.MerchantRef, "ref", "", "merchant reference")
	cmd.Flags().StringVar(&idempotency, "idempotency-key", "", "replay-safe key sent to paymentd")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	addHSMFlags(cmd)

	return cmd
}

func chargeFirstData(ctx context.Context, cmd *cobra.Command, kind string, req apiclient.Charge) error {
	section, err := credentials.NewEnvRepository("GATEWAY", nil).Section(ctx, "firstdata")
	if err != nil {
		return fmt.Errorf("loading firstdata credentials: %w", err)
	}
	creds, err := firstdata.CredentialsFromSection(section)
	if err != nil {
		return err
	}
	mac, closeMAC, err := openHSM()
	if err != nil {
		return fmt.Errorf("opening hsm: %w", err)
	}
	defer closeMAC()

	var opts []firstdata.Option
	if mac != nil {
		opts = append(opts, firstdata.WithMAC(mac))
	}
	client := firstdata.NewClient(creds, logging.New("warn"), opts...)

	fr := firstdata.CardRequest{
		CardNumber:     req.CardNumber,
		ExpMonth:       req.ExpMonth,
		ExpYear:        req.ExpYear,
		CVV:            req.CVV,
		Amount:         req.Amount,
		CardholderName: req.CardholderName,
		ReferenceNo:    req.MerchantRef,
	}

	var resp *payeezy.Response
	switch kind {
	case "purchase":
		resp, err = client.Purchase(ctx, fr)
	case "authorize":
		resp, err = client.PreAuthorization(ctx, fr)
	default:
		return fmt.Errorf("firstdata supports purchase and authorize, not %q", kind)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), struct {
		*payeezy.Response
		Approved bool `json:"approved"`
	}{resp, resp.Approved()})
}

func isoSimCmd() *cobra.Command {
	var (
		addr     string
		limit    int64
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "iso-sim",
		Short: "Run an ISO 8583 issuer simulator that paymentd can authorize against",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logLevel)

			sim := iso8583.NewSimulator(logger, addr, limit)
			if err := sim.Start(); err != nil {
				return err
			}
			defer sim.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "iso8583 simulator listening on %s\n", sim.Addr)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8583", "listen address")
	cmd.Flags().Int64Var(&limit, "limit", 100000, "approval limit in cents")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	return cmd
}
