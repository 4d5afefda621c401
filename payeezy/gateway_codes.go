package payeezy

// GatewayResponseCode is the gateway's own result code (gateway_resp_code).
type GatewayResponseCode int

const (
	GatewayResponseCodeUnknown GatewayResponseCode = iota
	TransactionNormal

	CVV2DataNotVerified
	InvalidCreditCardNumber
	InvalidExpiryDate
	InvalidAmount
	InvalidCardHolder
	InvalidAuthorizationNo
	InvalidVerificationString
	InvalidTransactionCode
	InvalidReferenceNo
	InvalidAVSString
	InvalidCustomerReferenceNumber
	InvalidDuplicate
	InvalidRefund
	RestrictedCardNumber
	InvalidTransactionTag
	DataWithinTransactionIncorrect
	InvalidAuthNumberOnPreAuthCompletion

	InvalidSequenceNo
	MessageTimedOutAtHost
	BCEFunctionError
	InvalidResponseFromGateway
	InvalidDateFromHost

	InvalidTransactionDescription
	InvalidGatewayID
	InvalidTransactionNumber
	ConnectionInactive
	UnmatchedTransaction
	InvalidReversalResponse
	UnableToSendSocketTransaction
	UnableToWriteTransactionToFile
	UnableToVoidTransaction
	PaymentTypeNotSupportedByMerchant
	UnableToConnect
	UnableToSendLogon
	UnableToSendTrans
	InvalidLogon
	TerminalNotActivated
	TerminalGatewayMismatch
	InvalidProcessingCenter
	NoProcessorsAvailable
	DatabaseUnavailable
	SocketError
	HostNotReady

	AddressNotVerified
	TransactionPlacedInQueue
	TransactionReceivedFromBank
	ReversalPending
	ReversalComplete
	ReversalSentToBank

	FraudSuspectedAddress
	FraudSuspectedCardCheckNumber
	FraudSuspectedCountry
	FraudSuspectedCustomerReference
	FraudSuspectedEmailAddress
	FraudSuspectedIPAddress
)

// GatewayBand groups gateway codes by who has to act on them.
type GatewayBand int

const (
	GatewayBandUnknown GatewayBand = iota
	// GatewayBandNormal: the gateway processed the request.
	GatewayBandNormal
	// GatewayBandInvalidData: the request data must be corrected by the client.
	GatewayBandInvalidData
	// GatewayBandMerchantConfiguration: the merchant setup at the financial institution is wrong.
	GatewayBandMerchantConfiguration
	// GatewayBandHostConfiguration: host connectivity or merchant setup on the gateway.
	GatewayBandHostConfiguration
	// GatewayBandFinalState: the transaction reached a final or reversal state.
	GatewayBandFinalState
	// GatewayBandFraudFilter: a fraud filter rejected the transaction.
	GatewayBandFraudFilter
)

var gatewayBandNames = map[GatewayBand]string{
	GatewayBandUnknown:               "unknown",
	GatewayBandNormal:                "normal",
	GatewayBandInvalidData:           "invalid_data",
	GatewayBandMerchantConfiguration: "merchant_configuration",
	GatewayBandHostConfiguration:     "host_configuration",
	GatewayBandFinalState:            "final_state",
	GatewayBandFraudFilter:           "fraud_filter",
}

func (b GatewayBand) String() string { return gatewayBandNames[b] }

func (b GatewayBand) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

type gatewayEntry struct {
	code  string
	value GatewayResponseCode
	name  string
	band  GatewayBand
}

var gatewayEntries = []gatewayEntry{
	{"00", TransactionNormal, "transaction_normal", GatewayBandNormal},

	{"08", CVV2DataNotVerified, "cvv2_data_not_verified", GatewayBandInvalidData},
	{"22", InvalidCreditCardNumber, "invalid_credit_card_number", GatewayBandInvalidData},
	{"25", InvalidExpiryDate, "invalid_expiry_date", GatewayBandInvalidData},
	{"26", InvalidAmount, "invalid_amount", GatewayBandInvalidData},
	{"27", InvalidCardHolder, "invalid_card_holder", GatewayBandInvalidData},
	{"28", InvalidAuthorizationNo, "invalid_authorization_no", GatewayBandInvalidData},
	{"31", InvalidVerificationString, "invalid_verification_string", GatewayBandInvalidData},
	{"32", InvalidTransactionCode, "invalid_transaction_code", GatewayBandInvalidData},
	{"57", InvalidReferenceNo, "invalid_reference_no", GatewayBandInvalidData},
	{"58", InvalidAVSString, "invalid_avs_string", GatewayBandInvalidData},
	{"60", InvalidCustomerReferenceNumber, "invalid_customer_reference_number", GatewayBandInvalidData},
	{"63", InvalidDuplicate, "invalid_duplicate", GatewayBandInvalidData},
	{"64", InvalidRefund, "invalid_refund", GatewayBandInvalidData},
	{"68", RestrictedCardNumber, "restricted_card_number", GatewayBandInvalidData},
	{"69", InvalidTransactionTag, "invalid_transaction_tag", GatewayBandInvalidData},
	{"72", DataWithinTransactionIncorrect, "data_within_transaction_incorrect", GatewayBandInvalidData},
	{"93", InvalidAuthNumberOnPreAuthCompletion, "invalid_auth_number_on_pre_auth_completion", GatewayBandInvalidData},

	{"11", InvalidSequenceNo, "invalid_sequence_no", GatewayBandMerchantConfiguration},
	{"12", MessageTimedOutAtHost, "message_timed_out_at_host", GatewayBandMerchantConfiguration},
	{"21", BCEFunctionError, "bce_function_error", GatewayBandMerchantConfiguration},
	{"23", InvalidResponseFromGateway, "invalid_response_from_gateway", GatewayBandMerchantConfiguration},
	{"30", InvalidDateFromHost, "invalid_date_from_host", GatewayBandMerchantConfiguration},

	{"10", InvalidTransactionDescription, "invalid_transaction_description", GatewayBandHostConfiguration},
	{"14", InvalidGatewayID, "invalid_gateway_id", GatewayBandHostConfiguration},
	{"15", InvalidTransactionNumber, "invalid_transaction_number", GatewayBandHostConfiguration},
	{"16", ConnectionInactive, "connection_inactive", GatewayBandHostConfiguration},
	{"17", UnmatchedTransaction, "unmatched_transaction", GatewayBandHostConfiguration},
	{"18", InvalidReversalResponse, "invalid_reversal_response", GatewayBandHostConfiguration},
	{"19", UnableToSendSocketTransaction, "unable_to_send_socket_transaction", GatewayBandHostConfiguration},
	{"20", UnableToWriteTransactionToFile, "unable_to_write_transaction_to_file", GatewayBandHostConfiguration},
	{"24", UnableToVoidTransaction, "unable_to_void_transaction", GatewayBandHostConfiguration},
	{"37", PaymentTypeNotSupportedByMerchant, "payment_type_not_supported_by_merchant", GatewayBandHostConfiguration},
	{"40", UnableToConnect, "unable_to_connect", GatewayBandHostConfiguration},
	{"41", UnableToSendLogon, "unable_to_send_logon", GatewayBandHostConfiguration},
	{"42", UnableToSendTrans, "unable_to_send_trans", GatewayBandHostConfiguration},
	{"43", InvalidLogon, "invalid_logon", GatewayBandHostConfiguration},
	{"52", TerminalNotActivated, "terminal_not_activated", GatewayBandHostConfiguration},
	{"53", TerminalGatewayMismatch, "terminal_gateway_mismatch", GatewayBandHostConfiguration},
	{"54", InvalidProcessingCenter, "invalid_processing_center", GatewayBandHostConfiguration},
	{"55", NoProcessorsAvailable, "no_processors_available", GatewayBandHostConfiguration},
	{"56", DatabaseUnavailable, "database_unavailable", GatewayBandHostConfiguration},
	{"61", SocketError, "socket_error", GatewayBandHostConfiguration},
	{"62", HostNotReady, "host_not_ready", GatewayBandHostConfiguration},

	{"44", AddressNotVerified, "address_not_verified", GatewayBandFinalState},
	{"70", TransactionPlacedInQueue, "transaction_placed_in_queue", GatewayBandFinalState},
	{"73", TransactionReceivedFromBank, "transaction_received_from_bank", GatewayBandFinalState},
	{"76", ReversalPending, "reversal_pending", GatewayBandFinalState},
	{"77", ReversalComplete, "reversal_complete", GatewayBandFinalState},
	{"79", ReversalSentToBank, "reversal_sent_to_bank", GatewayBandFinalState},

	{"F1", FraudSuspectedAddress, "fraud_suspected_address", GatewayBandFraudFilter},
	{"F2", FraudSuspectedCardCheckNumber, "fraud_suspected_card_check_number", GatewayBandFraudFilter},
	{"F3", FraudSuspectedCountry, "fraud_suspected_country", GatewayBandFraudFilter},
	{"F4", FraudSuspectedCustomerReference, "fraud_suspected_customer_reference", GatewayBandFraudFilter},
	{"F5", FraudSuspectedEmailAddress, "fraud_suspected_email_address", GatewayBandFraudFilter},
	{"F6", FraudSuspectedIPAddress, "fraud_suspected_ip_address", GatewayBandFraudFilter},
}

var (
	gatewayCodes     *lookup[GatewayResponseCode]
	gatewayCodeNames = map[GatewayResponseCode]string{GatewayResponseCodeUnknown: "unknown"}
	gatewayCodeBands = map[GatewayResponseCode]GatewayBand{}
)

func init() {
	pairs := make([]pair[GatewayResponseCode], 0, len(gatewayEntries))
	for _, e := range gatewayEntries {
		pairs = append(pairs, pair[GatewayResponseCode]{e.code, e.value})
		gatewayCodeNames[e.value] = e.name
		gatewayCodeBands[e.value] = e.band
	}
	gatewayCodes = newLookup(GatewayResponseCodeUnknown, true, pairs...)
}

// ParseGatewayResponseCode maps a raw gateway_resp_code; unknown codes are not an error.
func ParseGatewayResponseCode(code string) GatewayResponseCode { return gatewayCodes.parse(code) }

// Code returns the wire code, empty for GatewayResponseCodeUnknown.
func (c GatewayResponseCode) Code() string {
	s, _ := gatewayCodes.wire(c)
	return s
}

func (c GatewayResponseCode) String() string {
	if s, ok := gatewayCodeNames[c]; ok {
		return s
	}
	return "unknown"
}

func (c GatewayResponseCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c GatewayResponseCode) Band() GatewayBand { return gatewayCodeBands[c] }
