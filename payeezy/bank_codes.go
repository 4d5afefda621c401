package payeezy

// BankResponseCode is the issuing bank's standardized result (bank_resp_code).
// Several raw codes share one value; the raw code is kept on the Response.
type BankResponseCode int

const (
	BankResponseCodeUnknown BankResponseCode = iota
	BankApproved
	BankValidated
	BankVerified
	BankPreNoted
	BankNoReasonToDecline
	BankReceivedAndStored
	BankProvidedAuth
	BankRequestReceived
	BankApprovedForActivation
	BankPreviouslyProcessed
	BankBINAlert
	BankApprovedForPartial
	BankConditionalApproval
	BankInvalidCCNumber
	BankBadAmount
	BankZeroAmount
	BankOtherError
	BankBadTotalAuthAmount
	BankInvalidSKU
	BankInvalidCreditPlan
	BankInvalidStoreNumber
	BankInvalidFieldData
	BankMissingCompanionData
	BankPercentsDoNotTotal100
	BankPaymentsDoNotTotal100
	BankInvalidDivisionNumber
	BankDoesNotMatchMOP
	BankDuplicateOrderNumber
	BankAmountExceedsOriginal
	BankInvalidCurrency
	BankInvalidMOPForDivision
	BankAuthAmountForDivisionIncorrect
	BankIllegalAction
	BankInvalidPurchaseLevel3
	BankInvalidEncryptionFormat
	BankMissingSecurePaymentData
	BankMerchantNotSecureCodeEnabled
	BankCheckConversionDeclined
	BankBlanksNotPassedInReservedField
	BankInvalidMCC
	BankInvalidStartDate
	BankInvalidIssueNumber
	BankInvalidTranType
	BankMissingCustomerServicePhone
	BankNotAuthorizedToSendRecord
	BankSoftAVS
	BankAccountNotEligibleForDivision
	BankAuthCodeResponseDateInvalid
	BankPartialAuthorizationNotAllowed
	BankDuplicateDepositTransaction
	BankMissingQHPAmount
	BankInvalidQHPAmount
	BankTransactionNotSupported
	BankIssuerUnavailable
	BankCreditFloor
	BankProcessorDecline
	BankNotOnFile
	BankAlreadyReversed
	BankAmountMismatch
	BankAuthorizationNotFound
	BankTransArmorServiceUnavailable
	BankTransArmorInvalidTokenOrPAN
	BankTransArmorInvalidResult
	BankCall
	BankDefaultCall
	BankPickup
	BankLostStolen
	BankFraudSecurityViolation
	BankNegativeFile
	BankExcessivePINTry
	BankOverTheLimit
	BankOverLimitFrequency
	BankOnNegativeFile
	BankInsufficientFunds
	BankCardIsExpired
	BankAlteredData
	BankDoNotHonor
	BankCVV2VAKFailure
	BankDoNotHonorHighFraud
	BankStopPaymentOneTime
	BankRevocationOfRecurring
	BankRevocationClosedAccount
	BankAccountPreviouslyActivated
	BankUnableToVoid
	BankBlockActivationFailed
	BankIssuanceBelowMinimumAmount
	BankNoOriginalAuthorization
	BankOutstandingAuthorization
	BankActivationAmountIncorrect
	BankCVDValueFailure
	BankMaximumRedemptionLimitMet
	BankInvalidInstitutionCode
	BankInvalidInstitution
	BankInvalidExpirationDate
	BankInvalidTransactionType
	BankInvalidAmountRequested
	BankBINBlock
	BankFPOAccepted
	BankMatchFailed
	BankValidationFailed
	BankInvalidTransitRoutingNumber
	BankTransitRoutingNumberUnknown
	BankMissingName
	BankInvalidAccountType
	BankAccountClosed
	BankNoAccountOrUnableToLocate
	BankAccountHolderDeceased
	BankBeneficiaryDeceased
	BankAccountFrozen
	BankCustomerOptOut
	BankACHNonParticipant
	BankInvalidAccountNumber
	BankAuthorizationRevokedByConsumer
	BankCustomerAdvisesNotAuthorized
	BankInvalidCECPActionCode
	BankInvalidAccountNumberFormat
	BankBadAccountNumberData
	BankPositiveID
	BankRestraint
	BankInvalidSECCode
	BankInvalidPIN
	BankNoAccount
	BankInvalidMerchant
	BankUnauthorizedUser
	BankProcessUnavailable
	BankInvalidExpiration
	BankInvalidEffectiveDate
	BankSystemError
	BankCardIssuerOrSwitchInoperative
	BankTransactionDestinationNotFound
	BankSystemMalfunction
	BankCardIssuerTimedOut
	BankDuplicateTransaction
)

var bankCodeTable = []pair[BankResponseCode]{
	{"100", BankApproved},
	{"101", BankValidated},
	{"102", BankVerified},
	{"103", BankPreNoted},
	{"104", BankNoReasonToDecline},
	{"105", BankReceivedAndStored},
	{"106", BankProvidedAuth},
	{"107", BankRequestReceived},
	{"108", BankApprovedForActivation},
	{"109", BankPreviouslyProcessed},
	{"110", BankBINAlert},
	{"111", BankApprovedForPartial},
	{"164", BankConditionalApproval},

	{"201", BankInvalidCCNumber},
	{"202", BankBadAmount},
	{"203", BankZeroAmount},
	{"204", BankOtherError},
	{"205", BankBadTotalAuthAmount},
	{"218", BankInvalidSKU},
	{"219", BankInvalidCreditPlan},
	{"220", BankInvalidStoreNumber},
	{"225", BankInvalidFieldData},
	{"227", BankMissingCompanionData},
	{"229", BankPercentsDoNotTotal100},
	{"230", BankPaymentsDoNotTotal100},
	{"231", BankInvalidDivisionNumber},
	{"233", BankDoesNotMatchMOP},
	{"234", BankDuplicateOrderNumber},
	{"235", BankAmountExceedsOriginal},
	{"238", BankInvalidCurrency},
	{"239", BankInvalidMOPForDivision},
	{"240", BankAuthAmountForDivisionIncorrect},
	{"241", BankIllegalAction},
	{"243", BankInvalidPurchaseLevel3},
	{"244", BankInvalidEncryptionFormat},
	{"245", BankMissingSecurePaymentData},
	{"246", BankMerchantNotSecureCodeEnabled},
	{"247", BankCheckConversionDeclined},
	{"248", BankBlanksNotPassedInReservedField},
	{"249", BankInvalidMCC},
	{"251", BankInvalidStartDate},
	{"252", BankInvalidIssueNumber},
	{"253", BankInvalidTranType},
	{"257", BankMissingCustomerServicePhone},
	{"258", BankNotAuthorizedToSendRecord},
	{"260", BankSoftAVS},
	{"261", BankAccountNotEligibleForDivision},
	{"262", BankAuthCodeResponseDateInvalid},
	{"263", BankPartialAuthorizationNotAllowed},
	{"264", BankDuplicateDepositTransaction},
	{"265", BankMissingQHPAmount},
	{"266", BankInvalidQHPAmount},
	{"274", BankTransactionNotSupported},

	{"301", BankIssuerUnavailable},
	{"302", BankCreditFloor},
	{"303", BankProcessorDecline},
	{"304", BankNotOnFile},
	{"305", BankAlreadyReversed},
	{"306", BankAmountMismatch},
	{"307", BankAuthorizationNotFound},
	{"351", BankTransArmorServiceUnavailable},
	{"353", BankTransArmorInvalidTokenOrPAN},
	{"354", BankTransArmorInvalidResult},

	{"401", BankCall},
	{"402", BankDefaultCall},

	{"501", BankPickup},
	{"502", BankLostStolen},
	{"503", BankFraudSecurityViolation},
	{"505", BankNegativeFile},
	{"508", BankExcessivePINTry},
	{"509", BankOverTheLimit},
	{"510", BankOverLimitFrequency},
	{"519", BankOnNegativeFile},
	{"521", BankInsufficientFunds},
	{"522", BankCardIsExpired},
	{"524", BankAlteredData},
	{"530", BankDoNotHonor},
	{"531", BankCVV2VAKFailure},
	{"534", BankDoNotHonorHighFraud},
	{"570", BankStopPaymentOneTime},
	{"571", BankRevocationOfRecurring},
	{"572", BankRevocationClosedAccount},
	{"580", BankAccountPreviouslyActivated},
	{"581", BankUnableToVoid},
	{"582", BankBlockActivationFailed},
	{"583", BankBlockActivationFailed},
	{"584", BankIssuanceBelowMinimumAmount},
	{"585", BankNoOriginalAuthorization},
	{"586", BankOutstandingAuthorization},
	{"587", BankActivationAmountIncorrect},
	{"588", BankBlockActivationFailed},
	{"589", BankCVDValueFailure},
	{"590", BankMaximumRedemptionLimitMet},
	{"591", BankInvalidCCNumber},
	{"592", BankBadAmount},
	{"594", BankOtherError},
	{"595", BankBadTotalAuthAmount},

	{"602", BankInvalidInstitutionCode},
	{"603", BankInvalidInstitution},
	{"605", BankInvalidExpirationDate},
	{"606", BankInvalidTransactionType},
	{"607", BankInvalidAmountRequested},
	{"610", BankBINBlock},

	{"704", BankFPOAccepted},
	{"740", BankMatchFailed},
	{"741", BankValidationFailed},
	{"750", BankInvalidTransitRoutingNumber},
	{"751", BankTransitRoutingNumberUnknown},
	{"752", BankMissingName},
	{"753", BankInvalidAccountType},
	{"754", BankAccountClosed},
	{"755", BankNoAccountOrUnableToLocate},
	{"756", BankAccountHolderDeceased},
	{"757", BankBeneficiaryDeceased},
	{"758", BankAccountFrozen},
	{"759", BankCustomerOptOut},
	{"760", BankACHNonParticipant},
	{"763", BankInvalidAccountNumber},
	{"764", BankAuthorizationRevokedByConsumer},
	{"765", BankCustomerAdvisesNotAuthorized},
	{"766", BankInvalidCECPActionCode},
	{"767", BankInvalidAccountNumberFormat},
	{"768", BankBadAccountNumberData},

	{"802", BankPositiveID},
	{"806", BankRestraint},
	{"811", BankInvalidSECCode},
	{"813", BankInvalidPIN},
	{"825", BankNoAccount},
	{"833", BankInvalidMerchant},
	{"834", BankUnauthorizedUser},

	{"902", BankProcessUnavailable},
	{"903", BankInvalidExpiration},
	{"904", BankInvalidEffectiveDate},
	{"906", BankSystemError},
	{"907", BankCardIssuerOrSwitchInoperative},
	{"908", BankTransactionDestinationNotFound},
	{"909", BankSystemMalfunction},
	{"911", BankCardIssuerTimedOut},
	{"913", BankDuplicateTransaction},
}

var bankCodeNames = map[BankResponseCode]string{
	BankResponseCodeUnknown:            "unknown",
	BankApproved:                       "approved",
	BankValidated:                      "validated",
	BankVerified:                       "verified",
	BankPreNoted:                       "pre_noted",
	BankNoReasonToDecline:              "no_reason_to_decline",
	BankReceivedAndStored:              "received_and_stored",
	BankProvidedAuth:                   "provided_auth",
	BankRequestReceived:                "request_received",
	BankApprovedForActivation:          "approved_for_activation",
	BankPreviouslyProcessed:            "previously_processed",
	BankBINAlert:                       "bin_alert",
	BankApprovedForPartial:             "approved_for_partial",
	BankConditionalApproval:            "conditional_approval",
	BankInvalidCCNumber:                "invalid_cc_number",
	BankBadAmount:                      "bad_amount",
	BankZeroAmount:                     "zero_amount",
	BankOtherError:                     "other_error",
	BankBadTotalAuthAmount:             "bad_total_auth_amount",
	BankInvalidSKU:                     "invalid_sku",
	BankInvalidCreditPlan:              "invalid_credit_plan",
	BankInvalidStoreNumber:             "invalid_store_number",
	BankInvalidFieldData:               "invalid_field_data",
	BankMissingCompanionData:           "missing_companion_data",
	BankPercentsDoNotTotal100:          "percents_do_not_total_100",
	BankPaymentsDoNotTotal100:          "payments_do_not_total_100",
	BankInvalidDivisionNumber:          "invalid_division_number",
	BankDoesNotMatchMOP:                "does_not_match_mop",
	BankDuplicateOrderNumber:           "duplicate_order_number",
	BankAmountExceedsOriginal:          "amount_exceeds_original",
	BankInvalidCurrency:                "invalid_currency",
	BankInvalidMOPForDivision:          "invalid_mop_for_division",
	BankAuthAmountForDivisionIncorrect: "auth_amount_for_division_incorrect",
	BankIllegalAction:                  "illegal_action",
	BankInvalidPurchaseLevel3:          "invalid_purchase_level_3",
	BankInvalidEncryptionFormat:        "invalid_encryption_format",
	BankMissingSecurePaymentData:       "missing_secure_payment_data",
	BankMerchantNotSecureCodeEnabled:   "merchant_not_secure_code_enabled",
	BankCheckConversionDeclined:        "check_conversion_declined",
	BankBlanksNotPassedInReservedField: "blanks_not_passed_in_reserved_field",
	BankInvalidMCC:                     "invalid_mcc",
	BankInvalidStartDate:               "invalid_start_date",
	BankInvalidIssueNumber:             "invalid_issue_number",
	BankInvalidTranType:                "invalid_tran_type",
	BankMissingCustomerServicePhone:    "missing_customer_service_phone",
	BankNotAuthorizedToSendRecord:      "not_authorized_to_send_record",
	BankSoftAVS:                        "soft_avs",
	BankAccountNotEligibleForDivision:  "account_not_eligible_for_division",
	BankAuthCodeResponseDateInvalid:    "auth_code_response_date_invalid",
	BankPartialAuthorizationNotAllowed: "partial_authorization_not_allowed",
	BankDuplicateDepositTransaction:    "duplicate_deposit_transaction",
	BankMissingQHPAmount:               "missing_qhp_amount",
	BankInvalidQHPAmount:               "invalid_qhp_amount",
	BankTransactionNotSupported:        "transaction_not_supported",
	BankIssuerUnavailable:              "issuer_unavailable",
	BankCreditFloor:                    "credit_floor",
	BankProcessorDecline:               "processor_decline",
	BankNotOnFile:                      "not_on_file",
	BankAlreadyReversed:                "already_reversed",
	BankAmountMismatch:                 "amount_mismatch",
	BankAuthorizationNotFound:          "authorization_not_found",
	BankTransArmorServiceUnavailable:   "transarmor_service_unavailable",
	BankTransArmorInvalidTokenOrPAN:    "transarmor_invalid_token_or_pan",
	BankTransArmorInvalidResult:        "transarmor_invalid_result",
	BankCall:                           "call",
	BankDefaultCall:                    "default_call",
	BankPickup:                         "pickup",
	BankLostStolen:                     "lost_stolen",
	BankFraudSecurityViolation:         "fraud_security_violation",
	BankNegativeFile:                   "negative_file",
	BankExcessivePINTry:                "excessive_pin_try",
	BankOverTheLimit:                   "over_the_limit",
	BankOverLimitFrequency:             "over_limit_frequency",
	BankOnNegativeFile:                 "on_negative_file",
	BankInsufficientFunds:              "insufficient_funds",
	BankCardIsExpired:                  "card_is_expired",
	BankAlteredData:                    "altered_data",
	BankDoNotHonor:                     "do_not_honor",
	BankCVV2VAKFailure:                 "cvv2_vak_failure",
	BankDoNotHonorHighFraud:            "do_not_honor_high_fraud",
	BankStopPaymentOneTime:             "stop_payment_one_time",
	BankRevocationOfRecurring:          "revocation_of_recurring",
	BankRevocationClosedAccount:        "revocation_closed_account",
	BankAccountPreviouslyActivated:     "account_previously_activated",
	BankUnableToVoid:                   "unable_to_void",
	BankBlockActivationFailed:          "block_activation_failed",
	BankIssuanceBelowMinimumAmount:     "issuance_below_minimum_amount",
	BankNoOriginalAuthorization:        "no_original_authorization",
	BankOutstandingAuthorization:       "outstanding_authorization",
	BankActivationAmountIncorrect:      "activation_amount_incorrect",
	BankCVDValueFailure:                "cvd_value_failure",
	BankMaximumRedemptionLimitMet:      "maximum_redemption_limit_met",
	BankInvalidInstitutionCode:         "invalid_institution_code",
	BankInvalidInstitution:             "invalid_institution",
	BankInvalidExpirationDate:          "invalid_expiration_date",
	BankInvalidTransactionType:         "invalid_transaction_type",
	BankInvalidAmountRequested:         "invalid_amount_requested",
	BankBINBlock:                       "bin_block",
	BankFPOAccepted:                    "fpo_accepted",
	BankMatchFailed:                    "match_failed",
	BankValidationFailed:               "validation_failed",
	BankInvalidTransitRoutingNumber:    "invalid_transit_routing_number",
	BankTransitRoutingNumberUnknown:    "transit_routing_number_unknown",
	BankMissingName:                    "missing_name",
	BankInvalidAccountType:             "invalid_account_type",
	BankAccountClosed:                  "account_closed",
	BankNoAccountOrUnableToLocate:      "no_account_or_unable_to_locate",
	BankAccountHolderDeceased:          "account_holder_deceased",
	BankBeneficiaryDeceased:            "beneficiary_deceased",
	BankAccountFrozen:                  "account_frozen",
	BankCustomerOptOut:                 "customer_opt_out",
	BankACHNonParticipant:              "ach_non_participant",
	BankInvalidAccountNumber:           "invalid_account_number",
	BankAuthorizationRevokedByConsumer: "authorization_revoked_by_consumer",
	BankCustomerAdvisesNotAuthorized:   "customer_advises_not_authorized",
	BankInvalidCECPActionCode:          "invalid_cecp_action_code",
	BankInvalidAccountNumberFormat:     "invalid_account_number_format",
	BankBadAccountNumberData:           "bad_account_number_data",
	BankPositiveID:                     "positive_id",
	BankRestraint:                      "restraint",
	BankInvalidSECCode:                 "invalid_sec_code",
	BankInvalidPIN:                     "invalid_pin",
	BankNoAccount:                      "no_account",
	BankInvalidMerchant:                "invalid_merchant",
	BankUnauthorizedUser:               "unauthorized_user",
	BankProcessUnavailable:             "process_unavailable",
	BankInvalidExpiration:              "invalid_expiration",
	BankInvalidEffectiveDate:           "invalid_effective_date",
	BankSystemError:                    "system_error",
	BankCardIssuerOrSwitchInoperative:  "card_issuer_or_switch_inoperative",
	BankTransactionDestinationNotFound: "transaction_destination_not_found",
	BankSystemMalfunction:              "system_malfunction",
	BankCardIssuerTimedOut:             "card_issuer_timed_out",
	BankDuplicateTransaction:           "duplicate_transaction",
}

var bankCodes = newLookup(BankResponseCodeUnknown, false, bankCodeTable...)

// ParseBankResponseCode maps a raw bank_resp_code; unknown codes are not an error.
func ParseBankResponseCode(code string) BankResponseCode { return bankCodes.parse(code) }

// Code returns the first wire code listed for the value.
func (c BankResponseCode) Code() string {
	s, _ := bankCodes.wire(c)
	return s
}

func (c BankResponseCode) String() string {
	if s, ok := bankCodeNames[c]; ok {
		return s
	}
	return "unknown"
}

func (c BankResponseCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// BankBand groups bank codes by their leading digit.
type BankBand int

const (
	BankBandUnknown BankBand = iota
	BankBandApproved
	BankBandInvalidData
	BankBandProcessor
	BankBandReferral
	BankBandDeclined
	BankBandInvalidRequest
	BankBandVerification
	BankBandSecurity
	BankBandSystem
)

var bankBandNames = map[BankBand]string{
	BankBandUnknown:        "unknown",
	BankBandApproved:       "approved",
	BankBandInvalidData:    "invalid_data",
	BankBandProcessor:      "processor",
	BankBandReferral:       "referral",
	BankBandDeclined:       "declined",
	BankBandInvalidRequest: "invalid_request",
	BankBandVerification:   "verification",
	BankBandSecurity:       "security",
	BankBandSystem:         "system",
}

func (b BankBand) String() string { return bankBandNames[b] }

func (b BankBand) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// BankBandOf classifies a raw three digit bank code by its hundreds digit.
func BankBandOf(code string) BankBand {
	if len(code) != 3 || code[0] < '1' || code[0] > '9' {
		return BankBandUnknown
	}
	return BankBand(code[0] - '0')
}
