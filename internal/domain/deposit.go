/**
 * @description
 * This file defines the Go structs that model an inbound deposit notification
 * from the payment partner and the server-side record derived from it. These
 * structures are essential for safely unmarshaling the JSON payload received
 * at the webhook endpoint and processing it in a type-safe manner.
 *
 * @notes
 * - Amount is decoded as json.Number so that fractional values can be told
 *   apart from whole ones during validation instead of being silently
 *   truncated by a float-to-int conversion.
 * - Defaulting of the optional fields happens in one place (NewDepositRecord)
 *   so the policy stays independently testable.
 */
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownField is the placeholder substituted for optional payload fields the
// partner did not supply.
const UnknownField = "Unknown"

// StatusCompleted is the only deposit status; acceptance is immediate
// completion, there is no pending/failed lifecycle.
const StatusCompleted = "COMPLETED"

// DepositNotification represents the JSON body POSTed by the payment partner
// when a merchant receives an incoming payment.
type DepositNotification struct {
	MerchantID    string      `json:"merchantId"`
	Amount        json.Number `json:"amount"`
	TxID          string      `json:"txId"`
	AccountNumber string      `json:"accountNumber,omitempty"`
	Depositor     string      `json:"depositor,omitempty"`
	Timestamp     string      `json:"timestamp,omitempty"`
}

// ValidationOutcome classifies the result of validating a DepositNotification.
type ValidationOutcome int

const (
	ValidationOK ValidationOutcome = iota
	ValidationMissingFields
	ValidationInvalidAmount
)

// Validate checks the notification for required fields and a well-formed
// amount. The missing-field check runs before the amount-shape check: an
// absent or zero amount is reported as missing, not invalid.
func (n DepositNotification) Validate() ValidationOutcome {
	amount := strings.TrimSpace(n.Amount.String())
	if strings.TrimSpace(n.MerchantID) == "" || strings.TrimSpace(n.TxID) == "" || amount == "" || amount == "0" {
		return ValidationMissingFields
	}
	value, err := n.Amount.Int64()
	if err != nil || value <= 0 {
		// Fractional amounts fail the integer parse.
		return ValidationInvalidAmount
	}
	return ValidationOK
}

// DepositRecord is the immutable server-side record built from an accepted
// notification. It is echoed to the caller and broadcast to dashboard
// subscribers; it is not persisted beyond the in-memory replay cache.
type DepositRecord struct {
	RequestID     string `json:"requestId"`
	MerchantID    string `json:"merchantId"`
	Amount        int64  `json:"amount"`
	TxID          string `json:"txId"`
	AccountNumber string `json:"accountNumber"`
	Depositor     string `json:"depositor"`
	Timestamp     string `json:"timestamp"`
	Status        string `json:"status"`
	ProcessedAt   string `json:"processedAt"`
}

// DepositEvent is the payload broadcast to real-time subscribers after a
// notification has been accepted.
type DepositEvent struct {
	MerchantID string `json:"merchantId"`
	Amount     int64  `json:"amount"`
	TxID       string `json:"txId"`
	Timestamp  string `json:"timestamp"`
}

// NewDepositRecord builds the record for a validated notification, applying
// the field defaults in one step. The notification must already have passed
// Validate; a malformed amount is treated as zero here rather than panicking.
func NewDepositRecord(requestID string, n DepositNotification, now time.Time) DepositRecord {
	amount, _ := n.Amount.Int64()

	record := DepositRecord{
		RequestID:     requestID,
		MerchantID:    n.MerchantID,
		Amount:        amount,
		TxID:          n.TxID,
		AccountNumber: n.AccountNumber,
		Depositor:     n.Depositor,
		Timestamp:     n.Timestamp,
		Status:        StatusCompleted,
		ProcessedAt:   now.Format(time.RFC3339),
	}
	if record.AccountNumber == "" {
		record.AccountNumber = UnknownField
	}
	if record.Depositor == "" {
		record.Depositor = UnknownField
	}
	if record.Timestamp == "" {
		record.Timestamp = now.Format(time.RFC3339)
	}
	return record
}

// Event returns the broadcast payload for this record.
func (r DepositRecord) Event() DepositEvent {
	return DepositEvent{
		MerchantID: r.MerchantID,
		Amount:     r.Amount,
		TxID:       r.TxID,
		Timestamp:  r.Timestamp,
	}
}
