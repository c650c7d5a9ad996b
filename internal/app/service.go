/**
 * @description
 * This file contains the core business logic for processing a deposit
 * notification. The Service walks one request through authentication,
 * validation, duplicate suppression, record construction, and the real-time
 * broadcast, and returns a typed outcome the HTTP layer maps onto the wire
 * contract.
 *
 * @notes
 * - Expected failures (bad auth, bad payload, duplicate) are outcomes, not
 *   errors, so the handler can branch deterministically.
 * - A publish failure is logged and swallowed: once the txId has been
 *   recorded, the deposit counts as processed regardless of whether any
 *   dashboard client heard about it.
 */
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Smsoft007/ezpg-sub001/internal/domain"
	"github.com/Smsoft007/ezpg-sub001/internal/realtime"
	"github.com/Smsoft007/ezpg-sub001/internal/store"
	"github.com/Smsoft007/ezpg-sub001/internal/telemetry"
)

// DepositEventName is the event published to real-time subscribers for each
// accepted notification.
const DepositEventName = "deposit"

// Credentials carries the caller-supplied authentication headers.
type Credentials struct {
	MerchantKey string // mkey header: hex HMAC credential
	MerchantID  string // mid header: caller identifier
}

// Outcome is the result of processing one notification. Record is non-nil
// only for ResultSuccess.
type Outcome struct {
	Code   domain.ResultCode
	Record *domain.DepositRecord
}

// Service orchestrates deposit notification processing.
type Service struct {
	mkeySecret string
	midSecret  string
	cache      *store.TxCache
	publisher  realtime.Publisher
	logger     *zap.Logger
}

// NewService wires the processor with its collaborators. A missing shared
// secret is a configuration error: it is logged once here and every
// subsequent authentication attempt is denied.
func NewService(mkeySecret, midSecret string, cache *store.TxCache, publisher realtime.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	if mkeySecret == "" || midSecret == "" {
		logger.Error("merchant secrets are not configured; all deposit notifications will be rejected",
			telemetry.Category(telemetry.CategorySystem))
	}
	return &Service{
		mkeySecret: mkeySecret,
		midSecret:  midSecret,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
	}
}

// ProcessDeposit runs one notification through the processing pipeline and
// returns the outcome to surface to the caller.
func (s *Service) ProcessDeposit(ctx context.Context, requestID string, creds Credentials, notif domain.DepositNotification) Outcome {
	if !s.authenticate(creds) {
		s.logger.Warn("deposit notification failed authentication",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.String("mid", creds.MerchantID),
			zap.String("mkey", creds.MerchantKey))
		return Outcome{Code: domain.ResultAuthFailed}
	}

	switch notif.Validate() {
	case domain.ValidationMissingFields:
		s.logger.Warn("deposit notification missing required fields",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.String("merchant_id", notif.MerchantID),
			zap.String("tx_id", notif.TxID))
		return Outcome{Code: domain.ResultInvalidParams}
	case domain.ValidationInvalidAmount:
		return Outcome{Code: domain.ResultInvalidAmount}
	}

	if !s.cache.Remember(notif.TxID) {
		s.logger.Warn("duplicate deposit notification rejected",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.String("tx_id", notif.TxID))
		return Outcome{Code: domain.ResultDuplicateTx}
	}

	record := domain.NewDepositRecord(requestID, notif, time.Now())

	if err := s.publisher.Publish(ctx, DepositEventName, record.Event()); err != nil {
		// The deposit is already accepted; the broadcast is best-effort.
		s.logger.Error("failed to publish deposit event",
			telemetry.Category(telemetry.CategoryRealtime),
			zap.String("request_id", requestID),
			zap.String("tx_id", record.TxID),
			zap.Error(err))
	}

	return Outcome{Code: domain.ResultSuccess, Record: &record}
}

// authenticate checks the caller credentials against the configured secrets.
// Missing secrets fail closed.
func (s *Service) authenticate(creds Credentials) bool {
	if s.mkeySecret == "" || s.midSecret == "" {
		return false
	}
	return domain.VerifyMerchantKey(s.mkeySecret, creds.MerchantID, creds.MerchantKey)
}
