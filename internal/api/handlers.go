/**
 * @description
 * This file contains the HTTP handler for the inbound deposit-notification
 * webhook. It is the primary entry point for partner callbacks: every request
 * gets a fresh request id, is audit-logged, and is walked through the deposit
 * processor, whose typed outcome is mapped onto the stable result-code wire
 * contract.
 *
 * @dependencies
 * - github.com/google/uuid: Request id generation.
 * - go.uber.org/zap: Structured audit logging.
 * - The service's internal packages for processing and domain models.
 */
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Smsoft007/ezpg-sub001/internal/app"
	"github.com/Smsoft007/ezpg-sub001/internal/domain"
	"github.com/Smsoft007/ezpg-sub001/internal/realtime"
	"github.com/Smsoft007/ezpg-sub001/internal/telemetry"
)

// DepositHandlers holds the collaborators the webhook and stream endpoints
// use.
type DepositHandlers struct {
	service *app.Service
	hub     *realtime.Hub
	logger  *zap.Logger
	metrics *Metrics
}

// NewDepositHandlers creates a new instance of DepositHandlers.
func NewDepositHandlers(service *app.Service, hub *realtime.Hub, logger *zap.Logger, metrics *Metrics) *DepositHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositHandlers{service: service, hub: hub, logger: logger, metrics: metrics}
}

// depositSuccessResponse mirrors the body existing partner integrations
// expect on acceptance.
type depositSuccessResponse struct {
	ResultCode     string                `json:"resultCode"`
	ResultMsg      string                `json:"resultMsg"`
	DepositInfo    *domain.DepositRecord `json:"depositInfo"`
	RequestID      string                `json:"requestId"`
	ProcessingTime string                `json:"processingTime"`
}

type depositErrorResponse struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
	RequestID  string `json:"requestId"`
}

func newRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// DepositNotificationHandler handles POST /api/deposit. Any other method on
// the route is rejected with 405 but still audited under a fresh request id.
func (h *DepositHandlers) DepositNotificationHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := newRequestID()

	// The caller must never see a raw panic; map it onto the generic server
	// error while keeping the detail server-side.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic while processing deposit notification",
				telemetry.Category(telemetry.CategoryInboundAPI),
				zap.String("request_id", requestID),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			h.writeOutcome(w, domain.ResultServerError, nil, requestID, start)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read deposit notification body",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.Error(err))
		h.writeOutcome(w, domain.ResultServerError, nil, requestID, start)
		return
	}

	h.logger.Info("deposit notification received",
		telemetry.Category(telemetry.CategoryInboundAPI),
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("url", r.URL.String()),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("mid", r.Header.Get("mid")),
		zap.ByteString("body", body))

	if r.Method != http.MethodPost {
		h.writeOutcome(w, domain.ResultMethodNotAllowed, nil, requestID, start)
		return
	}

	var notif domain.DepositNotification
	if err := json.Unmarshal(body, &notif); err != nil {
		h.logger.Error("failed to decode deposit notification",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.Error(err))
		h.writeOutcome(w, domain.ResultServerError, nil, requestID, start)
		return
	}

	creds := app.Credentials{
		MerchantKey: r.Header.Get("mkey"),
		MerchantID:  r.Header.Get("mid"),
	}
	outcome := h.service.ProcessDeposit(r.Context(), requestID, creds, notif)

	h.writeOutcome(w, outcome.Code, outcome.Record, requestID, start)
}

func (h *DepositHandlers) writeOutcome(w http.ResponseWriter, code domain.ResultCode, record *domain.DepositRecord, requestID string, start time.Time) {
	elapsed := time.Since(start)
	h.metrics.observe(string(code), elapsed.Seconds())

	if code == domain.ResultSuccess {
		h.logger.Info("deposit notification processed",
			telemetry.Category(telemetry.CategoryInboundAPI),
			zap.String("request_id", requestID),
			zap.String("tx_id", record.TxID),
			zap.String("merchant_id", record.MerchantID),
			zap.Int64("amount", record.Amount),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()))

		h.writeJSON(w, code.HTTPStatus(), depositSuccessResponse{
			ResultCode:     string(code),
			ResultMsg:      code.Message(),
			DepositInfo:    record,
			RequestID:      requestID,
			ProcessingTime: fmt.Sprintf("%dms", elapsed.Milliseconds()),
		})
		return
	}

	h.writeJSON(w, code.HTTPStatus(), depositErrorResponse{
		ResultCode: string(code),
		ResultMsg:  code.Message(),
		RequestID:  requestID,
	})
}

func (h *DepositHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write response",
			telemetry.Category(telemetry.CategorySystem),
			zap.Error(err))
	}
}
