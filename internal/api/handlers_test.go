package api

import (
	"bufio"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Smsoft007/ezpg-sub001/internal/app"
	"github.com/Smsoft007/ezpg-sub001/internal/realtime"
	"github.com/Smsoft007/ezpg-sub001/internal/store"
)

const (
	testMKeySecret = "api-test-mkey-secret"
	testMIDSecret  = "api-test-mid-secret"
)

func signMerchant(secret, callerID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(callerID))
	return hex.EncodeToString(mac.Sum(nil))
}

type testFixture struct {
	router http.Handler
	hub    *realtime.Hub
}

func newTestFixture(t *testing.T, publisher realtime.Publisher) testFixture {
	t.Helper()

	hub := realtime.NewHub(4, zap.NewNop())
	if publisher == nil {
		publisher = hub
	}
	service := app.NewService(testMKeySecret, testMIDSecret, store.NewTxCache(100), publisher, zap.NewNop())

	registry := prometheus.NewRegistry()
	handlers := NewDepositHandlers(service, hub, zap.NewNop(), NewMetrics(registry))

	return testFixture{router: Routes(handlers, registry), hub: hub}
}

func depositRequest(t *testing.T, method, body string, withAuth bool) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, "/api/deposit", strings.NewReader(body))
	if withAuth {
		req.Header.Set("mid", "M001")
		req.Header.Set("mkey", signMerchant(testMKeySecret, "M001"))
	}
	return req
}

func TestDepositNotificationAccepted(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodPost,
		`{"merchantId":"M001","amount":10000,"txId":"TX1"}`, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp depositSuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "0000" {
		t.Fatalf("expected resultCode 0000, got %s", resp.ResultCode)
	}
	if resp.DepositInfo == nil {
		t.Fatal("expected depositInfo in the response")
	}
	if resp.DepositInfo.Status != "COMPLETED" {
		t.Fatalf("expected status COMPLETED, got %s", resp.DepositInfo.Status)
	}
	if resp.DepositInfo.AccountNumber != "Unknown" {
		t.Fatalf("expected defaulted account number, got %s", resp.DepositInfo.AccountNumber)
	}
	if resp.RequestID == "" {
		t.Fatal("expected a request id")
	}
	if !strings.HasSuffix(resp.ProcessingTime, "ms") {
		t.Fatalf("expected processingTime in milliseconds, got %q", resp.ProcessingTime)
	}
}

func TestDepositNotificationDuplicateRejected(t *testing.T) {
	fixture := newTestFixture(t, nil)
	body := `{"merchantId":"M001","amount":10000,"txId":"TX1"}`

	first := httptest.NewRecorder()
	fixture.router.ServeHTTP(first, depositRequest(t, http.MethodPost, body, true))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first delivery to succeed, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	fixture.router.ServeHTTP(second, depositRequest(t, http.MethodPost, body, true))

	if second.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate, got %d", second.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "1006" {
		t.Fatalf("expected resultCode 1006, got %s", resp.ResultCode)
	}
}

func TestDepositNotificationAuthFailure(t *testing.T) {
	fixture := newTestFixture(t, nil)

	req := depositRequest(t, http.MethodPost, `{"merchantId":"M001","amount":10000,"txId":"TX1"}`, false)
	req.Header.Set("mid", "M001")
	req.Header.Set("mkey", "definitely-wrong")

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "1002" {
		t.Fatalf("expected resultCode 1002, got %s", resp.ResultCode)
	}
}

func TestDepositNotificationMethodNotAllowed(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodGet, "", true))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "1003" {
		t.Fatalf("expected resultCode 1003, got %s", resp.ResultCode)
	}
	if resp.RequestID == "" {
		t.Fatal("expected rejected request to still carry a request id")
	}
}

func TestDepositNotificationInvalidAmount(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodPost,
		`{"merchantId":"M001","amount":3.5,"txId":"TX1"}`, true))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "1005" {
		t.Fatalf("expected resultCode 1005, got %s", resp.ResultCode)
	}
}

func TestDepositNotificationMissingFields(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodPost,
		`{"merchantId":"M001","txId":"TX1"}`, true))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "1004" {
		t.Fatalf("expected resultCode 1004, got %s", resp.ResultCode)
	}
}

func TestDepositNotificationMalformedJSON(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodPost, `{not json`, true))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp depositErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "9999" {
		t.Fatalf("expected resultCode 9999, got %s", resp.ResultCode)
	}
}

func TestDepositAcceptedEvenWhenPublishFails(t *testing.T) {
	fixture := newTestFixture(t, brokenPublisher{})

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, depositRequest(t, http.MethodPost,
		`{"merchantId":"M001","amount":10000,"txId":"TX1"}`, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite broadcast failure, got %d", rec.Code)
	}
	var resp depositSuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResultCode != "0000" {
		t.Fatalf("expected resultCode 0000, got %s", resp.ResultCode)
	}
}

func TestDepositStreamReceivesPublishedDeposit(t *testing.T) {
	fixture := newTestFixture(t, nil)

	server := httptest.NewServer(fixture.router)
	defer server.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(server.URL + "/api/deposit/events")
	if err != nil {
		t.Fatalf("failed to open event stream: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", got)
	}

	// Wait for the subscription to attach before posting the deposit.
	deadline := time.Now().Add(2 * time.Second)
	for fixture.hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fixture.hub.SubscriberCount() == 0 {
		t.Fatal("stream handler never subscribed to the hub")
	}

	post, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		server.URL+"/api/deposit", bytes.NewReader([]byte(`{"merchantId":"M001","amount":10000,"txId":"TX-STREAM"}`)))
	if err != nil {
		t.Fatalf("failed to build deposit request: %v", err)
	}
	post.Header.Set("mid", "M001")
	post.Header.Set("mkey", signMerchant(testMKeySecret, "M001"))

	postResp, err := client.Do(post)
	if err != nil {
		t.Fatalf("deposit POST failed: %v", err)
	}
	postResp.Body.Close()
	if postResp.StatusCode != http.StatusOK {
		t.Fatalf("expected deposit to be accepted, got %d", postResp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	var sawEvent bool
	for !sawEvent {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended before delivering the event: %v", err)
		}
		if strings.TrimSpace(line) == "event: deposit" {
			data, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("failed to read event data: %v", err)
			}
			if !strings.Contains(data, "TX-STREAM") {
				t.Fatalf("expected event data to carry the txId, got %q", data)
			}
			sawEvent = true
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	fixture := newTestFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health check, got %d", rec.Code)
	}
}

func TestMetricsEndpointExposesDepositCounter(t *testing.T) {
	fixture := newTestFixture(t, nil)

	post := httptest.NewRecorder()
	fixture.router.ServeHTTP(post, depositRequest(t, http.MethodPost,
		`{"merchantId":"M001","amount":10000,"txId":"TX1"}`, true))
	if post.Code != http.StatusOK {
		t.Fatalf("expected deposit to succeed, got %d", post.Code)
	}

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ezpg_deposit_notifications_total") {
		t.Fatal("expected deposit counter in metrics output")
	}
}

type brokenPublisher struct{}

func (brokenPublisher) Publish(context.Context, string, any) error {
	return errBroken
}

var errBroken = &publishError{}

type publishError struct{}

func (*publishError) Error() string { return "publisher is down" }
