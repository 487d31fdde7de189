package gateway_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/nexkasa/gateway-harness/gateway"
	"github.com/nexkasa/gateway-harness/webhooklog"
	"github.com/nexkasa/gateway-harness/webhooklog/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDeliverer records outbound callback deliveries and signals each one
type captureDeliverer struct {
	mu     sync.Mutex
	urls   []string
	events []map[string]any
	done   chan struct{}
}

func newCaptureDeliverer() *captureDeliverer {
	return &captureDeliverer{done: make(chan struct{}, 16)}
}

func (d *captureDeliverer) Deliver(ctx context.Context, url string, event map[string]any) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.events = append(d.events, event)
	d.mu.Unlock()
	d.done <- struct{}{}
	return nil
}

func (d *captureDeliverer) wait(t *testing.T) (string, map[string]any) {
	t.Helper()
	select {
	case <-d.done:
	case <-time.After(3 * time.Second):
		t.Fatal("callback delivery never happened")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.urls[len(d.urls)-1], d.events[len(d.events)-1]
}

func newTestSimulator() (*gateway.Simulator, *webhooklog.Service, *captureDeliverer) {
	logs := webhooklog.NewService(memory.NewRepository())
	deliverer := newCaptureDeliverer()
	dispatcher := gateway.NewDispatcher(logs, deliverer, nil, nil)
	return gateway.NewSimulator(dispatcher), logs, deliverer
}

func TestEligibleAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("always succeeds with a fresh process token", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.EligibleAccount(ctx, gateway.AccountRequest{Amount: "100"})

		assert.Equal(t, 200, resp.HTTPStatus)
		assert.Equal(t, "success", resp.Body["status"])
		token, ok := resp.Body["process_token"].(string)
		require.True(t, ok)
		assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{4}-\d{4}$`), token)
		assert.NotNil(t, resp.Body["account"])
	})

	t.Run("tokens differ between calls", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		first := sim.EligibleAccount(ctx, gateway.AccountRequest{})
		second := sim.EligibleAccount(ctx, gateway.AccountRequest{})

		assert.NotEqual(t, first.Body["process_token"], second.Body["process_token"])
	})
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("valid request succeeds", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "user-1",
			Amount: "250",
		})

		assert.Equal(t, 200, resp.HTTPStatus)
		assert.Equal(t, "success", resp.Body["status"])
		assert.Equal(t, "direct", resp.Body["process_type"])
		assert.Equal(t, "250", resp.Body["amount"])
		assert.Equal(t, "TEST USER", resp.Body["full_name"])
		assert.Contains(t, resp.Body["payment_page_url"], "https://pay.nexkasa.test/checkout/")
	})

	t.Run("process token switches to token_based", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			ProcessToken: "1111-2222-3333",
		})

		assert.Equal(t, 200, resp.HTTPStatus)
		assert.Equal(t, "token_based", resp.Body["process_type"])
	})

	t.Run("full name is echoed uppercased", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID:   "user-1",
			Amount:   "50",
			FullName: "jane doe",
		})

		assert.Equal(t, "JANE DOE", resp.Body["full_name"])
	})

	t.Run("blocked user fails with 403", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "BLOCKED_USER",
			Amount: "100",
		})

		assert.Equal(t, 403, resp.HTTPStatus)
		assert.Equal(t, "failed", resp.Body["status"])
		assert.Equal(t, "USER_BANNED", resp.Body["error_code"])
	})

	t.Run("blocked user wins over the maintenance amount", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "BLOCKED_USER",
			Amount: "503",
		})

		assert.Equal(t, 403, resp.HTTPStatus)
		assert.Equal(t, "USER_BANNED", resp.Body["error_code"])
	})

	t.Run("string amount 503 stages the outage", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "user-1",
			Amount: "503",
		})

		assert.Equal(t, 503, resp.HTTPStatus)
		assert.Equal(t, "failed", resp.Body["status"])
	})

	t.Run("numeric 503 is a normal amount", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "user-1",
			Amount: float64(503),
		})

		assert.Equal(t, 200, resp.HTTPStatus)
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		for _, amount := range []any{"-5", "0", float64(-5), float64(0)} {
			resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
				UserID: "user-1",
				Amount: amount,
			})

			assert.Equal(t, 400, resp.HTTPStatus, "amount %v", amount)
			assert.Equal(t, "INVALID_AMOUNT", resp.Body["error_code"], "amount %v", amount)
		}
	})

	t.Run("missing both token and amount/user pair", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			Amount: "100",
		})

		assert.Equal(t, 400, resp.HTTPStatus)
		assert.Equal(t, "MISSING_FIELDS", resp.Body["error_code"])
	})

	t.Run("success records exactly one log entry without a callback URL", func(t *testing.T) {
		sim, logs, _ := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID: "user-1",
			Amount: "100",
		})
		require.Equal(t, 200, resp.HTTPStatus)

		entries, err := logs.ListRecent(ctx, 20)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, gateway.SenderSimulation, entries[0].Sender)
		assert.Equal(t, gateway.EventTransactionSuccess, entries[0].Body["event"])
	})

	t.Run("success with a callback URL records one entry and delivers", func(t *testing.T) {
		sim, logs, deliverer := newTestSimulator()

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID:      "user-1",
			Amount:      "100",
			ExternalID:  "ext-42",
			CallbackURL: "https://merchant.example/hook",
		})
		require.Equal(t, 200, resp.HTTPStatus)

		url, event := deliverer.wait(t)
		assert.Equal(t, "https://merchant.example/hook", url)
		assert.Equal(t, gateway.EventTransactionSuccess, event["event"])
		assert.Equal(t, "ext-42", event["external_id"])
		assert.Equal(t, "100", event["amount"])
		assert.Equal(t, "TRY", event["currency"])
		assert.Equal(t, "APPROVED", event["status"])

		entries, err := logs.ListRecent(ctx, 20)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("failure does not log or deliver", func(t *testing.T) {
		sim, logs, deliverer := newTestSimulator()

		sim.CreateTransaction(ctx, gateway.TransactionRequest{
			UserID:      "BLOCKED_USER",
			CallbackURL: "https://merchant.example/hook",
		})

		entries, err := logs.ListRecent(ctx, 20)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, deliverer.done)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("requires customer_iban and amount", func(t *testing.T) {
		sim, _, _ := newTestSimulator()

		for _, req := range []gateway.WithdrawalRequest{
			{Amount: "100"},
			{CustomerIBAN: "TR330006100519786457841326"},
			{},
		} {
			resp := sim.Withdraw(ctx, req)
			assert.Equal(t, 400, resp.HTTPStatus)
			assert.Equal(t, "failed", resp.Body["status"])
		}
	})

	t.Run("success returns a withdrawal id and records the event", func(t *testing.T) {
		sim, logs, _ := newTestSimulator()

		resp := sim.Withdraw(ctx, gateway.WithdrawalRequest{
			CustomerIBAN: "TR330006100519786457841326",
			Amount:       "100",
		})

		require.Equal(t, 200, resp.HTTPStatus)
		assert.Equal(t, "success", resp.Body["status"])
		assert.Regexp(t, regexp.MustCompile(`^WD-\d{8}$`), resp.Body["transaction_id"])

		entries, err := logs.ListRecent(ctx, 20)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, gateway.EventWithdrawalStatus, entries[0].Body["event"])
		assert.Equal(t, "PAID", entries[0].Body["status"])
	})
}
