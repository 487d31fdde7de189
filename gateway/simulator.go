package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

/* Simulator emulates the provider's account-lookup, transaction-creation
 * and withdrawal APIs. Failure paths are staged through the scenario
 * rules; success paths fire a callback through the Dispatcher
 */

// Currency and status constants echoed in callback events.
const (
	callbackCurrency = "TRY"

	EventTransactionSuccess = "transaction.success"
	EventWithdrawalStatus   = "withdrawal.status"
)

// callbackTimestamp is the fixed timestamp stamped on every simulated
// event, so captured payloads are byte-stable across runs.
const callbackTimestamp = "2024-01-01T12:00:00Z"

// WithdrawalDelay is how long the withdrawal callback waits before
// delivery, to distinguish it from the immediate transaction callback.
const WithdrawalDelay = 2 * time.Second

// Response is a generic simulator response plus the HTTP status the
// handler should use. Programmatic callers rely on the Status field, the
// dashboard on the transport code.
type Response struct {
	HTTPStatus int
	Body       map[string]any
}

// AccountRequest is the decoded get-eligible-account body.
type AccountRequest struct {
	Amount any `json:"amount"`
}

// WithdrawalRequest is the decoded withdraw-request body.
type WithdrawalRequest struct {
	CustomerIBAN string `json:"customer_iban"`
	Amount       any    `json:"amount"`
	ExternalID   string `json:"external_id"`
	CallbackURL  string `json:"callback_url"`
}

type Simulator struct {
	Dispatcher *Dispatcher
	Rules      []Rule
}

// NewSimulator creates a simulator with the built-in scenario rules
func NewSimulator(dispatcher *Dispatcher) *Simulator {
	return &Simulator{
		Dispatcher: dispatcher,
		Rules:      DefaultTransactionRules(),
	}
}

// PrependRules puts extra rules ahead of the built-in ones so staged
// scenarios win over the defaults.
func (s *Simulator) PrependRules(rules []Rule) {
	s.Rules = append(append([]Rule{}, rules...), s.Rules...)
}

// EligibleAccount always succeeds: it hands out a fresh process token and
// the fixed test bank account.
func (s *Simulator) EligibleAccount(ctx context.Context, req AccountRequest) Response {
	return Response{
		HTTPStatus: 200,
		Body: map[string]any{
			"status":        "success",
			"process_token": newProcessToken(),
			"account": map[string]any{
				"bank_name":      "NexKasa Test Bank",
				"account_holder": "NEXKASA TEST",
				"iban":           "TR330006100519786457841326",
			},
		},
	}
}

// CreateTransaction runs the scenario rules in order, first match wins;
// an unmatched request succeeds and fires the transaction callback.
func (s *Simulator) CreateTransaction(ctx context.Context, req TransactionRequest) Response {
	for _, rule := range s.Rules {
		if rule.Match(req) {
			return failureResponse(rule.Fail)
		}
	}

	processType := "direct"
	if req.ProcessToken != "" {
		processType = "token_based"
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = "TEST USER"
	}

	transactionID := fmt.Sprintf("TXN-%s", newReference(8))

	s.Dispatcher.Dispatch(ctx, map[string]any{
		"event":          EventTransactionSuccess,
		"transaction_id": transactionID,
		"external_id":    req.ExternalID,
		"amount":         req.amountString(),
		"currency":       callbackCurrency,
		"status":         "APPROVED",
		"timestamp":      callbackTimestamp,
	}, req.CallbackURL, 0)

	return Response{
		HTTPStatus: 200,
		Body: map[string]any{
			"status":           "success",
			"transaction_id":   transactionID,
			"process_type":     processType,
			"amount":           req.amountString(),
			"external_id":      req.ExternalID,
			"full_name":        strings.ToUpper(fullName),
			"payment_page_url": fmt.Sprintf("https://pay.nexkasa.test/checkout/%s", newReference(6)),
		},
	}
}

// Withdraw validates the request and on success fires the withdrawal
// callback after WithdrawalDelay.
func (s *Simulator) Withdraw(ctx context.Context, req WithdrawalRequest) Response {
	amount := TransactionRequest{Amount: req.Amount}.amountString()
	if req.CustomerIBAN == "" || amount == "" {
		return Response{
			HTTPStatus: 400,
			Body: map[string]any{
				"status":  "failed",
				"message": "customer_iban and amount are required",
			},
		}
	}

	transactionID := fmt.Sprintf("WD-%s", newReference(8))

	s.Dispatcher.Dispatch(ctx, map[string]any{
		"event":          EventWithdrawalStatus,
		"transaction_id": transactionID,
		"external_id":    req.ExternalID,
		"amount":         amount,
		"status":         "PAID",
		"timestamp":      callbackTimestamp,
	}, req.CallbackURL, WithdrawalDelay)

	return Response{
		HTTPStatus: 200,
		Body: map[string]any{
			"status":         "success",
			"transaction_id": transactionID,
		},
	}
}

func failureResponse(fail Failure) Response {
	return Response{
		HTTPStatus: fail.HTTPStatus,
		Body: map[string]any{
			"status":     "failed",
			"error_code": fail.ErrorCode,
			"message":    fail.Message,
		},
	}
}

// newProcessToken builds three groups of four digits, hyphen-joined.
func newProcessToken() string {
	return fmt.Sprintf("%s-%s-%s", newReference(4), newReference(4), newReference(4))
}

func newReference(digits int) string {
	var b strings.Builder
	for range digits {
		fmt.Fprintf(&b, "%d", rand.IntN(10))
	}
	return b.String()
}
