package gateway_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nexkasa/gateway-harness/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	t.Run("loads field-match rules", func(t *testing.T) {
		path := writeRulesFile(t, `
scenarios:
  - name: fraud hold
    field: user_id
    equals: FRAUD_USER
    status: 403
    error_code: FRAUD_HOLD
    message: Transaction held for review
`)

		rules, err := gateway.LoadRules(path)

		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "fraud hold", rules[0].Name)
		assert.True(t, rules[0].Match(gateway.TransactionRequest{UserID: "FRAUD_USER"}))
		assert.False(t, rules[0].Match(gateway.TransactionRequest{UserID: "someone-else"}))
		assert.Equal(t, 403, rules[0].Fail.HTTPStatus)
	})

	t.Run("amount rules compare the wire form", func(t *testing.T) {
		path := writeRulesFile(t, `
scenarios:
  - name: teapot amount
    field: amount
    equals: "418"
    status: 418
    error_code: TEAPOT
    message: I'm a teapot
`)

		rules, err := gateway.LoadRules(path)

		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.True(t, rules[0].Match(gateway.TransactionRequest{Amount: "418"}))
		assert.True(t, rules[0].Match(gateway.TransactionRequest{Amount: float64(418)}))
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		path := writeRulesFile(t, `
scenarios:
  - name: bad
    field: nonsense
    equals: x
    status: 400
`)

		_, err := gateway.LoadRules(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown field")
	})

	t.Run("status must be an error code", func(t *testing.T) {
		path := writeRulesFile(t, `
scenarios:
  - name: bad
    field: user_id
    equals: x
    status: 200
`)

		_, err := gateway.LoadRules(path)

		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := gateway.LoadRules("/does/not/exist.yaml")
		require.Error(t, err)
	})
}

func TestPrependRules(t *testing.T) {
	ctx := context.Background()

	t.Run("loaded rules win over built-ins", func(t *testing.T) {
		sim, _, _ := newTestSimulator()
		sim.PrependRules([]gateway.Rule{{
			Name: "blocked user override",
			Match: func(req gateway.TransactionRequest) bool {
				return req.UserID == "BLOCKED_USER"
			},
			Fail: gateway.Failure{HTTPStatus: 451, ErrorCode: "LEGAL_HOLD", Message: "held"},
		}})

		resp := sim.CreateTransaction(ctx, gateway.TransactionRequest{UserID: "BLOCKED_USER"})

		assert.Equal(t, 451, resp.HTTPStatus)
		assert.Equal(t, "LEGAL_HOLD", resp.Body["error_code"])
	})
}

func TestDefaultTransactionRules(t *testing.T) {
	t.Run("evaluation order is blocked user first", func(t *testing.T) {
		rules := gateway.DefaultTransactionRules()

		require.NotEmpty(t, rules)
		assert.Equal(t, "blocked user", rules[0].Name)
		assert.Equal(t, "maintenance amount", rules[1].Name)
	})
}
