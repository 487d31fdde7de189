package chi

import (
	"encoding/json"
	"net/http"

	"github.com/nexkasa/gateway-harness/gateway"
)

/* Mock gateway handlers. Scenario failures are structured responses with
 * both a transport status and a status/error_code body, so dashboard and
 * programmatic callers can each use the channel they prefer
 */

// eligibleAccount handles POST /api/get-eligible-account
func eligibleAccount(sim *gateway.Simulator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.AccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "failed",
				"message": "invalid JSON body",
			})
			return
		}

		resp := sim.EligibleAccount(r.Context(), req)
		writeJSON(w, resp.HTTPStatus, resp.Body)
	})
}

// createTransaction handles POST /api/create-transaction
func createTransaction(sim *gateway.Simulator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "failed",
				"message": "invalid JSON body",
			})
			return
		}

		resp := sim.CreateTransaction(r.Context(), req)
		writeJSON(w, resp.HTTPStatus, resp.Body)
	})
}

// withdrawRequest handles POST /api/public/withdraw-request
func withdrawRequest(sim *gateway.Simulator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.WithdrawalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "failed",
				"message": "invalid JSON body",
			})
			return
		}

		resp := sim.Withdraw(r.Context(), req)
		writeJSON(w, resp.HTTPStatus, resp.Body)
	})
}
