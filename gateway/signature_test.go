package gateway_test

import (
	"testing"

	"github.com/nexkasa/gateway-harness/gateway"
	"github.com/stretchr/testify/assert"
)

func TestSignHMAC(t *testing.T) {
	body := []byte(`{"event":"transaction.success"}`)

	t.Run("round-trip verifies", func(t *testing.T) {
		sig := gateway.SignHMAC("secret", body)

		assert.True(t, gateway.VerifyHMAC("secret", body, sig))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		sig := gateway.SignHMAC("secret", body)

		assert.False(t, gateway.VerifyHMAC("other", body, sig))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		sig := gateway.SignHMAC("secret", body)

		assert.False(t, gateway.VerifyHMAC("secret", []byte(`{"event":"x"}`), sig))
	})

	t.Run("garbage signature fails", func(t *testing.T) {
		assert.False(t, gateway.VerifyHMAC("secret", body, "not-hex"))
	})
}
