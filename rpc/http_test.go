package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"travelledger/core"
	"travelledger/native/loyalty"
	"travelledger/storage"
)

const (
	adminHex    = "0x0000000000000000000000000000000000000001"
	payerHex    = "0x0000000000000000000000000000000000000002"
	providerHex = "0x0000000000000000000000000000000000000003"
)

func mustAddr(t *testing.T, b byte) [20]byte {
	t.Helper()
	var a [20]byte
	a[19] = b
	return a
}

func baseUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), loyalty.BaseUnit())
}

func newTestServer(t *testing.T) (*httptest.Server, *core.Ledger) {
	t.Helper()
	admin := mustAddr(t, 1)
	ledger, err := core.NewLedger(storage.NewMemDB(), admin)
	require.NoError(t, err)
	require.NoError(t, ledger.AddToken(admin, "USDC"))
	require.NoError(t, ledger.AddProvider(admin, mustAddr(t, 3)))
	require.NoError(t, ledger.MintFunds(admin, mustAddr(t, 2), "USDC", baseUnits(1000)))

	srv := httptest.NewServer(NewServer(ledger).Handler())
	t.Cleanup(srv.Close)
	return srv, ledger
}

func call(t *testing.T, url, method string, params interface{}) rpcResponse {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		require.NoError(t, err)
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  rawParams,
	})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestProcessPaymentRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := call(t, srv.URL, "ledger_processPayment", processPaymentParams{
		Payer:       payerHex,
		Token:       "USDC",
		Amount:      baseUnits(100).String(),
		ServiceType: "hotel",
		Recipient:   providerHex,
	})
	require.Nil(t, resp.Error)

	var result map[string]string
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &result))
	paymentID := result["paymentId"]
	require.Len(t, paymentID, 2+64)

	payments := call(t, srv.URL, "ledger_getUserPayments", userParams{User: payerHex})
	require.Nil(t, payments.Error)
	raw, err = json.Marshal(payments.Result)
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(raw, &ids))
	require.Equal(t, []string{paymentID}, ids)

	details := call(t, srv.URL, "ledger_getPayment", paymentQueryParams{PaymentID: paymentID})
	require.Nil(t, details.Error)
	raw, err = json.Marshal(details.Result)
	require.NoError(t, err)
	var payment paymentResult
	require.NoError(t, json.Unmarshal(raw, &payment))
	require.Equal(t, "USDC", payment.Token)
	require.Equal(t, "hotel", payment.ServiceType)
	require.False(t, payment.Refunded)

	balance := call(t, srv.URL, "ledger_loyaltyBalance", userParams{User: payerHex})
	require.Nil(t, balance.Error)
	raw, err = json.Marshal(balance.Result)
	require.NoError(t, err)
	var balanceResult map[string]string
	require.NoError(t, json.Unmarshal(raw, &balanceResult))
	require.Equal(t, "100", balanceResult["balance"])
}

func TestErrorCodeMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		params   interface{}
		wantCode int
	}{
		{
			"unsupported token", "ledger_processPayment",
			processPaymentParams{Payer: payerHex, Token: "DOGE", Amount: "10", ServiceType: "hotel", Recipient: providerHex},
			codeValidation,
		},
		{
			"non-admin registry mutation", "ledger_addToken",
			tokenParams{Caller: payerHex, Token: "EURC"},
			codeUnauthorized,
		},
		{
			"unknown payment refund", "ledger_refundPayment",
			refundPaymentParams{Caller: providerHex, PaymentID: fmt.Sprintf("0x%064d", 0)},
			codeValidation,
		},
		{
			"insufficient loyalty balance", "ledger_redeemLoyaltyPoints",
			redeemParams{User: payerHex, Points: "5", Token: "USDC"},
			codeInvalidState,
		},
		{
			"malformed address", "ledger_loyaltyBalance",
			userParams{User: "0x1234"},
			codeInvalidParams,
		},
		{
			"unknown method", "ledger_unknown", nil, codeMethodNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, srv.URL, tc.method, tc.params)
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestDoubleRefundMapsToStateError(t *testing.T) {
	srv, ledger := newTestServer(t)
	id, err := ledger.ProcessPayment(mustAddr(t, 2), "USDC", baseUnits(10), "flight", mustAddr(t, 3))
	require.NoError(t, err)

	idHex := "0x" + fmt.Sprintf("%x", id[:])
	first := call(t, srv.URL, "ledger_refundPayment", refundPaymentParams{Caller: providerHex, PaymentID: idHex})
	require.Nil(t, first.Error)
	second := call(t, srv.URL, "ledger_refundPayment", refundPaymentParams{Caller: providerHex, PaymentID: idHex})
	require.NotNil(t, second.Error)
	require.Equal(t, codeInvalidState, second.Error.Code)
}

func TestBearerTokenGuardsMutations(t *testing.T) {
	admin := mustAddr(t, 1)
	ledger, err := core.NewLedger(storage.NewMemDB(), admin)
	require.NoError(t, err)

	server := NewServer(ledger)
	server.authToken = "secret"
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	// Mutating call without the bearer token is rejected before dispatch.
	resp := call(t, srv.URL, "ledger_addToken", tokenParams{Caller: adminHex, Token: "USDC"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	// Queries stay open.
	resp = call(t, srv.URL, "ledger_listTokens", nil)
	require.Nil(t, resp.Error)

	// With the token the mutation goes through.
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "ledger_addToken",
		"params":  []interface{}{tokenParams{Caller: adminHex, Token: "USDC"}},
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&decoded))
	require.Nil(t, decoded.Error)
}
