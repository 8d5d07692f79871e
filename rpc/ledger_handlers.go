package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"travelledger/native/payments"
)

type tokenParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
}

type providerParams struct {
	Caller   string `json:"caller"`
	Provider string `json:"provider"`
}

type processPaymentParams struct {
	Payer       string `json:"payer"`
	Token       string `json:"token"`
	Amount      string `json:"amount"`
	ServiceType string `json:"serviceType"`
	Recipient   string `json:"recipient"`
}

type refundPaymentParams struct {
	Caller    string `json:"caller"`
	PaymentID string `json:"paymentId"`
}

type redeemParams struct {
	User   string `json:"user"`
	Points string `json:"points"`
	Token  string `json:"token"`
}

type mintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type userParams struct {
	User string `json:"user"`
}

type paymentQueryParams struct {
	PaymentID string `json:"paymentId"`
}

type balanceParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

type paymentResult struct {
	ID          string `json:"id"`
	Payer       string `json:"payer"`
	Recipient   string `json:"recipient"`
	Token       string `json:"token"`
	Amount      string `json:"amount"`
	ServiceType string `json:"serviceType"`
	CreatedAt   int64  `json:"createdAt"`
	Refunded    bool   `json:"refunded"`
}

type redeemResult struct {
	TokenAmount string `json:"tokenAmount"`
}

func decodeAddr(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid address %q", value)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("address %q must be 20 bytes", value)
	}
	copy(out[:], raw)
	return out, nil
}

func decodePaymentID(value string) (payments.PaymentID, error) {
	var out payments.PaymentID
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("invalid payment id %q", value)
	}
	copy(out[:], raw)
	return out, nil
}

func decodeAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	return amount, nil
}

func encodeAddr(addr [20]byte) string { return "0x" + hex.EncodeToString(addr[:]) }

func encodePaymentID(id payments.PaymentID) string { return "0x" + hex.EncodeToString(id[:]) }

func paymentToResult(p *payments.Payment) paymentResult {
	return paymentResult{
		ID:          encodePaymentID(p.ID),
		Payer:       encodeAddr(p.Payer),
		Recipient:   encodeAddr(p.Recipient),
		Token:       p.Token,
		Amount:      p.Amount.String(),
		ServiceType: p.ServiceType,
		CreatedAt:   p.CreatedAt,
		Refunded:    p.Refunded,
	}
}

func (s *Server) handleAddToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.AddToken(caller, params.Token); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRemoveToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.RemoveToken(caller, params.Token); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleAddProvider(w http.ResponseWriter, req *RPCRequest) {
	var params providerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	provider, err := decodeAddr(params.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.AddProvider(caller, provider); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRemoveProvider(w http.ResponseWriter, req *RPCRequest) {
	var params providerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	provider, err := decodeAddr(params.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.RemoveProvider(caller, provider); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, req *RPCRequest) {
	var params processPaymentParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payer, err := decodeAddr(params.Payer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	recipient, err := decodeAddr(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := decodeAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.ledger.ProcessPayment(payer, params.Token, amount, params.ServiceType, recipient)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"paymentId": encodePaymentID(id)})
}

func (s *Server) handleRefundPayment(w http.ResponseWriter, req *RPCRequest) {
	var params refundPaymentParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := decodePaymentID(params.PaymentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.RefundPayment(id, caller); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleRedeemLoyaltyPoints(w http.ResponseWriter, req *RPCRequest) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := decodeAddr(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	points, err := decodeAmount(params.Points)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenAmount, err := s.ledger.RedeemLoyaltyPoints(user, points, params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, redeemResult{TokenAmount: tokenAmount.String()})
}

func (s *Server) handleMintFunds(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAddr(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := decodeAddr(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := decodeAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.MintFunds(caller, to, params.Token, amount); err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleGetUserPayments(w http.ResponseWriter, req *RPCRequest) {
	var params userParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := decodeAddr(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ids, err := s.ledger.GetUserPayments(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = encodePaymentID(id)
	}
	writeResult(w, req.ID, encoded)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, req *RPCRequest) {
	var params paymentQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := decodePaymentID(params.PaymentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payment, ok := s.ledger.GetPayment(id)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeValidation, "payment not found", nil)
		return
	}
	writeResult(w, req.ID, paymentToResult(payment))
}

func (s *Server) handleLoyaltyBalance(w http.ResponseWriter, req *RPCRequest) {
	var params userParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	user, err := decodeAddr(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.ledger.LoyaltyBalance(user)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := decodeAddr(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.ledger.TokenBalance(addr, params.Token)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleListTokens(w http.ResponseWriter, req *RPCRequest) {
	tokens, err := s.ledger.ListTokens()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokens)
}

func (s *Server) handleListProviders(w http.ResponseWriter, req *RPCRequest) {
	providers, err := s.ledger.ListProviders()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	encoded := make([]string, len(providers))
	for i, p := range providers {
		encoded[i] = encodeAddr(p)
	}
	writeResult(w, req.ID, encoded)
}

func (s *Server) handleEvents(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.ledger.Events())
}
