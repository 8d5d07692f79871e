package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travelledger/core"
	"travelledger/native/common"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "TRAVELLEDGER_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeValidation     = -32021
	codeInvalidState   = -32022
	codeTransferFailed = -32023
)

// Server exposes the ledger operations over JSON-RPC 2.0. Mutating methods
// require the bearer token when one is configured via TRAVELLEDGER_RPC_TOKEN.
type Server struct {
	ledger    *core.Ledger
	authToken string
}

// NewServer creates an RPC server wrapping the provided ledger.
func NewServer(ledger *core.Ledger) *Server {
	return &Server{
		ledger:    ledger,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Start serves JSON-RPC requests on the given address. It blocks until the
// listener fails.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

// Handler returns the HTTP handler serving the RPC endpoint and the
// Prometheus metrics endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// RPCRequest is a single JSON-RPC 2.0 call envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	})
}

// writeLedgerError maps the ledger error taxonomy onto JSON-RPC error codes.
func writeLedgerError(w http.ResponseWriter, id json.RawMessage, err error) {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, common.ErrState):
		writeError(w, http.StatusConflict, id, codeInvalidState, err.Error(), nil)
	case errors.Is(err, common.ErrTransfer):
		writeError(w, http.StatusBadGateway, id, codeTransferFailed, err.Error(), nil)
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, id, codeValidation, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *rpcError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &rpcError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &rpcError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, fmt.Sprintf("jsonrpc must be %q", jsonRPCVersion), nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
		return
	}
	if handler.mutating {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, nil)
			return
		}
	}
	handler.fn(w, &req)
}

type methodHandler struct {
	fn       func(http.ResponseWriter, *RPCRequest)
	mutating bool
}

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"ledger_addToken":            {s.handleAddToken, true},
		"ledger_removeToken":         {s.handleRemoveToken, true},
		"ledger_addProvider":         {s.handleAddProvider, true},
		"ledger_removeProvider":      {s.handleRemoveProvider, true},
		"ledger_processPayment":      {s.handleProcessPayment, true},
		"ledger_refundPayment":       {s.handleRefundPayment, true},
		"ledger_redeemLoyaltyPoints": {s.handleRedeemLoyaltyPoints, true},
		"ledger_mintFunds":           {s.handleMintFunds, true},
		"ledger_getUserPayments":     {s.handleGetUserPayments, false},
		"ledger_getPayment":          {s.handleGetPayment, false},
		"ledger_loyaltyBalance":      {s.handleLoyaltyBalance, false},
		"ledger_tokenBalance":        {s.handleTokenBalance, false},
		"ledger_listTokens":          {s.handleListTokens, false},
		"ledger_listProviders":       {s.handleListProviders, false},
		"ledger_events":              {s.handleEvents, false},
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}
