// mock-bank is a stand-in for the bank-aggregator providers used in local
// development. It accepts any authorization code and serves canned balances.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

type exchangeRequest struct {
	Code     string `json:"code"`
	Provider string `json:"provider"`
}

type exchangeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type balanceRequest struct {
	AccountID string `json:"account_id"`
	Provider  string `json:"provider"`
}

type balanceResponse struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /exchange", handleExchange)
	mux.HandleFunc("POST /balance", handleBalance)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := ":" + port
	slog.Info("mock bank provider started", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse{
		ID:   fmt.Sprintf("%s-%s", req.Provider, uuid.New()),
		Name: accountName(req.Provider),
	})
}

func handleBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "account_id is required"})
		return
	}

	// Canned per-provider snapshots, matching the sandbox data the real
	// aggregators return for test accounts.
	switch req.Provider {
	case "mono":
		writeJSON(w, http.StatusOK, balanceResponse{Balance: 50000, Currency: "XAF"})
	case "gocardless":
		writeJSON(w, http.StatusOK, balanceResponse{Balance: 1250.50, Currency: "EUR"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown provider"})
	}
}

func accountName(provider string) string {
	switch provider {
	case "mono":
		return "Compte Courant Mono"
	case "gocardless":
		return "Compte Courant SEPA"
	default:
		return "Compte Courant"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
