package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	transferjournal "multisender/contexts/client-tracking/transfer-journal"
	journalerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"
	journalhttp "multisender/contexts/client-tracking/transfer-journal/transport/http"
	batchledger "multisender/contexts/transfer-core/batch-ledger"
	ledgererrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	ledgerhttp "multisender/contexts/transfer-core/batch-ledger/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "multisender/internal/platform/httpserver/docs"
)

const defaultReceiptListLimit = 50

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ledger  batchledger.Module
	journal transferjournal.Module
}

func New(
	ledger batchledger.Module,
	journal transferjournal.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		ledger:  ledger,
		journal: journal,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/transfers", s.handleSubmitTransfer)
	s.mux.HandleFunc("GET /v1/transfers", s.handleListTransfers)
	s.mux.HandleFunc("GET /v1/transfers/{entry_id}", s.handleGetTransfer)
	s.mux.HandleFunc("DELETE /v1/transfers/{entry_id}", s.handleRemoveTransfer)

	s.mux.HandleFunc("POST /v1/ledger/batches", s.handleSubmitBatch)
	s.mux.HandleFunc("GET /v1/ledger/stats", s.handleLedgerStats)
	s.mux.HandleFunc("GET /v1/ledger/senders/{address}", s.handleSenderStats)
	s.mux.HandleFunc("GET /v1/ledger/senders/{address}/receipts", s.handleListReceipts)
	s.mux.HandleFunc("POST /v1/ledger/pause", s.handlePause)
	s.mux.HandleFunc("POST /v1/ledger/unpause", s.handleUnpause)
	s.mux.HandleFunc("POST /v1/ledger/ownership", s.handleTransferOwnership)

	s.mux.HandleFunc("GET /v1/gas/estimate", s.handleGasEstimate)
}

func (s *Server) handleSubmitTransfer(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-Caller-Address")
	if caller == "" {
		writeJournalError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}

	var req journalhttp.SubmitTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJournalError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.journal.Handler.SubmitTransferHandler(r.Context(), caller, req)
	if err != nil {
		writeJournalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.journal.Handler.ListEntriesHandler(r.Context())
	if err != nil {
		writeJournalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.journal.Handler.GetEntryHandler(r.Context(), r.PathValue("entry_id"))
	if err != nil {
		writeJournalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveTransfer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.journal.Handler.RemoveEntryHandler(r.Context(), r.PathValue("entry_id"))
	if err != nil {
		writeJournalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-Caller-Address")
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}

	var req ledgerhttp.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.SubmitBatchHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Handler.LedgerStatsHandler(r.Context()))
}

func (s *Server) handleSenderStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SenderStatsHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	limit := defaultReceiptListLimit
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed <= 0 {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	resp, err := s.ledger.Handler.ListReceiptsHandler(r.Context(), r.PathValue("address"), limit)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-Caller-Address")
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	if err := s.ledger.Handler.PauseHandler(r.Context(), caller); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerhttp.AdminActionResponse{Status: "success", Action: "pause"})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-Caller-Address")
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}
	if err := s.ledger.Handler.UnpauseHandler(r.Context(), caller); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerhttp.AdminActionResponse{Status: "success", Action: "unpause"})
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-Caller-Address")
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return
	}

	var req ledgerhttp.TransferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.ledger.Handler.TransferOwnershipHandler(r.Context(), caller, req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerhttp.AdminActionResponse{Status: "success", Action: "transfer_ownership"})
}

func (s *Server) handleGasEstimate(w http.ResponseWriter, r *http.Request) {
	countRaw := r.URL.Query().Get("recipient_count")
	count, err := strconv.Atoi(countRaw)
	if err != nil || count < 0 {
		writeLedgerError(w, http.StatusBadRequest, "invalid_recipient_count", "recipient_count must be a non-negative integer")
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Handler.GasEstimateHandler(r.Context(), count))
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrLengthMismatch):
		writeLedgerError(w, http.StatusBadRequest, "length_mismatch", err.Error())
	case errors.Is(err, ledgererrors.ErrEmptyBatch):
		writeLedgerError(w, http.StatusBadRequest, "empty_batch", err.Error())
	case errors.Is(err, ledgererrors.ErrTooManyRecipients):
		writeLedgerError(w, http.StatusBadRequest, "too_many_recipients", err.Error())
	case errors.Is(err, ledgererrors.ErrZeroAddress),
		errors.Is(err, ledgererrors.ErrInvalidAddress):
		writeLedgerError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, ledgererrors.ErrZeroAmount),
		errors.Is(err, ledgererrors.ErrInvalidAmount):
		writeLedgerError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, ledgererrors.ErrValueMismatch):
		writeLedgerError(w, http.StatusBadRequest, "value_mismatch", err.Error())
	case errors.Is(err, ledgererrors.ErrLedgerPaused):
		writeLedgerError(w, http.StatusConflict, "ledger_paused", err.Error())
	case errors.Is(err, ledgererrors.ErrReentrancyDetected):
		writeLedgerError(w, http.StatusConflict, "reentrancy_detected", err.Error())
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		writeLedgerError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadyInitialized),
		errors.Is(err, ledgererrors.ErrNotInitialized):
		writeLedgerError(w, http.StatusConflict, "initialization_conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrTransferFailed):
		writeLedgerError(w, http.StatusUnprocessableEntity, "transfer_failed", err.Error())
	case errors.Is(err, ledgererrors.ErrReceiptNotFound):
		writeLedgerError(w, http.StatusNotFound, "receipt_not_found", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJournalDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journalerrors.ErrEntryNotFound):
		writeJournalError(w, http.StatusNotFound, "entry_not_found", err.Error())
	case errors.Is(err, journalerrors.ErrEntryStillPending):
		writeJournalError(w, http.StatusConflict, "entry_still_pending", err.Error())
	case errors.Is(err, journalerrors.ErrEntryExists),
		errors.Is(err, journalerrors.ErrInvalidStatusTransition):
		writeJournalError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, journalerrors.ErrInvalidEntryInput):
		writeJournalError(w, http.StatusBadRequest, "invalid_entry_input", err.Error())
	default:
		writeJournalError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJournalError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, journalhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
