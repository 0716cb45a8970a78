package http

import (
	"errors"
	"log"
	"net/http"

	"fintrack/auth"
	"fintrack/domain"
	"fintrack/service"
)

// TransactionHandler serves the income or expense collection, depending on kind.
type TransactionHandler struct {
	service *service.TransactionService
	kind    domain.TransactionKind
}

func NewTransactionHandler(service *service.TransactionService, kind domain.TransactionKind) *TransactionHandler {
	return &TransactionHandler{service: service, kind: kind}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.TransactionInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.service.Create(r.Context(), currentUser(r), h.kind, input)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), currentUser(r), h.kind)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), currentUser(r), h.kind)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.TransactionInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.service.Update(r.Context(), currentUser(r), h.kind, r.PathValue("id"), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), currentUser(r), h.kind, id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": string(h.kind) + " deleted", "id": id})
}

func (h *TransactionHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, string(h.kind)+" not found")
	default:
		log.Printf("Error handling %s request: %v", h.kind, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func currentUser(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}
