package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voicedesk/speechadmin/internal/audit"
	"github.com/voicedesk/speechadmin/internal/conversion"
)

type ConversionHandler struct {
	svc      *conversion.Service
	auditSvc *audit.Service // optional
}

func NewConversionHandler(svc *conversion.Service, auditSvc *audit.Service) *ConversionHandler {
	return &ConversionHandler{svc: svc, auditSvc: auditSvc}
}

func (h *ConversionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req conversion.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	conv, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeConversionError(w, err)
		return
	}

	h.auditLog(r, "conversion.create", &conv.ID)
	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	conversions, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"conversions": conversions, "count": len(conversions)})
}

func (h *ConversionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversion ID"})
		return
	}

	conv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeConversionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversion ID"})
		return
	}

	var req conversion.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	conv, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeConversionError(w, err)
		return
	}

	h.auditLog(r, "conversion.update", &conv.ID)
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversion ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeConversionError(w, err)
		return
	}

	h.auditLog(r, "conversion.delete", &id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Download streams the stored audio file as an attachment.
func (h *ConversionHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversion ID"})
		return
	}

	conv, rc, size, err := h.svc.OpenAudio(r.Context(), id)
	if err != nil {
		writeConversionError(w, err)
		return
	}
	defer rc.Close()

	name := path.Base(conv.AudioPath)
	w.Header().Set("Content-Type", audioContentType(name))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

func (h *ConversionHandler) auditLog(r *http.Request, action string, resourceID *uuid.UUID) {
	if h.auditSvc == nil {
		return
	}
	entry := audit.LogEntry{
		Action:       action,
		ResourceType: "conversion",
		ResourceID:   resourceID,
		IPAddress:    r.RemoteAddr,
	}
	if err := h.auditSvc.Log(r.Context(), entry); err != nil {
		slog.Warn("audit log", "action", action, "error", err)
	}
}

func audioContentType(name string) string {
	switch path.Ext(name) {
	case ".wav":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

func writeConversionError(w http.ResponseWriter, err error) {
	var ve *conversion.ValidationError
	var se *conversion.SynthesisError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.Is(err, conversion.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "conversion not found"})
	case errors.As(err, &se):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": se.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
