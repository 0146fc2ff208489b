package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/models"
	"chargeroute/backend/services/optimizer-service/internal/service"
)

const maxBodyBytes = 1 << 20

// Optimizer runs the full station pipeline.
type Optimizer interface {
	Optimize(ctx context.Context, req service.OptimizeRequest) (*models.Envelope, error)
}

// OptimizeHandler exposes the optimizer over HTTP.
type OptimizeHandler struct {
	optimizer Optimizer
	logger    *zap.Logger
}

// NewOptimizeHandler returns handler.
func NewOptimizeHandler(optimizer Optimizer, logger *zap.Logger) *OptimizeHandler {
	return &OptimizeHandler{optimizer: optimizer, logger: logger}
}

// Optimize handles POST /api/postocompleto.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeRequest(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	env, err := h.optimizer.Optimize(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// DecodeRequest reads an optimize request. A missing, unparseable or empty JSON object is
// ErrNoData; a field of the wrong type is ErrInvalidBody.
func DecodeRequest(body io.Reader) (service.OptimizeRequest, error) {
	var req service.OptimizeRequest

	data, err := io.ReadAll(body)
	if err != nil {
		return req, service.NewError(service.ErrNoData, err)
	}
	data = bytes.TrimSpace(data)

	var fields map[string]json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &fields) != nil || len(fields) == 0 {
		return req, service.NewError(service.ErrNoData, nil)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, service.NewError(service.ErrInvalidBody, err)
	}
	return req, nil
}

func (h *OptimizeHandler) writeFailure(w http.ResponseWriter, err error) {
	var oe *service.OptimizeError
	if !errors.As(err, &oe) {
		h.logger.Error("optimize failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, service.ErrInternal.Error())
		return
	}

	msg := oe.Message
	switch oe.Kind {
	case service.KindValidation, service.KindInvalidBody:
		msg = oe.Error()
	}
	writeJSON(w, oe.Status, models.ErrorEnvelope{Error: msg, Code: oe.Code})
}
