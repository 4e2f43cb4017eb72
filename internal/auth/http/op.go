package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/gqlgate/internal/auth/ops"
	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/pkg/httpx"
	"github.com/aussiebroadwan/gqlgate/pkg/jwtx"
	"github.com/aussiebroadwan/gqlgate/pkg/slogx"
)

// maxBodyBytes bounds operation argument payloads.
const maxBodyBytes = 64 << 10

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// opHandler invokes one registered operation. The request body, when
// present, is the JSON argument object.
type opHandler struct {
	op       ops.Operation
	messages service.Messages
}

func (h *opHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var args json.RawMessage
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, errorBody{Message: h.messages.InvalidRequest})
			return
		}
		if len(body) > 0 {
			args = body
		}
	}

	result, err := h.op.Resolve(r.Context(), ops.Env{
		Writer:  w,
		Request: r,
		Args:    args,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dataResponse{Data: result})
}

func (h *opHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	l := slogx.FromContext(r.Context())

	// Signature failures are the one place internal detail is surfaced:
	// the violation list goes out verbatim.
	var verr *jwtx.ViolationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusUnauthorized, errorBody{
			Message:    h.messages.InvalidHeader,
			Violations: verr.Violations,
		})
		return
	}

	var sverr *store.ValidationError
	if errors.As(err, &sverr) {
		writeError(w, http.StatusUnprocessableEntity, errorBody{
			Message: sverr.Message,
			Field:   sverr.Field,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l.Error("operation failed", "op", h.op.Name, "error", err)
		writeError(w, status, errorBody{Message: h.messages.InvalidRequest})
		return
	}

	writeError(w, status, errorBody{Message: h.messages.For(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidHeader),
		errors.Is(err, service.ErrInvalidLogin),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidSchema):
		return http.StatusForbidden
	case errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidPasswordUpdate),
		errors.Is(err, service.ErrInvalidPasswordMatch),
		errors.Is(err, service.ErrInvalidUserUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	httpx.WriteJSON(w, status, errorResponse{Error: body})
}
