package web

import (
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/state"
	"github.com/elys-network/lstvault/internal/types"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorCode uint32          `json:"error_code"`
	Codespace string          `json:"codespace,omitempty"`
	Kind      types.ErrorKind `json:"kind,omitempty"`
	Message   string          `json:"message"`
}

var statusByKind = map[types.ErrorKind]int{
	types.KindValidation:   http.StatusBadRequest,
	types.KindTiming:       http.StatusConflict,
	types.KindNotFound:     http.StatusNotFound,
	types.KindUnauthorized: http.StatusForbidden,
}

// classify maps err to a status code and response body.
func classify(err error) (int, ErrorResponse) {
	kind := types.KindOf(err)
	switch {
	case errors.Is(err, engine.ErrUnknownContract):
		kind = types.KindNotFound
	case errors.Is(err, engine.ErrUnsupportedMsg), errors.Is(err, engine.ErrNotInstantiable):
		kind = types.KindValidation
	case errors.Is(err, state.ErrNoDeployment):
		kind = types.KindNotFound
	}

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	resp := ErrorResponse{ErrorCode: code, Codespace: codespace, Kind: kind, Message: err.Error()}
	if kind == types.KindInternal {
		resp.Message = "Internal service error"
	}
	return status, resp
}

func (ws *WebServer) writeError(w http.ResponseWriter, err error) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		webLogger.Error().Err(err).Int("status", status).Msg("Request failed with 5xx error")
	}
	ws.writeErrorResponse(w, status, resp)
}

func (ws *WebServer) writeBadRequest(w http.ResponseWriter, message string) {
	ws.writeErrorResponse(w, http.StatusBadRequest, ErrorResponse{ErrorCode: 1, Kind: types.KindValidation, Message: message})
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	ws.writeJSONResponse(w, statusCode, resp)
}
