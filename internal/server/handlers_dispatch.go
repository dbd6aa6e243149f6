package server

import (
	"net/http"
	"strings"

	"github.com/ashita-ai/hospitalops/internal/ctxutil"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// HandleDispatch handles POST /v1/dispatch: a delegation made outside a chat
// turn, such as an operator lookup or an automated system check. Unknown
// tool names are dispatched anyway so the attempt is audited; tool failures
// are reported in the result, not as HTTP errors.
func (h *Handlers) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	var req model.DispatchRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "name is required")
		return
	}
	if len(req.RequestText) > model.MaxChatTextLen {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "request_text is too long")
		return
	}

	call := model.ToolRequest{Name: model.ToolName(req.Name)}
	args, err := model.DecodeArguments(req.Arguments)
	if err != nil {
		call.Malformed = err.Error()
	}
	call.Arguments = args

	result, rec := h.dispatcher.DispatchRecord(ctxutil.WithChannel(r.Context(), ctxutil.ChannelHTTP), call, req.RequestText)

	writeJSON(w, r, http.StatusOK, model.DispatchResponse{Result: result, Log: rec})
}

// HandleTools handles GET /v1/tools.
func (h *Handlers) HandleTools(w http.ResponseWriter, r *http.Request) {
	decls := h.dispatcher.Declarations()
	writeList(w, r, decls, len(decls))
}
