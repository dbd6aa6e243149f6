package server

import (
	"net/http"

	"github.com/ashita-ai/hospitalops/internal/ctxutil"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// HandleChat handles POST /v1/chat.
// Model failures are not HTTP errors: the turn still produces a reply that
// explains the fault, and the response is marked degraded.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	turn, err := h.orchestrator.HandleTurn(ctxutil.WithChannel(r.Context(), ctxutil.ChannelChat), req.Text)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	calls := turn.ToolCalls
	if calls == nil {
		calls = []model.ToolInvocation{}
	}
	writeJSON(w, r, http.StatusOK, model.ChatResponse{
		Message:   turn.Message,
		Reply:     turn.Reply,
		ToolCalls: calls,
		Degraded:  turn.Fault != nil,
	})
}

// HandleChatMessages handles GET /v1/chat/messages.
func (h *Handlers) HandleChatMessages(w http.ResponseWriter, r *http.Request) {
	msgs := h.orchestrator.Messages()
	writeList(w, r, msgs, len(msgs))
}
