package relay

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"avm_wallet/internal/model"
	"avm_wallet/internal/utils/log"
)

// Approval UI endpoints. The popup process lists pending events and
// resumes one by id with either an unlock credential or a dismissal.

type (
	approveBody struct {
		Password  string   `json:"password"`
		Addresses []string `json:"addresses,omitempty"`
	}

	decisionReply struct {
		Delivered bool   `json:"delivered"`
		Error     string `json:"error,omitempty"`
	}

	createAccountBody struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
)

func (s *Server) HandleListEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := s.background.PendingEvents(r.Context())
		if err != nil {
			log.Error("list pending events failed", zap.Error(err))
			http.Error(w, "list pending events failed", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []*model.Event{}
		}

		writeJSON(w, http.StatusOK, events)
	}
}

func (s *Server) HandleApprove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["id"]

		var body approveBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed approval body", http.StatusBadRequest)
			return
		}

		result, err := s.background.Approve(r.Context(), eventID, []byte(body.Password), body.Addresses)
		if err != nil {
			log.Error("approve failed", zap.String("eventId", eventID), zap.Error(err))
			http.Error(w, "no such pending event", http.StatusNotFound)
			return
		}

		if result.Pending {
			// Wrong credential; the event stays pending so the UI can
			// re-prompt. The page is not told.
			writeJSON(w, http.StatusUnauthorized, decisionReply{Error: "invalid unlock credential"})
			return
		}

		delivered := s.Deliver(result.Event.OriginTabID, result.Response)
		writeJSON(w, http.StatusOK, decisionReply{Delivered: delivered})
	}
}

func (s *Server) HandleCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := mux.Vars(r)["id"]

		result, err := s.background.Cancel(r.Context(), eventID)
		if err != nil {
			log.Error("cancel failed", zap.String("eventId", eventID), zap.Error(err))
			http.Error(w, "no such pending event", http.StatusNotFound)
			return
		}

		delivered := s.Deliver(result.Event.OriginTabID, result.Response)
		writeJSON(w, http.StatusOK, decisionReply{Delivered: delivered})
	}
}

func (s *Server) HandleListAccounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.background.ListAccounts(r.Context())
		if err != nil {
			log.Error("list accounts failed", zap.Error(err))
			http.Error(w, "list accounts failed", http.StatusInternalServerError)
			return
		}
		if accounts == nil {
			accounts = []*model.Account{}
		}

		// model.Account hides key material from JSON, so this is safe to
		// hand the UI as-is.
		writeJSON(w, http.StatusOK, accounts)
	}
}

func (s *Server) HandleCreateAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAccountBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "malformed account body", http.StatusBadRequest)
			return
		}
		if body.Password == "" {
			http.Error(w, "password cannot be empty", http.StatusBadRequest)
			return
		}

		account, err := s.background.CreateAccount(r.Context(), body.Name, []byte(body.Password))
		if err != nil {
			log.Error("create account failed", zap.Error(err))
			http.Error(w, "create account failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, account)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode reply failed", zap.Error(err))
	}
}
