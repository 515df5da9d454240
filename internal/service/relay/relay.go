// Package relay is the boundary between pages and the wallet. Pages hold
// a websocket per tab; every inbound message is stamped with that tab
// identity before it reaches the pipeline, and responses travel back only
// to the same tab, at most once. The approval UI talks to the same router
// over plain HTTP.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"avm_wallet/internal/model"
	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/legacy"
	"avm_wallet/internal/protocol/provider"
	"avm_wallet/internal/protocol/providererror"
	"avm_wallet/internal/service/background"
	"avm_wallet/internal/utils/log"
)

type (
	tabConn struct {
		conn *websocket.Conn
		mu   sync.Mutex
	}

	Server struct {
		mu         sync.Mutex
		mapper     map[string]*tabConn
		background *background.Service
		providerID string
	}
)

func NewServer(bg *background.Service, providerID string) *Server {
	return &Server{
		mapper:     make(map[string]*tabConn),
		background: bg,
		providerID: providerID,
	}
}

// Router wires every endpoint: the page websocket plus the approval UI's
// pending-event endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/connect", s.HandleConnect()).Methods(http.MethodGet)
	r.HandleFunc("/events", s.HandleListEvents()).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/approve", s.HandleApprove()).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}/cancel", s.HandleCancel()).Methods(http.MethodPost)
	r.HandleFunc("/accounts", s.HandleListAccounts()).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.HandleCreateAccount()).Methods(http.MethodPost)

	return r
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) HandleConnect() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // origin identity travels in the query, checked below
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		tabID := query.Get("tabId")
		if tabID == "" {
			http.Error(w, "tabId cannot be empty", http.StatusBadRequest)
			return
		}

		client := model.ClientInfo{
			Host:        query.Get("host"),
			AppName:     query.Get("appName"),
			Description: query.Get("description"),
			IconURL:     query.Get("iconUrl"),
		}
		if client.Host == "" {
			http.Error(w, "host cannot be empty", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if _, ok := s.mapper[tabID]; ok {
			s.mu.Unlock()
			http.Error(w, "duplicated tabId", http.StatusBadRequest)
			return
		}
		s.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		// Re-check at insert time: a concurrent connect for the same tab
		// may have won the map between the pre-upgrade check and here.
		tc := &tabConn{conn: conn}
		s.mu.Lock()
		if _, ok := s.mapper[tabID]; ok {
			s.mu.Unlock()
			conn.Close()
			log.Warn("duplicate tab connect refused", zap.String("tabId", tabID))
			return
		}
		s.mapper[tabID] = tc
		s.mu.Unlock()

		log.Info("tab connected", zap.String("tabId", tabID), zap.String("host", client.Host))
		go s.processTabMessages(tabID, client, tc)
	}
}

func (s *Server) processTabMessages(tabID string, client model.ClientInfo, tc *tabConn) {
	for {
		_, data, err := tc.conn.ReadMessage()
		if err != nil {
			log.Debug("tab web socket closed", zap.String("tabId", tabID), zap.Error(err))
			s.dropTab(tabID, tc)
			break
		}

		s.dispatch(tabID, client, tc, data)
	}
}

func (s *Server) dropTab(tabID string, tc *tabConn) {
	s.mu.Lock()
	owner := s.mapper[tabID] == tc
	if owner {
		delete(s.mapper, tabID)
	}
	s.mu.Unlock()
	tc.conn.Close()

	// Only the connection that owns the mapper entry tears the tab down;
	// a stale connection closing must not discard a live successor's
	// entry or its pending approvals.
	if !owner {
		return
	}
	s.background.DropTab(context.Background(), tabID)
}

// dispatch routes one raw page message through the generation whose
// reference enumeration claims it. The two generations never share a
// parse table. A message claiming a known reference but carrying
// undecodable params is answered with an invalid-input error on the same
// connection; the page is waiting on the id and must hear back.
func (s *Server) dispatch(tabID string, client model.ClientInfo, tc *tabConn, data []byte) {
	var envelope protocol.Message
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Error("undecodable page message", zap.String("tabId", tabID), zap.Error(err))
		return
	}

	var req *protocol.Request
	switch {
	case provider.IsReference(envelope.Reference):
		parsed, err := provider.ParseRequest(data)
		if err != nil {
			log.Error("parse page message failed", zap.String("tabId", tabID), zap.Error(err))
			op, _ := provider.ReferenceOperation(envelope.Reference)
			s.writeResponse(tc, protocol.NewErrorResponse(
				protocol.GenerationProvider,
				op,
				envelope.ID,
				providererror.InvalidInput("malformed request parameters", s.providerID),
			))
			return
		}
		req = parsed
	case legacy.IsReference(envelope.Reference):
		parsed, err := legacy.ParseRequest(data)
		if err != nil {
			log.Error("parse page message failed", zap.String("tabId", tabID), zap.Error(err))
			op, _ := legacy.ReferenceOperation(envelope.Reference)
			s.writeResponse(tc, protocol.NewErrorResponse(
				protocol.GenerationLegacy,
				op,
				envelope.ID,
				providererror.InvalidInput("malformed request parameters", s.providerID),
			))
			return
		}
		req = parsed
	default:
		log.Warn("unknown message reference",
			zap.String("tabId", tabID),
			zap.String("reference", envelope.Reference),
		)
		s.writeUnsupported(tc, envelope)
		return
	}

	resp, event, err := s.background.HandleRequest(context.Background(), req, client, tabID)
	if err != nil {
		log.Error("handle request failed", zap.String("tabId", tabID), zap.Error(err))
		return
	}

	if resp != nil {
		s.writeResponse(tc, resp)
	}
	if event != nil {
		log.Debug("request parked for approval",
			zap.String("tabId", tabID),
			zap.String("eventId", event.ID),
		)
	}
}

// Deliver routes a response back to the tab that issued the request.
// Best-effort, exactly one attempt: a vanished tab just logs a drop.
func (s *Server) Deliver(tabID string, resp *protocol.Response) bool {
	s.mu.Lock()
	tc, ok := s.mapper[tabID]
	s.mu.Unlock()

	if !ok {
		log.Info("dropping response for closed tab",
			zap.String("tabId", tabID),
			zap.String("requestId", resp.RequestID),
		)
		return false
	}

	return s.writeResponse(tc, resp)
}

func (s *Server) writeResponse(tc *tabConn, resp *protocol.Response) bool {
	var data []byte
	var err error
	switch resp.Generation {
	case protocol.GenerationLegacy:
		data, err = legacy.EncodeResponse(resp)
	default:
		data, err = provider.EncodeResponse(resp)
	}
	if err != nil {
		log.Error("encode response failed", zap.Error(err))
		return false
	}
	return s.writeFrame(tc, data)
}

// unsupportedReply answers a message whose reference belongs to neither
// generation. It echoes the unknown reference instead of borrowing a real
// response tag, so no recognized operation is implied.
type unsupportedReply struct {
	protocol.Message
	RequestID string                           `json:"requestId"`
	Error     *providererror.SerializableError `json:"error"`
}

func (s *Server) writeUnsupported(tc *tabConn, envelope protocol.Message) bool {
	reply := unsupportedReply{
		Message:   protocol.NewMessage(envelope.Reference),
		RequestID: envelope.ID,
		Error:     providererror.MethodNotSupported(envelope.Reference, s.providerID),
	}
	data, err := json.Marshal(reply)
	if err != nil {
		log.Error("encode unsupported reply failed", zap.Error(err))
		return false
	}
	return s.writeFrame(tc, data)
}

func (s *Server) writeFrame(tc *tabConn, data []byte) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if err := tc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error("write response failed", zap.Error(err))
		return false
	}
	return true
}
