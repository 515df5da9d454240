// Package background hosts the authorization and signing pipeline. A
// request enters from the relay, is validated before anything else
// happens, and either completes immediately or parks as a pending event
// until a separate approval or cancellation message, matched by event id,
// resumes it. No key material is touched before approval.
package background

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"avm_wallet/internal/model"
	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/providererror"
	"avm_wallet/internal/transaction"
	"avm_wallet/internal/utils/log"
)

type (
	Params struct {
		ProviderID string
		Name       string
		Host       string
		SessionTTL time.Duration
		Registry   *Registry
		Sessions   SessionStore
		Accounts   AccountStore
		Events     EventStore
		// Online reports connectivity for operations that need it.
		// nil means always online.
		Online func() bool
	}

	Service struct {
		providerID string
		name       string
		host       string
		sessionTTL time.Duration
		registry   *Registry
		sessions   SessionStore
		accounts   AccountStore
		events     EventStore
		online     func() bool
	}

	// ApprovalResult is what an approval or cancellation produced. When
	// Pending is set the event is still waiting (wrong credential) and
	// nothing is sent back to the page; the approval UI re-prompts.
	ApprovalResult struct {
		Response *protocol.Response
		Event    *model.Event
		Pending  bool
	}
)

func New(p Params) *Service {
	return &Service{
		providerID: p.ProviderID,
		name:       p.Name,
		host:       p.Host,
		sessionTTL: p.SessionTTL,
		registry:   p.Registry,
		sessions:   p.Sessions,
		accounts:   p.Accounts,
		events:     p.Events,
		online:     p.Online,
	}
}

func (s *Service) isOnline() bool {
	return s.online == nil || s.online()
}

// HandleRequest takes one parsed page request. It returns either an
// immediate response, or a pending event now waiting for a human
// decision. Input errors are rejected here; they never reach the
// approval UI.
func (s *Service) HandleRequest(ctx context.Context, req *protocol.Request, client model.ClientInfo, tabID string) (*protocol.Response, *model.Event, error) {
	log.Debug("handling request",
		zap.String("op", string(req.Op)),
		zap.String("generation", string(req.Generation)),
		zap.String("host", client.Host),
		zap.String("tabId", tabID),
	)

	switch req.Op {
	case protocol.OpGetProviders:
		return s.getProviders(req), nil, nil
	case protocol.OpDisable:
		return s.disable(ctx, req, client), nil, nil
	case protocol.OpEnable:
		if err := s.validateEnable(req); err != nil {
			return s.errorResponse(req, err), nil, nil
		}
	case protocol.OpSignBytes:
		if err := s.validateSignBytes(req); err != nil {
			return s.errorResponse(req, err), nil, nil
		}
	case protocol.OpSignTxns:
		if err := s.validateSignTxns(req); err != nil {
			return s.errorResponse(req, err), nil, nil
		}
	default:
		return s.errorResponse(req, providererror.MethodNotSupported(string(req.Op), s.providerID)), nil, nil
	}

	event := model.NewEvent(*req, client, tabID)
	if err := s.events.Put(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("background: store event: %w", err)
	}

	log.Info("request pending approval",
		zap.String("eventId", event.ID),
		zap.String("op", string(req.Op)),
		zap.String("host", client.Host),
	)
	return nil, event, nil
}

// Approve resumes a pending event with the user's unlock credential. For
// enable the selected addresses become the session's authorized set. A
// wrong credential keeps the event pending so the UI can re-prompt; every
// other failure is terminal and answered to the page.
func (s *Service) Approve(ctx context.Context, eventID string, credential []byte, addresses []string) (*ApprovalResult, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("background: load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("background: no pending event %q", eventID)
	}
	if event.State != model.EventPending {
		return nil, fmt.Errorf("background: event %q is %s, not pending", eventID, event.State)
	}

	// Approval received; signing runs to completion with no further
	// suspension point.
	event.State = model.EventSigning
	req := &event.Payload.Message

	var resp *protocol.Response
	var opErr *providererror.SerializableError

	switch req.Op {
	case protocol.OpEnable:
		resp, opErr = s.approveEnable(ctx, event, addresses)
	case protocol.OpSignBytes:
		resp, opErr = s.approveSignBytes(ctx, event, credential)
	case protocol.OpSignTxns:
		resp, opErr = s.approveSignTxns(ctx, event, credential)
	default:
		opErr = providererror.MethodNotSupported(string(req.Op), s.providerID)
	}

	if opErr != nil && opErr.Code == providererror.CodeInvalidPassword {
		// Re-prompt in place; the page hears nothing.
		event.State = model.EventPending
		log.Info("approval failed credential check", zap.String("eventId", event.ID))
		return &ApprovalResult{Event: event, Pending: true}, nil
	}

	if err := s.events.Remove(ctx, eventID); err != nil {
		return nil, fmt.Errorf("background: remove event: %w", err)
	}

	if opErr != nil {
		event.State = model.EventFailed
		log.Info("request failed",
			zap.String("eventId", event.ID),
			zap.Int("code", opErr.Code),
		)
		return &ApprovalResult{
			Response: s.errorResponse(req, opErr),
			Event:    event,
		}, nil
	}

	event.State = model.EventCompleted
	log.Info("request completed",
		zap.String("eventId", event.ID),
		zap.String("op", string(req.Op)),
	)
	return &ApprovalResult{Response: resp, Event: event}, nil
}

// Cancel resolves a pending event as dismissed by the user: a terminal
// state that answers the page with a method-canceled error and discards
// the event. No cryptographic work is interrupted because none started.
func (s *Service) Cancel(ctx context.Context, eventID string) (*ApprovalResult, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("background: load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("background: no pending event %q", eventID)
	}

	if err := s.events.Remove(ctx, eventID); err != nil {
		return nil, fmt.Errorf("background: remove event: %w", err)
	}

	event.State = model.EventCancelled
	req := &event.Payload.Message

	log.Info("request cancelled by user", zap.String("eventId", event.ID))
	return &ApprovalResult{
		Response: s.errorResponse(req, providererror.MethodCanceled(s.providerID)),
		Event:    event,
	}, nil
}

// DropTab discards every pending event of a vanished tab. There is nobody
// left to deliver a response to, so none is synthesized.
func (s *Service) DropTab(ctx context.Context, tabID string) {
	removed, err := s.events.RemoveByTab(ctx, tabID)
	if err != nil {
		log.Error("dropping tab events failed", zap.String("tabId", tabID), zap.Error(err))
		return
	}
	if len(removed) > 0 {
		log.Info("discarded pending events for closed tab",
			zap.String("tabId", tabID),
			zap.Int("count", len(removed)),
		)
	}
}

// PendingEvents lists everything awaiting a decision, for the approval UI.
func (s *Service) PendingEvents(ctx context.Context) ([]*model.Event, error) {
	return s.events.List(ctx)
}

func (s *Service) getProviders(req *protocol.Request) *protocol.Response {
	networks := s.registry.List()
	configs := make([]protocol.NetworkConfig, 0, len(networks))
	for _, network := range networks {
		configs = append(configs, protocol.NetworkConfig{
			GenesisID:   network.GenesisID,
			GenesisHash: network.GenesisHash,
			Methods:     network.Methods,
		})
	}

	return &protocol.Response{
		Generation: req.Generation,
		Op:         req.Op,
		RequestID:  req.ID,
		Providers: &protocol.GetProvidersResult{
			ProviderID: s.providerID,
			Host:       s.host,
			Name:       s.name,
			Networks:   configs,
		},
	}
}

func (s *Service) disable(ctx context.Context, req *protocol.Request, client model.ClientInfo) *protocol.Response {
	params := req.Disable
	if params == nil {
		params = &protocol.DisableParams{}
	}

	var removed []string
	if len(params.SessionIDs) > 0 {
		wanted := make(map[string]struct{}, len(params.SessionIDs))
		for _, id := range params.SessionIDs {
			wanted[id] = struct{}{}
		}
		sessions, err := s.sessions.ListByHost(ctx, client.Host)
		if err != nil {
			return s.errorResponse(req, providererror.Map(err, s.providerID))
		}
		for _, session := range sessions {
			if _, ok := wanted[session.ID]; !ok {
				continue
			}
			if params.GenesisHash != "" && session.GenesisHash != params.GenesisHash {
				continue
			}
			if err := s.sessions.Remove(ctx, session.ID); err != nil {
				return s.errorResponse(req, providererror.Map(err, s.providerID))
			}
			removed = append(removed, session.ID)
		}
	} else {
		var err error
		removed, err = s.sessions.RemoveByHostAndNetwork(ctx, client.Host, params.GenesisHash)
		if err != nil {
			return s.errorResponse(req, providererror.Map(err, s.providerID))
		}
	}

	if removed == nil {
		removed = []string{}
	}

	log.Info("sessions disabled",
		zap.String("host", client.Host),
		zap.Int("count", len(removed)),
	)
	return &protocol.Response{
		Generation: req.Generation,
		Op:         req.Op,
		RequestID:  req.ID,
		Disable: &protocol.DisableResult{
			GenesisHash: params.GenesisHash,
			ProviderID:  s.providerID,
			SessionIDs:  removed,
		},
	}
}

func (s *Service) validateEnable(req *protocol.Request) *providererror.SerializableError {
	if !s.isOnline() {
		return providererror.Offline(s.providerID)
	}

	params := req.Enable
	if params == nil {
		params = &protocol.EnableParams{}
		req.Enable = params
	}

	network, err := s.resolveNetwork(params.GenesisHash)
	if err != nil {
		return err
	}
	if !s.registry.Supports(network, protocol.OpEnable) {
		return providererror.MethodNotSupported(string(protocol.OpEnable), s.providerID)
	}

	// Pin the resolved network on the stored request so approval does
	// not re-resolve against a changed default.
	params.GenesisHash = network.GenesisHash
	return nil
}

func (s *Service) validateSignBytes(req *protocol.Request) *providererror.SerializableError {
	params := req.SignBytes
	if params == nil || len(params.Data) == 0 || params.Signer == "" {
		return providererror.InvalidInput("sign-bytes request is missing data or signer", s.providerID)
	}

	network, err := s.resolveNetwork(params.GenesisHash)
	if err != nil {
		return err
	}
	if !s.registry.Supports(network, protocol.OpSignBytes) {
		return providererror.MethodNotSupported(string(protocol.OpSignBytes), s.providerID)
	}

	params.GenesisHash = network.GenesisHash
	return nil
}

func (s *Service) validateSignTxns(req *protocol.Request) *providererror.SerializableError {
	params := req.SignTxns
	if params == nil || len(params.Txns) == 0 {
		return providererror.InvalidInput("sign-transactions request contains no transactions", s.providerID)
	}

	txns, serr := s.decodeAndValidate(params)
	if serr != nil {
		return serr
	}

	genesisHash, serr := s.requestGenesisHash(txns)
	if serr != nil {
		return serr
	}

	network, serr := s.resolveNetwork(genesisHash)
	if serr != nil {
		return serr
	}
	if !s.registry.Supports(network, protocol.OpSignTxns) {
		return providererror.MethodNotSupported(string(protocol.OpSignTxns), s.providerID)
	}

	return nil
}

func (s *Service) resolveNetwork(genesisHash string) (*model.NetworkInfo, *providererror.SerializableError) {
	if genesisHash == "" {
		network := s.registry.Default()
		if network == nil {
			return nil, providererror.NetworkNotSupported("", s.providerID)
		}
		return network, nil
	}

	network, ok := s.registry.Lookup(genesisHash)
	if !ok {
		return nil, providererror.NetworkNotSupported(genesisHash, s.providerID)
	}
	return network, nil
}

// requestGenesisHash resolves the single network a sign-transactions
// request targets. Sub-groups were already checked individually; a
// request mixing networks across sub-groups still has no one session to
// authorize against and is invalid input.
func (s *Service) requestGenesisHash(txns []*transaction.Transaction) (string, *providererror.SerializableError) {
	distinct := make(map[string]struct{})
	for _, txn := range txns {
		distinct[txn.GenesisHashKey()] = struct{}{}
	}
	if len(distinct) != 1 {
		return "", providererror.InvalidInput("transactions are bound for multiple networks", s.providerID)
	}
	return txns[0].GenesisHashKey(), nil
}

func (s *Service) decodeAndValidate(params *protocol.SignTxnsParams) ([]*transaction.Transaction, *providererror.SerializableError) {
	blobs := make([][]byte, len(params.Txns))
	for i, item := range params.Txns {
		blobs[i] = item.Txn
	}

	txns, err := transaction.DecodeAll(blobs)
	if err != nil {
		return nil, s.mapTxnError(err)
	}
	if err := transaction.ValidateGroups(txns); err != nil {
		return nil, s.mapTxnError(err)
	}
	return txns, nil
}

func (s *Service) mapTxnError(err error) *providererror.SerializableError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, transaction.ErrGroupIDMismatch):
		return providererror.InvalidGroupID(s.providerID)
	case errors.Is(err, transaction.ErrMultipleNetworks):
		return providererror.InvalidInput("transactions are bound for multiple networks", s.providerID)
	default:
		return providererror.InvalidInput(err.Error(), s.providerID)
	}
}

func (s *Service) errorResponse(req *protocol.Request, e *providererror.SerializableError) *protocol.Response {
	return protocol.NewErrorResponse(req.Generation, req.Op, req.ID, e)
}

func newSessionID() string {
	return uuid.NewString()
}
