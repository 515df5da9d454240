// dappcli plays the page side of the protocol: it connects to walletd as
// a tab, requests a session and then enumerates the provider's networks,
// demultiplexing the responses by request id. Approvals still happen
// through the walletd events endpoints, so responses arrive whenever a
// human gets around to them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"avm_wallet/internal/protocol"
	"avm_wallet/internal/protocol/provider"
	"avm_wallet/internal/utils/log"
)

type pendingCall struct {
	done chan json.RawMessage
}

type client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending map[string]*pendingCall
}

func dial(addr, tabID, host, appName string) (*client, error) {
	params := url.Values{
		"tabId":   []string{tabID},
		"host":    []string{host},
		"appName": []string{appName},
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     addr,
		Path:     "/connect",
		RawQuery: params.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &client{
		conn:    conn,
		pending: make(map[string]*pendingCall),
	}
	go c.receiveLoop()
	return c, nil
}

func (c *client) receiveLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("wallet web socket closed", zap.Error(err))
			c.failAll()
			return
		}

		var envelope struct {
			protocol.Message
			RequestID string `json:"requestId"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			log.Error("unmarshal response failed", zap.Error(err))
			continue
		}

		c.mu.Lock()
		call := c.pending[envelope.RequestID]
		delete(c.pending, envelope.RequestID)
		c.mu.Unlock()

		if call == nil {
			log.Warn("response for unknown request", zap.String("requestId", envelope.RequestID))
			continue
		}
		call.done <- data
	}
}

func (c *client) failAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, call := range c.pending {
		close(call.done)
		delete(c.pending, id)
	}
}

// call sends one request and blocks until its correlated response shows
// up, however long approval takes.
func (c *client) call(msg any, id, reference string) (json.RawMessage, error) {
	call := &pendingCall{
		done: make(chan json.RawMessage, 1),
	}

	c.mu.Lock()
	c.pending[id] = call
	c.mu.Unlock()

	if err := c.conn.WriteJSON(msg); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}

	data, ok := <-call.done
	if !ok {
		return nil, fmt.Errorf("connection closed while waiting for %s", reference)
	}
	return data, nil
}

func main() {
	addr := flag.String("addr", "localhost:9090", "walletd relay address")
	host := flag.String("host", "dapp.example", "origin host to identify as")
	appName := flag.String("app", "dappcli", "application name to identify as")
	flag.Parse()

	c, err := dial(*addr, "dappcli-tab", *host, *appName)
	if err != nil {
		log.Fatal("dial walletd failed", zap.Error(err))
	}
	defer c.conn.Close()

	enable := provider.NewRequestMessage(provider.ReferenceEnableRequest, &protocol.EnableParams{})
	fmt.Println("requesting session; approve it in the wallet...")
	data, err := c.call(enable, enable.ID, enable.Reference)
	if err != nil {
		log.Fatal("enable failed", zap.Error(err))
	}

	var enableResp provider.ResponseMessage[protocol.EnableResult]
	if err := json.Unmarshal(data, &enableResp); err != nil {
		log.Fatal("decode enable response failed", zap.Error(err))
	}
	if enableResp.Error != nil {
		fmt.Printf("enable rejected: code=%d %s\n", enableResp.Error.Code, enableResp.Error.Message)
		os.Exit(1)
	}

	fmt.Printf("session %s on %s with %d account(s)\n",
		enableResp.Result.SessionID,
		enableResp.Result.GenesisID,
		len(enableResp.Result.Accounts),
	)

	discover := provider.NewRequestMessage[struct{}](provider.ReferenceGetProvidersRequest, nil)
	data, err = c.call(discover, discover.ID, discover.Reference)
	if err != nil {
		log.Fatal("get providers failed", zap.Error(err))
	}

	var providersResp provider.ResponseMessage[protocol.GetProvidersResult]
	if err := json.Unmarshal(data, &providersResp); err != nil {
		log.Fatal("decode providers response failed", zap.Error(err))
	}
	if providersResp.Result != nil {
		for _, network := range providersResp.Result.Networks {
			fmt.Printf("network %s methods=%v\n", network.GenesisID, network.Methods)
		}
	}
}
