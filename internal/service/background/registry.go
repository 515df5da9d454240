package background

import (
	"avm_wallet/internal/model"
	"avm_wallet/internal/protocol"
)

type (
	// Registry maps genesis hashes to the networks this wallet supports.
	// The first configured network is the default for requests that do
	// not name one.
	Registry struct {
		byHash map[string]model.NetworkInfo
		order  []string
	}
)

func NewRegistry(networks []model.NetworkInfo) *Registry {
	r := &Registry{
		byHash: make(map[string]model.NetworkInfo, len(networks)),
	}
	for _, network := range networks {
		if _, ok := r.byHash[network.GenesisHash]; ok {
			continue
		}
		r.byHash[network.GenesisHash] = network
		r.order = append(r.order, network.GenesisHash)
	}
	return r
}

func (r *Registry) Lookup(genesisHash string) (*model.NetworkInfo, bool) {
	network, ok := r.byHash[genesisHash]
	if !ok {
		return nil, false
	}
	return &network, true
}

func (r *Registry) Default() *model.NetworkInfo {
	if len(r.order) == 0 {
		return nil
	}
	network := r.byHash[r.order[0]]
	return &network
}

func (r *Registry) List() []model.NetworkInfo {
	out := make([]model.NetworkInfo, 0, len(r.order))
	for _, hash := range r.order {
		out = append(out, r.byHash[hash])
	}
	return out
}

// Supports reports whether the network advertises the operation. An empty
// method list means everything is allowed.
func (r *Registry) Supports(network *model.NetworkInfo, op protocol.Operation) bool {
	if len(network.Methods) == 0 {
		return true
	}
	for _, method := range network.Methods {
		if method == string(op) {
			return true
		}
	}
	return false
}
