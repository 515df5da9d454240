package model

import "time"

type (
	// Session is a durable grant of authority: one origin may act with a
	// set of addresses on one network. Lookups always key on
	// (host, genesisHash), never on the id alone.
	Session struct {
		ID                  string     `json:"id" bson:"_id"`
		Host                string     `json:"host" bson:"host"`
		GenesisHash         string     `json:"genesisHash" bson:"genesisHash"`
		AuthorizedAddresses []string   `json:"authorizedAddresses" bson:"authorizedAddresses"`
		CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
		ExpiresAt           *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	}
)

// Expired reports whether the session has lapsed. An expired session is
// treated everywhere as if it did not exist.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// AuthorizedAddressesForHost flattens the address grants of the live
// sessions belonging to host. Pure over the given slice; expired sessions
// contribute nothing even if the store handed them out.
func AuthorizedAddressesForHost(host string, sessions []*Session) []string {
	now := time.Now()
	seen := make(map[string]struct{})
	var out []string
	for _, session := range sessions {
		if session.Host != host || session.Expired(now) {
			continue
		}
		for _, addr := range session.AuthorizedAddresses {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}
