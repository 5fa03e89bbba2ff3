package ws

import "sort"

// Presence maps a user to its most recent connection. It is owned by the hub
// dispatcher and must not be touched from any other goroutine.
type Presence struct {
	byUser map[string]*Client
}

func NewPresence() *Presence {
	return &Presence{byUser: make(map[string]*Client)}
}

// SetOnline records c as the user's connection, replacing any earlier one.
func (p *Presence) SetOnline(userID string, c *Client) {
	p.byUser[userID] = c
}

// SetOffline removes the entry held by c. A connection that was already
// replaced by a newer one removes nothing and false is returned.
func (p *Presence) SetOffline(c *Client) bool {
	for userID, held := range p.byUser {
		if held == c {
			delete(p.byUser, userID)
			return true
		}
	}
	return false
}

// Online returns the sorted ids of every online user.
func (p *Presence) Online() []string {
	ids := make([]string, 0, len(p.byUser))
	for id := range p.byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Presence) Len() int {
	return len(p.byUser)
}
