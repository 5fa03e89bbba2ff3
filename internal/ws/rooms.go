package ws

// Rooms groups connections by conversation id. Like Presence it belongs to
// the hub dispatcher.
type Rooms struct {
	members  map[string]map[*Client]struct{}
	byClient map[*Client]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members:  make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]map[string]struct{}),
	}
}

// Join adds c to the room and reports whether it was not already there.
func (r *Rooms) Join(c *Client, room string) bool {
	clients, ok := r.members[room]
	if !ok {
		clients = make(map[*Client]struct{})
		r.members[room] = clients
	}
	if _, joined := clients[c]; joined {
		return false
	}
	clients[c] = struct{}{}

	rooms, ok := r.byClient[c]
	if !ok {
		rooms = make(map[string]struct{})
		r.byClient[c] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

func (r *Rooms) Leave(c *Client, room string) bool {
	clients, ok := r.members[room]
	if !ok {
		return false
	}
	if _, joined := clients[c]; !joined {
		return false
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(r.members, room)
	}

	rooms := r.byClient[c]
	delete(rooms, room)
	if len(rooms) == 0 {
		delete(r.byClient, c)
	}
	return true
}

// LeaveAll drops c from every room it joined.
func (r *Rooms) LeaveAll(c *Client) {
	for room := range r.byClient[c] {
		clients := r.members[room]
		delete(clients, c)
		if len(clients) == 0 {
			delete(r.members, room)
		}
	}
	delete(r.byClient, c)
}

func (r *Rooms) Members(room string) []*Client {
	clients := make([]*Client, 0, len(r.members[room]))
	for c := range r.members[room] {
		clients = append(clients, c)
	}
	return clients
}

// RoomsOf returns the rooms c has joined.
func (r *Rooms) RoomsOf(c *Client) []string {
	rooms := make([]string, 0, len(r.byClient[c]))
	for room := range r.byClient[c] {
		rooms = append(rooms, room)
	}
	return rooms
}
