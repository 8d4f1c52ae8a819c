// Package idmap implements the bidirectional client-id/server-id mapping
// described in spec.md §3 and §4.C.
package idmap

import (
	"sync"

	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// Mapper maintains two coherent partial functions, client->server and
// server->client, plus a monotonically increasing server-id generator.
// All methods are safe for concurrent use; a single mutex guards both maps
// since they are always updated together (spec.md §3: "Removal is by
// server id and atomically removes both directions").
type Mapper struct {
	mu           sync.Mutex
	nextServerID int64
	clientToServ map[protocol.MessageID]protocol.MessageID
	servToClient map[protocol.MessageID]protocol.MessageID
}

// New returns an empty Mapper whose generator starts at 1.
func New() *Mapper {
	return &Mapper{
		nextServerID: 1,
		clientToServ: make(map[protocol.MessageID]protocol.MessageID),
		servToClient: make(map[protocol.MessageID]protocol.MessageID),
	}
}

// MapClientID returns the server id already associated with clientID, or
// allocates a fresh one, records both directions, and returns it.
// Re-mapping the same clientID returns the same server id (spec.md §8,
// invariant 3).
func (m *Mapper) MapClientID(clientID protocol.MessageID) protocol.MessageID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if serverID, ok := m.clientToServ[clientID]; ok {
		return serverID
	}

	serverID := protocol.NewIntID(m.nextServerID)
	m.nextServerID++

	m.clientToServ[clientID] = serverID
	m.servToClient[serverID] = clientID
	return serverID
}

// GetClientID looks up the client id for a server id without mutating
// state. The bool is false if no mapping exists (e.g. it was already
// removed, or the server id is unknown).
func (m *Mapper) GetClientID(serverID protocol.MessageID) (protocol.MessageID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clientID, ok := m.servToClient[serverID]
	return clientID, ok
}

// Remove atomically removes the server id's mapping in both directions. It
// is idempotent.
func (m *Mapper) Remove(serverID protocol.MessageID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clientID, ok := m.servToClient[serverID]
	if !ok {
		return
	}
	delete(m.servToClient, serverID)
	delete(m.clientToServ, clientID)
}
