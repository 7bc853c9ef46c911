package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/go-theft-craft/chunklayer/internal/server/world"
)

// Manager tracks all connected players and the chunks each one views.
type Manager struct {
	mu           sync.RWMutex
	players      map[int32]*Player // entityID → Player
	nextEntityID atomic.Int32
	viewDistance int

	layer *world.Layer
	log   *slog.Logger
}

// NewManager creates a new player manager with the given view distance (in chunks).
func NewManager(layer *world.Layer, viewDistance int, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		players:      make(map[int32]*Player),
		viewDistance: viewDistance,
		layer:        layer,
		log:          log.With("component", "players"),
	}
}

// AllocateEntityID returns the next unique entity ID.
func (m *Manager) AllocateEntityID() int32 {
	return m.nextEntityID.Add(1)
}

// Add registers a player and sends it the chunks around its position.
func (m *Manager) Add(p *Player) error {
	m.mu.Lock()
	m.players[p.EntityID] = p
	m.mu.Unlock()

	m.log.Info("player joined", "entityID", p.EntityID, "username", p.Username)
	return m.UpdateView(p)
}

// Remove unregisters a player and releases every chunk it views.
func (m *Manager) Remove(p *Player) {
	m.mu.Lock()
	delete(m.players, p.EntityID)
	m.mu.Unlock()

	for _, pos := range p.viewedChunks() {
		m.layer.ViewerLeave(pos)
		p.setViewing(pos, false)
	}
	m.log.Info("player left", "entityID", p.EntityID, "username", p.Username)
}

// UpdateView brings the set of chunks p views in line with its position:
// chunks that fell out of range are released, chunks that came into range
// are loaded and sent.
func (m *Manager) UpdateView(p *Player) error {
	center := p.ChunkPos()

	for _, pos := range p.viewedChunks() {
		if !InViewDistance(center, pos, m.viewDistance) {
			m.layer.ViewerLeave(pos)
			p.setViewing(pos, false)
		}
	}

	for _, pos := range chunksInView(center, m.viewDistance) {
		if p.IsViewing(pos) {
			continue
		}
		m.layer.LoadChunk(pos)
		ok, err := m.layer.ViewerEnter(p.out, pos)
		if err != nil {
			return fmt.Errorf("send chunk %v to %s: %w", pos, p.Username, err)
		}
		if ok {
			p.setViewing(pos, true)
		}
	}
	return nil
}

// SyncAll resends every viewed chunk to every player, one goroutine per
// player. It stops at the first error or when ctx is cancelled.
func (m *Manager) SyncAll(ctx context.Context) error {
	m.mu.RLock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range players {
		g.Go(func() error {
			for _, pos := range p.viewedChunks() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := m.layer.WriteInitPackets(p.out, pos); err != nil {
					return fmt.Errorf("sync chunk %v to %s: %w", pos, p.Username, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// PlayerCount returns the number of online players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// GetByEntityID returns the player with the given entity ID, or nil.
func (m *Manager) GetByEntityID(entityID int32) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.players[entityID]
}

// ForEach calls fn for every online player under a read lock.
func (m *Manager) ForEach(fn func(*Player)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		fn(p)
	}
}
