package player

import (
	"sync"

	"github.com/go-theft-craft/chunklayer/internal/server/world"
)

// Position holds a player's world position.
type Position struct {
	X, Y, Z float64
}

// Player is a client that views chunks of a layer. Packets for the player
// are written to its PacketWriter, which only the Manager writes to.
type Player struct {
	mu       sync.RWMutex
	EntityID int32
	Username string

	pos     Position
	viewing map[world.ChunkPos]struct{}

	out world.PacketWriter
}

// NewPlayer creates a new Player at the spawn position.
func NewPlayer(entityID int32, username string, out world.PacketWriter) *Player {
	return &Player{
		EntityID: entityID,
		Username: username,
		pos:      Position{X: 0.5, Y: 4.0, Z: 0.5},
		viewing:  make(map[world.ChunkPos]struct{}),
		out:      out,
	}
}

// GetPosition returns a copy of the player's current position.
func (p *Player) GetPosition() Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// SetPosition moves the player. Call Manager.UpdateView afterwards to
// update the chunks it views.
func (p *Player) SetPosition(x, y, z float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = Position{X: x, Y: y, Z: z}
}

// ChunkPos returns the position of the chunk the player stands in.
func (p *Player) ChunkPos() world.ChunkPos {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return world.ChunkPos{X: ChunkCoord(p.pos.X), Z: ChunkCoord(p.pos.Z)}
}

// IsViewing reports whether the player currently views the chunk at pos.
func (p *Player) IsViewing(pos world.ChunkPos) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.viewing[pos]
	return ok
}

// ViewingCount returns the number of chunks the player views.
func (p *Player) ViewingCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.viewing)
}

func (p *Player) viewedChunks() []world.ChunkPos {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]world.ChunkPos, 0, len(p.viewing))
	for pos := range p.viewing {
		out = append(out, pos)
	}
	return out
}

func (p *Player) setViewing(pos world.ChunkPos, viewing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if viewing {
		p.viewing[pos] = struct{}{}
	} else {
		delete(p.viewing, pos)
	}
}
