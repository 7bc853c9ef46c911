package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/go-theft-craft/chunklayer/internal/server/config"
	"github.com/go-theft-craft/chunklayer/internal/server/player"
	"github.com/go-theft-craft/chunklayer/internal/server/world"
	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/protocol"
	"github.com/go-theft-craft/chunklayer/pkg/world/gen"
)

// mutationStates are the blocks placed by the mutation pass.
var mutationStates = []block.State{
	block.Stone, block.Cobblestone, block.OakPlanks, block.Glass,
	block.Sand, block.Air, block.Chest, block.Furnace,
}

// Stats summarizes a simulation run.
type Stats struct {
	Ticks      int
	Chunks     int
	Mutations  int
	BytesSent  int64
	PacketsOut int64
	Elapsed    time.Duration
}

// Server drives simulated players over one layer: every tick it mutates
// blocks near the players, moves them, then resends every viewed chunk to
// every player concurrently.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	layer   *world.Layer
	gen     gen.Generator
	players *player.Manager
	rng     *rand.Rand

	bytesSent  atomic.Int64
	packetsOut atomic.Int64
}

// New creates a new Server with the given config and logger.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	generator, err := gen.New(cfg.GeneratorType, cfg.Seed)
	if err != nil {
		return nil, err
	}

	layer := world.NewLayer(cfg.LayerInfo(), generator, log)
	return &Server{
		cfg:     cfg,
		log:     log,
		layer:   layer,
		gen:     generator,
		players: player.NewManager(layer, cfg.ViewDistance, log),
		rng:     rand.New(rand.NewPCG(uint64(cfg.Seed), 0x636875)),
	}, nil
}

// Layer returns the layer the server simulates.
func (s *Server) Layer() *world.Layer {
	return s.layer
}

// Run simulates cfg.Ticks ticks and blocks until they finish or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	s.log.Info("simulation started",
		"players", s.cfg.Players,
		"ticks", s.cfg.Ticks,
		"viewDistance", s.cfg.ViewDistance,
		"generator", s.cfg.GeneratorType,
		"seed", s.cfg.Seed,
		"compressionThreshold", s.cfg.CompressionThreshold,
	)

	joined := make([]*player.Player, 0, s.cfg.Players)
	for i := range s.cfg.Players {
		x := i * 48
		y := gen.SpawnY(s.gen, x, 0) + s.cfg.MinY
		p := player.NewPlayer(s.players.AllocateEntityID(), fmt.Sprintf("bot%d", i), s.newSink())
		p.SetPosition(float64(x)+0.5, float64(y), 0.5)
		if err := s.players.Add(p); err != nil {
			return Stats{}, err
		}
		joined = append(joined, p)
	}

	stats := Stats{}
	for tick := range s.cfg.Ticks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Mutations += s.mutate(joined)
		if tick%5 == 4 {
			for _, p := range joined {
				pos := p.GetPosition()
				p.SetPosition(pos.X+16, pos.Y, pos.Z)
				if err := s.players.UpdateView(p); err != nil {
					return stats, err
				}
			}
		}
		if err := s.players.SyncAll(ctx); err != nil {
			return stats, fmt.Errorf("tick %d: %w", tick, err)
		}
		stats.Ticks++

		s.log.Debug("tick done", "tick", tick, "chunks", s.layer.ChunkCount())
	}

	for _, p := range joined {
		s.players.Remove(p)
	}

	stats.Chunks = s.layer.ChunkCount()
	stats.BytesSent = s.bytesSent.Load()
	stats.PacketsOut = s.packetsOut.Load()
	stats.Elapsed = time.Since(start)

	s.log.Info("simulation finished",
		"ticks", stats.Ticks,
		"chunks", stats.Chunks,
		"mutations", stats.Mutations,
		"packets", stats.PacketsOut,
		"bytes", stats.BytesSent,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}

// mutate places random blocks around each player and returns how many
// blocks changed.
func (s *Server) mutate(players []*player.Player) int {
	info := s.layer.Info()
	changed := 0
	for _, p := range players {
		pos := p.GetPosition()
		for range s.cfg.MutationsPerTick {
			x := int(pos.X) + s.rng.IntN(33) - 16
			z := int(pos.Z) + s.rng.IntN(33) - 16
			y := info.MinY + s.rng.IntN(min(info.Height, 32))
			state := mutationStates[s.rng.IntN(len(mutationStates))]

			if old, ok := s.layer.SetBlock(x, y, z, state); ok && old != state {
				changed++
			}
		}
	}
	return changed
}

// counter is a player's packet sink. It frames nothing itself; it counts
// the pre-framed bytes the layer hands it.
type counter struct {
	s *Server
}

func (s *Server) newSink() *protocol.Writer {
	return protocol.NewWriter(counter{s: s}, protocol.CompressionThreshold(s.cfg.CompressionThreshold))
}

func (c counter) Write(b []byte) (int, error) {
	c.s.bytesSent.Add(int64(len(b)))
	c.s.packetsOut.Add(1)
	return len(b), nil
}
