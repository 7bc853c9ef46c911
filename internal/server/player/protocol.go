package player

import (
	"math"

	"github.com/go-theft-craft/chunklayer/internal/server/world"
)

// ChunkCoord returns the chunk coordinate containing a block coordinate.
func ChunkCoord(coord float64) int32 {
	return int32(math.Floor(coord)) >> 4
}

// InViewDistance checks if two chunk positions are within view distance
// using Chebyshev (chessboard) distance.
func InViewDistance(a, b world.ChunkPos, viewDist int) bool {
	dx := int(a.X - b.X)
	if dx < 0 {
		dx = -dx
	}
	dz := int(a.Z - b.Z)
	if dz < 0 {
		dz = -dz
	}
	return dx <= viewDist && dz <= viewDist
}

// chunksInView returns every chunk position within viewDist of center,
// nearest rings first.
func chunksInView(center world.ChunkPos, viewDist int) []world.ChunkPos {
	side := 2*viewDist + 1
	out := make([]world.ChunkPos, 0, side*side)
	out = append(out, center)
	for r := int32(1); r <= int32(viewDist); r++ {
		for d := -r; d <= r; d++ {
			out = append(out,
				world.ChunkPos{X: center.X + d, Z: center.Z - r},
				world.ChunkPos{X: center.X + d, Z: center.Z + r},
			)
		}
		for d := -r + 1; d <= r-1; d++ {
			out = append(out,
				world.ChunkPos{X: center.X - r, Z: center.Z + d},
				world.ChunkPos{X: center.X + r, Z: center.Z + d},
			)
		}
	}
	return out
}
