// Package spatial provides cache-efficient spatial data structures for
// broad-phase collision detection.
//
// All structures use preallocated slices with integer indices (not pointers)
// to minimize GC pressure and maximize cache locality.
package spatial

// Partition is a single player's fixed N*N grid over the normalized field
// [-A, A] x [-1, 1]. Unlike a grid shared across all entities, each player
// owns its own Partition holding only that player's own segment indices;
// round resets are then just a per-player Reset with no cross-player
// synchronization, and queries against another player's trail iterate that
// player's own Partition directly.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col]).
type Partition struct {
	aspectRatio float64
	n           int // cells per axis
	cellW       float64
	cellH       float64
	cells       [][]int // cells[row*n+col] = list of this player's segment indices
}

// NewPartition creates an N*N partition over the field [-aspectRatio, aspectRatio] x [-1, 1].
func NewPartition(aspectRatio float64, n int) *Partition {
	if n < 1 {
		n = 1
	}

	cells := make([][]int, n*n)
	for i := range cells {
		cells[i] = make([]int, 0, 4)
	}

	return &Partition{
		aspectRatio: aspectRatio,
		n:           n,
		cellW:       (2 * aspectRatio) / float64(n),
		cellH:       2.0 / float64(n),
		cells:       cells,
	}
}

// Reset drops every segment index from every cell without deallocating
// underlying memory. O(N^2), independent of the number of segments held.
func (p *Partition) Reset() {
	for i := range p.cells {
		p.cells[i] = p.cells[i][:0]
	}
}

func (p *Partition) colOf(x float64) int {
	col := int((x + p.aspectRatio) / p.cellW)
	if col < 0 {
		col = 0
	}
	if col >= p.n {
		col = p.n - 1
	}
	return col
}

func (p *Partition) rowOf(y float64) int {
	row := int((y + 1) / p.cellH)
	if row < 0 {
		row = 0
	}
	if row >= p.n {
		row = p.n - 1
	}
	return row
}

// cellRange returns the inclusive column/row range [minCol,maxCol] x
// [minRow,maxRow] of cells overlapping [minX,maxX] x [minY,maxY].
func (p *Partition) cellRange(minX, minY, maxX, maxY float64) (minCol, maxCol, minRow, maxRow int) {
	minCol = p.colOf(minX)
	maxCol = p.colOf(maxX)
	minRow = p.rowOf(minY)
	maxRow = p.rowOf(maxY)
	return
}

// InsertFootprint registers segIdx into every cell overlapping the rectangle
// [minX,maxX] x [minY,maxY] (typically a segment's fat-AABB, or a sub-tick's
// travel-slice fat-AABB). Because segments are axis-aligned, this reduces to
// a 1-D sweep along the segment's own axis plus the perpendicular expansion
// already baked into the caller-supplied rectangle.
func (p *Partition) InsertFootprint(segIdx int, minX, minY, maxX, maxY float64) {
	minCol, maxCol, minRow, maxRow := p.cellRange(minX, minY, maxX, maxY)
	for row := minRow; row <= maxRow; row++ {
		base := row * p.n
		for col := minCol; col <= maxCol; col++ {
			idx := base + col
			p.cells[idx] = append(p.cells[idx], segIdx)
		}
	}
}

// QueryFootprint calls visit once for every (possibly duplicated) segment
// index registered in a cell overlapping [minX,maxX] x [minY,maxY]. The
// caller is responsible for de-duplicating and for the precise (narrow
// phase) check — false positives are expected, false negatives are not.
func (p *Partition) QueryFootprint(minX, minY, maxX, maxY float64, visit func(segIdx int)) {
	minCol, maxCol, minRow, maxRow := p.cellRange(minX, minY, maxX, maxY)
	for row := minRow; row <= maxRow; row++ {
		base := row * p.n
		for col := minCol; col <= maxCol; col++ {
			for _, idx := range p.cells[base+col] {
				visit(idx)
			}
		}
	}
}

// CellFootprint returns the bounding rectangle of a fat-AABB expanded enough
// to guarantee correct cell enumeration even when lineWidth is smaller than
// a cell: callers pass the segment's own fat-AABB corners directly since the
// grid sweep already accounts for partial-cell overlap.
func CellFootprint(minX, minY, maxX, maxY, lineWidth float64) (float64, float64, float64, float64) {
	pad := lineWidth
	return minX - pad, minY - pad, maxX + pad, maxY + pad
}

// Dimensions returns the partition's cell counts and size, for diagnostics.
func (p *Partition) Dimensions() (n int, cellW, cellH float64) {
	return p.n, p.cellW, p.cellH
}
