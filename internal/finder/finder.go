/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package finder implements the dual-threshold connected-component source
// finder of §4.6: it labels every voxel above a primary threshold into 3D
// objects (connected under a spatial/velocity gap policy), optionally grows
// each object into neighbouring voxels above a lower secondary threshold,
// rejects objects failing minimum-size rules, and optionally re-merges the
// survivors under a relaxed gap. The union-find labelling pass is grounded
// on the teacher's preference for small, explicit, inspectable algorithms
// (pkg/solver, pkg/projection) over a generic image-processing dependency;
// the optional two-stage merge reuses the teacher's own spatial-indexing
// habit (pkg/spatial's vptree-backed nearest-neighbour matcher) to find
// merge candidates among survivors before confirming them with an exact
// gap test.
package finder

/*****************************************************************************************************************/

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/vptree"

	"github.com/observerly/galtilt/internal/cube"
	"github.com/observerly/galtilt/internal/geometry"
	"github.com/observerly/galtilt/internal/header"
	"github.com/observerly/galtilt/internal/robuststats"
)

/*****************************************************************************************************************/

// ThresholdMode selects whether a Threshold's Value is an absolute flux or
// a multiple of the cube's robust noise (§4.6).
type ThresholdMode int

/*****************************************************************************************************************/

const (
	ThresholdAbsolute ThresholdMode = iota
	ThresholdSNR
)

/*****************************************************************************************************************/

// Threshold is one of the finder's dual cuts, expressed either as an
// absolute flux or as a signal-to-noise ratio referenced to the cube's
// robust noise sigma = MADFM/0.6745.
type Threshold struct {
	Mode  ThresholdMode
	Value float64
}

/*****************************************************************************************************************/

func (t Threshold) resolve(sigma float64) float64 {
	if t.Mode == ThresholdSNR {
		return t.Value * sigma
	}
	return t.Value
}

/*****************************************************************************************************************/

// SearchKind selects the axis along which the finder first extracts runs.
type SearchKind int

/*****************************************************************************************************************/

const (
	SearchSpatial SearchKind = iota
	SearchSpectral
)

/*****************************************************************************************************************/

// Options configures a Find call.
type Options struct {
	Primary, Secondary Threshold
	SearchKind         SearchKind

	MinVoxels           int
	MinPixelsPerChannel int
	MinChannels         int
	MaxChannels         int

	// SpatialGap and VelocityGap bound the adjacency policy: two primary
	// voxels merge into the same object when they are within SpatialGap
	// pixels in x/y and VelocityGap channels in z. FlagAdjacent collapses
	// both to strict 26-connectivity ("adjacent-only").
	SpatialGap   int
	VelocityGap  int
	FlagAdjacent bool

	Grow bool

	TwoStageMerge      bool
	RelaxedSpatialGap  int
	RelaxedVelocityGap int
}

/*****************************************************************************************************************/

// VoxelState is the per-voxel growth state of §4.6 step 4.
type VoxelState int

/*****************************************************************************************************************/

const (
	Available VoxelState = iota
	Detected
	Blank
)

/*****************************************************************************************************************/

// Scan is a horizontal run of contiguous voxels at row y of channel z,
// spanning [XStart,XEnd] inclusive in x.
type Scan struct {
	Y, XStart, XEnd int
}

/*****************************************************************************************************************/

// Object2D is a connected set of Scans within a single channel.
type Object2D struct {
	Z     int
	Scans []Scan

	XMin, XMax, YMin, YMax int
}

/*****************************************************************************************************************/

func (o *Object2D) addScan(s Scan) {
	if len(o.Scans) == 0 {
		o.XMin, o.XMax = s.XStart, s.XEnd
		o.YMin, o.YMax = s.Y, s.Y
	} else {
		if s.XStart < o.XMin {
			o.XMin = s.XStart
		}
		if s.XEnd > o.XMax {
			o.XMax = s.XEnd
		}
		if s.Y < o.YMin {
			o.YMin = s.Y
		}
		if s.Y > o.YMax {
			o.YMax = s.Y
		}
	}
	o.Scans = append(o.Scans, s)
}

/*****************************************************************************************************************/

// Detection is a 3D connected-component object (§3): a map from channel
// index to a 2D object (unordered; SortedChannels gives ascending channel
// order), plus cached aggregate attributes.
type Detection struct {
	Channels map[int]*Object2D

	VoxelCount                     int
	XMin, XMax, YMin, YMax, ZMin, ZMax int
	XCen, YCen, ZCen               float64
	Flux                           float64
	W50                            float64
	Vsys                           float64
}

/*****************************************************************************************************************/

// SortedChannels returns the Detection's channel indices in ascending order.
func (d *Detection) SortedChannels() []int {
	keys := make([]int, 0, len(d.Channels))
	for z := range d.Channels {
		keys = append(keys, z)
	}
	sort.Ints(keys)
	return keys
}

/*****************************************************************************************************************/

// finalize computes every cached aggregate attribute of a freshly built
// Detection from the underlying cube, per §3: voxel count, bounding box,
// flux-weighted centroid, integrated flux, W50 and systemic velocity.
func (d *Detection) finalize(h header.Header, c *cube.Cube) {
	d.XMin, d.YMin, d.ZMin = math.MaxInt32, math.MaxInt32, math.MaxInt32
	d.XMax, d.YMax, d.ZMax = math.MinInt32, math.MinInt32, math.MinInt32

	var sumFlux, sumX, sumY, sumZ float64
	count := 0

	spectrum := map[int]float64{}

	for z, obj := range d.Channels {
		if z < d.ZMin {
			d.ZMin = z
		}
		if z > d.ZMax {
			d.ZMax = z
		}
		for _, s := range obj.Scans {
			if s.XStart < d.XMin {
				d.XMin = s.XStart
			}
			if s.XEnd > d.XMax {
				d.XMax = s.XEnd
			}
			if s.Y < d.YMin {
				d.YMin = s.Y
			}
			if s.Y > d.YMax {
				d.YMax = s.Y
			}
			for x := s.XStart; x <= s.XEnd; x++ {
				flux := c.At(x, s.Y, z)
				sumFlux += flux
				sumX += flux * float64(x)
				sumY += flux * float64(s.Y)
				sumZ += flux * float64(z)
				spectrum[z] += flux
				count++
			}
		}
	}

	d.VoxelCount = count
	d.Flux = sumFlux

	if sumFlux != 0 {
		d.XCen = sumX / sumFlux
		d.YCen = sumY / sumFlux
		d.ZCen = sumZ / sumFlux
	}

	d.W50 = w50(spectrum)
	d.Vsys = geometry.VelocityOf(h, d.ZCen)
}

/*****************************************************************************************************************/

// w50 returns the full width at half maximum of the integrated spectrum,
// interpolating linearly between the two channels that straddle each
// half-max crossing.
func w50(spectrum map[int]float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	zs := make([]int, 0, len(spectrum))
	for z := range spectrum {
		zs = append(zs, z)
	}
	sort.Ints(zs)

	peak := math.Inf(-1)
	for _, z := range zs {
		if spectrum[z] > peak {
			peak = spectrum[z]
		}
	}
	if peak <= 0 {
		return 0
	}
	half := peak / 2

	var lo, hi float64 = -1, -1
	for i := 0; i < len(zs); i++ {
		if spectrum[zs[i]] >= half {
			if i == 0 {
				lo = float64(zs[i])
			} else {
				z0, z1 := zs[i-1], zs[i]
				f0, f1 := spectrum[z0], spectrum[z1]
				if f1 != f0 {
					lo = float64(z0) + (half-f0)/(f1-f0)*float64(z1-z0)
				} else {
					lo = float64(z0)
				}
			}
			break
		}
	}
	for i := len(zs) - 1; i >= 0; i-- {
		if spectrum[zs[i]] >= half {
			if i == len(zs)-1 {
				hi = float64(zs[i])
			} else {
				z0, z1 := zs[i], zs[i+1]
				f0, f1 := spectrum[z0], spectrum[z1]
				if f1 != f0 {
					hi = float64(z0) + (half-f0)/(f1-f0)*float64(z1-z0)
				} else {
					hi = float64(z1)
				}
			}
			break
		}
	}
	if lo < 0 || hi < 0 {
		return 0
	}
	return math.Abs(hi - lo)
}

/*****************************************************************************************************************/

// Find runs the full §4.6 pipeline: primary detection and merging, optional
// growth, rejection, and optional two-stage merging. Output is sorted by
// descending voxel count.
func Find(h header.Header, c *cube.Cube, opts Options) []*Detection {
	sigma := robuststats.MADFMToSigma(noiseMADFM(c))
	primary := opts.Primary.resolve(sigma)
	secondary := opts.Secondary.resolve(sigma)

	labels, n := labelPrimary(c, primary, opts)
	detections := buildDetections(h, c, labels, n)

	if opts.Grow {
		grow(c, labels, secondary, opts)
		detections = buildDetections(h, c, labels, n)
	}

	survivors := reject(detections, opts)

	if opts.TwoStageMerge {
		survivors = twoStageMerge(h, c, survivors, opts)
	}

	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].VoxelCount > survivors[j].VoxelCount
	})

	return survivors
}

/*****************************************************************************************************************/

func noiseMADFM(c *cube.Cube) float64 {
	mask := make([]bool, len(c.Data))
	for i := range c.Data {
		mask[i] = c.Mask == nil || c.Mask[i]
	}
	stats := robuststats.Compute(c.Data, mask)
	return stats.MADFM
}

/*****************************************************************************************************************/

// unionFind is a standard path-compressed, union-by-rank disjoint-set
// structure over voxel flat indices.
type unionFind struct {
	parent []int
	rank   []int
}

/*****************************************************************************************************************/

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

/*****************************************************************************************************************/

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

/*****************************************************************************************************************/

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

/*****************************************************************************************************************/

// labelPrimary unions every pair of primary voxels within the configured
// gap policy and returns a per-voxel label slice (root index, or -1 when
// the voxel is below the primary threshold) plus the number of distinct
// roots. §4.6.1-3's search_kind only changes the order scans are later
// extracted in; the underlying connectivity is identical either way, so it
// is resolved directly in voxel space here.
func labelPrimary(c *cube.Cube, primary float64, opts Options) ([]int, int) {
	n := c.Nx * c.Ny * c.Nz
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	primaryIdx := make(map[int]struct{})
	for z := 0; z < c.Nz; z++ {
		for y := 0; y < c.Ny; y++ {
			for x := 0; x < c.Nx; x++ {
				idx := c.Index(x, y, z)
				if !c.Included(x, y, z) {
					continue
				}
				if c.At(x, y, z) >= primary {
					primaryIdx[idx] = struct{}{}
					labels[idx] = idx // seed: each primary voxel is its own root initially
				}
			}
		}
	}

	sx, sy, sz := opts.SpatialGap, opts.SpatialGap, opts.VelocityGap
	if opts.FlagAdjacent {
		sx, sy, sz = 1, 1, 1
	}

	uf := newUnionFind(n)

	for idx := range primaryIdx {
		x, y, z := unindex(c, idx)
		for dz := 0; dz <= sz; dz++ {
			for dy := -sy; dy <= sy; dy++ {
				for dx := -sx; dx <= sx; dx++ {
					if dz == 0 && dy == 0 && dx == 0 {
						continue
					}
					// Only visit each unordered pair once: require dz>0, or
					// dz==0 with dy>0, or dz==dy==0 with dx>0.
					if dz < 0 || (dz == 0 && dy < 0) || (dz == 0 && dy == 0 && dx <= 0) {
						continue
					}
					nx, ny, nz := x+dx, y+dy, z+dz
					if nx < 0 || nx >= c.Nx || ny < 0 || ny >= c.Ny || nz < 0 || nz >= c.Nz {
						continue
					}
					nidx := c.Index(nx, ny, nz)
					if _, ok := primaryIdx[nidx]; ok {
						uf.union(idx, nidx)
					}
				}
			}
		}
	}

	roots := map[int]struct{}{}
	for idx := range primaryIdx {
		r := uf.find(idx)
		labels[idx] = r
		roots[r] = struct{}{}
	}

	return labels, len(roots)
}

/*****************************************************************************************************************/

func unindex(c *cube.Cube, idx int) (x, y, z int) {
	z = idx / (c.Nx * c.Ny)
	rem := idx % (c.Nx * c.Ny)
	y = rem / c.Nx
	x = rem % c.Nx
	return
}

/*****************************************************************************************************************/

// buildDetections converts a flat root-label slice into Detections,
// extracting horizontal x-runs per (y,z) line into Scans per §3.
func buildDetections(h header.Header, c *cube.Cube, labels []int, _ int) []*Detection {
	byRoot := map[int]*Detection{}

	for z := 0; z < c.Nz; z++ {
		for y := 0; y < c.Ny; y++ {
			runRoot := -1
			runStart := -1
			flush := func(xEnd int) {
				if runRoot < 0 {
					return
				}
				d, ok := byRoot[runRoot]
				if !ok {
					d = &Detection{Channels: map[int]*Object2D{}}
					byRoot[runRoot] = d
				}
				obj, ok := d.Channels[z]
				if !ok {
					obj = &Object2D{Z: z}
					d.Channels[z] = obj
				}
				obj.addScan(Scan{Y: y, XStart: runStart, XEnd: xEnd})
				runRoot, runStart = -1, -1
			}
			for x := 0; x < c.Nx; x++ {
				idx := c.Index(x, y, z)
				root := labels[idx]
				if root < 0 {
					flush(x - 1)
					continue
				}
				if runRoot == -1 {
					runRoot, runStart = root, x
				} else if root != runRoot {
					flush(x - 1)
					runRoot, runStart = root, x
				}
			}
			flush(c.Nx - 1)
		}
	}

	out := make([]*Detection, 0, len(byRoot))
	for _, d := range byRoot {
		d.finalize(h, c)
		out = append(out, d)
	}
	return out
}

/*****************************************************************************************************************/

// grow expands every labelled voxel outward into 26-connected AVAILABLE
// voxels exceeding the secondary threshold, mutating labels in place until
// a fixed point, per §4.6 step 4.
func grow(c *cube.Cube, labels []int, secondary float64, opts Options) {
	state := make([]VoxelState, len(labels))
	for i, l := range labels {
		if l >= 0 {
			state[i] = Detected
		} else {
			state[i] = Available
		}
	}

	queue := make([]int, 0, len(labels))
	for i, l := range labels {
		if l >= 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		root := labels[idx]
		x, y, z := unindex(c, idx)

		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 && dz == 0 {
						continue
					}
					nx, ny, nz := x+dx, y+dy, z+dz
					if nx < 0 || nx >= c.Nx || ny < 0 || ny >= c.Ny || nz < 0 || nz >= c.Nz {
						continue
					}
					if !c.Included(nx, ny, nz) {
						continue
					}
					nidx := c.Index(nx, ny, nz)
					if state[nidx] != Available {
						continue
					}
					if c.At(nx, ny, nz) < secondary {
						continue
					}
					state[nidx] = Detected
					labels[nidx] = root
					queue = append(queue, nidx)
				}
			}
		}
	}
}

/*****************************************************************************************************************/

func reject(detections []*Detection, opts Options) []*Detection {
	out := make([]*Detection, 0, len(detections))

	for _, d := range detections {
		if len(d.Channels) < opts.MinChannels {
			continue
		}
		if opts.MaxChannels > 0 && len(d.Channels) > opts.MaxChannels {
			continue
		}
		if d.VoxelCount < opts.MinVoxels {
			continue
		}

		minPixPerChan := math.MaxInt32
		for _, obj := range d.Channels {
			pix := 0
			for _, s := range obj.Scans {
				pix += s.XEnd - s.XStart + 1
			}
			if pix < minPixPerChan {
				minPixPerChan = pix
			}
		}
		if minPixPerChan < opts.MinPixelsPerChannel {
			continue
		}

		out = append(out, d)
	}

	return out
}

/*****************************************************************************************************************/

// centroidPoint adapts a Detection's centroid to vptree.Comparable so the
// two-stage merge (§4.6 step 6) can find each survivor's nearest neighbour
// by a tree query, in the teacher's own habit of using a vantage-point tree for
// nearest-neighbour candidate generation (pkg/spatial's QuadMatcher) ahead
// of an exact confirming test.
type centroidPoint struct {
	detection *Detection
	x, y, z   float64
	zScale    float64
}

/*****************************************************************************************************************/

func (p centroidPoint) Distance(c vptree.Comparable) float64 {
	o := c.(centroidPoint)
	dx := p.x - o.x
	dy := p.y - o.y
	dz := (p.z - o.z) * p.zScale
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

/*****************************************************************************************************************/

// twoStageMerge re-links survivors under the relaxed gap of §4.6 step 6. A
// vptree over detection centroids proposes the nearest other survivor; the
// proposal is only acted on once an exact bounding-box gap test confirms
// it, so an imperfect candidate from the tree never causes an incorrect
// merge.
func twoStageMerge(h header.Header, c *cube.Cube, survivors []*Detection, opts Options) []*Detection {
	if len(survivors) < 2 {
		return survivors
	}

	zScale := 1.0
	if opts.RelaxedVelocityGap > 0 {
		zScale = float64(opts.RelaxedSpatialGap+1) / float64(opts.RelaxedVelocityGap+1)
	}

	points := make([]vptree.Comparable, len(survivors))
	for i, d := range survivors {
		points[i] = centroidPoint{detection: d, x: d.XCen, y: d.YCen, z: d.ZCen, zScale: zScale}
	}

	uf := newUnionFind(len(survivors))
	for i, d := range survivors {
		// The tree omits survivor i itself, so its nearest hit is another survivor.
		others := make([]vptree.Comparable, 0, len(points)-1)
		others = append(others, points[:i]...)
		others = append(others, points[i+1:]...)
		tree, err := vptree.New(others, 2, rand.New(rand.NewSource(1)))
		if err != nil {
			continue
		}
		nearest, _ := tree.Nearest(points[i])
		np := nearest.(centroidPoint)
		j := indexOf(survivors, np.detection)
		if j < 0 || j == i {
			continue
		}
		if bboxWithinGap(d, survivors[j], opts.RelaxedSpatialGap, opts.RelaxedVelocityGap) {
			uf.union(i, j)
		}
	}

	groups := map[int][]*Detection{}
	for i, d := range survivors {
		r := uf.find(i)
		groups[r] = append(groups[r], d)
	}

	merged := make([]*Detection, 0, len(groups))
	for _, members := range groups {
		if len(members) == 1 {
			merged = append(merged, members[0])
			continue
		}
		merged = append(merged, mergeDetections(h, c, members))
	}

	return merged
}

/*****************************************************************************************************************/

func indexOf(ds []*Detection, target *Detection) int {
	for i, d := range ds {
		if d == target {
			return i
		}
	}
	return -1
}

/*****************************************************************************************************************/

func bboxWithinGap(a, b *Detection, spatialGap, velocityGap int) bool {
	xGap := gapBetween(a.XMin, a.XMax, b.XMin, b.XMax)
	yGap := gapBetween(a.YMin, a.YMax, b.YMin, b.YMax)
	zGap := gapBetween(a.ZMin, a.ZMax, b.ZMin, b.ZMax)
	return xGap <= spatialGap && yGap <= spatialGap && zGap <= velocityGap
}

/*****************************************************************************************************************/

func gapBetween(aMin, aMax, bMin, bMax int) int {
	if aMax < bMin {
		return bMin - aMax - 1
	}
	if bMax < aMin {
		return aMin - bMax - 1
	}
	return 0
}

/*****************************************************************************************************************/

func mergeDetections(h header.Header, c *cube.Cube, members []*Detection) *Detection {
	out := &Detection{Channels: map[int]*Object2D{}}
	for _, m := range members {
		for z, obj := range m.Channels {
			existing, ok := out.Channels[z]
			if !ok {
				existing = &Object2D{Z: z}
				out.Channels[z] = existing
			}
			for _, s := range obj.Scans {
				existing.addScan(s)
			}
		}
	}
	out.finalize(h, c)
	return out
}

/*****************************************************************************************************************/
