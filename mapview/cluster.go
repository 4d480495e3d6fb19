package mapview

import (
	"fmt"
	"math"
	"slices"

	"github.com/asim/quadtree"
	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/dataset"
)

const (
	// clusterRadius is how close, in screen pixels, markers must be to merge.
	clusterRadius = 80.0
	// coincidentRadius applies from FocusZoom on: only markers drawn on top of
	// each other still merge, and those spiderfy when clicked.
	coincidentRadius = 1.0
	fitPadding       = 40
)

// BadgeTier sizes a cluster badge by its child count.
type BadgeTier string

const (
	BadgeSmall  BadgeTier = "small"
	BadgeMedium BadgeTier = "medium"
	BadgeLarge  BadgeTier = "large"
)

// Badge is the drawn size of a cluster.
type Badge struct {
	Tier     BadgeTier `json:"tier"`
	Size     int       `json:"size"`
	FontSize int       `json:"fontSize"`
}

// BadgeFor returns the badge of a cluster holding count markers.
func BadgeFor(count int) Badge {
	switch {
	case count <= 5:
		return Badge{Tier: BadgeSmall, Size: 30, FontSize: 12}
	case count <= 10:
		return Badge{Tier: BadgeMedium, Size: 40, FontSize: 14}
	default:
		return Badge{Tier: BadgeLarge, Size: 50, FontSize: 16}
	}
}

// MarkerStyle is the filled circle drawn for one location.
type MarkerStyle struct {
	Category dataset.Category `json:"category"`
	Color    string           `json:"color"`
	Icon     string           `json:"icon"`
}

func markerStyle(c dataset.Category) MarkerStyle {
	meta := c.Meta()
	return MarkerStyle{Category: c, Color: meta.Color, Icon: meta.Icon}
}

// Feature is one drawable item at a given zoom: a single marker or a cluster.
type Feature struct {
	Kind      string            `json:"kind"`
	ID        string            `json:"id,omitempty"`
	ClusterID int               `json:"clusterId,omitempty"`
	Position  LatLng            `json:"position"`
	Count     int               `json:"count,omitempty"`
	Badge     *Badge            `json:"badge,omitempty"`
	Marker    *MarkerStyle      `json:"marker,omitempty"`
	Name      dataset.Localized `json:"name,omitempty"`
}

// cnode is a marker or cluster at one zoom level. members indexes the
// layer's leaves.
type cnode struct {
	id      int
	pt      point
	members []int
}

// ClusterLayer holds the visible locations and their cluster hierarchy for
// every zoom level.
type ClusterLayer struct {
	id       string
	leaves   []dataset.Location
	levels   map[int][]*cnode
	clusters map[int]*cnode
	minZoom  int
	maxZoom  int
}

func (l *ClusterLayer) ID() string      { return l.id }
func (l *ClusterLayer) Kind() LayerKind { return KindCluster }

func (l *ClusterLayer) View(zoom int) any {
	return struct {
		Zoom     int       `json:"zoom"`
		Features []Feature `json:"features"`
	}{zoom, l.Render(zoom)}
}

// Markers returns every location the layer draws, in dataset order.
func (l *ClusterLayer) Markers() []dataset.Location {
	return slices.Clone(l.leaves)
}

// Render returns the features drawn at zoom.
func (l *ClusterLayer) Render(zoom int) []Feature {
	zoom = max(l.minZoom, min(l.maxZoom, zoom))
	nodes := l.levels[zoom]
	out := make([]Feature, 0, len(nodes))
	for _, n := range nodes {
		if len(n.members) == 1 {
			loc := l.leaves[n.members[0]]
			style := markerStyle(loc.Category)
			out = append(out, Feature{
				Kind:     "marker",
				ID:       loc.ID,
				Position: loc.Coordinates,
				Marker:   &style,
				Name:     loc.Name,
			})
			continue
		}
		badge := BadgeFor(len(n.members))
		out = append(out, Feature{
			Kind:      "cluster",
			ClusterID: n.id,
			Position:  unproject(n.pt),
			Count:     len(n.members),
			Badge:     &badge,
		})
	}
	return out
}

func (l *ClusterLayer) memberPositions(n *cnode) []LatLng {
	out := make([]LatLng, len(n.members))
	for i, m := range n.members {
		out[i] = l.leaves[m].Coordinates
	}
	return out
}

// separatesBy reports whether n's members are split across several nodes at zoom.
func (l *ClusterLayer) separatesBy(n *cnode, zoom int) bool {
	for _, other := range l.levels[zoom] {
		if slices.Contains(other.members, n.members[0]) {
			return len(other.members) != len(n.members)
		}
	}
	return true
}

func buildClusterLayer(id string, locs []dataset.Location, minZoom, maxZoom, focusZoom int) *ClusterLayer {
	l := &ClusterLayer{
		id:       id,
		leaves:   slices.Clone(locs),
		levels:   make(map[int][]*cnode, maxZoom-minZoom+1),
		clusters: map[int]*cnode{},
		minZoom:  minZoom,
		maxZoom:  maxZoom,
	}

	prev := make([]*cnode, len(locs))
	for i, loc := range locs {
		prev[i] = &cnode{pt: project(loc.Coordinates), members: []int{i}}
	}

	nextID := 1
	for z := maxZoom; z >= minZoom; z-- {
		radius := clusterRadius
		if z >= focusZoom {
			radius = coincidentRadius
		}
		level := clusterLevel(prev, radius/worldPixels(float64(z)), &nextID)
		for _, n := range level {
			if len(n.members) > 1 {
				l.clusters[n.id] = n
			}
		}
		l.levels[z] = level
		prev = level
	}
	return l
}

// clusterLevel greedily merges nodes lying within r (normalised units) of an
// unclaimed node, keeping input order.
func clusterLevel(nodes []*cnode, r float64, nextID *int) []*cnode {
	if len(nodes) == 0 {
		return nil
	}
	idx := newNodeIndex(nodes, r)
	claimed := make([]bool, len(nodes))
	out := make([]*cnode, 0, len(nodes))

	for i, n := range nodes {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		var group []int
		for _, j := range idx.within(n.pt, r) {
			if !claimed[j] {
				group = append(group, j)
			}
		}
		if len(group) == 0 {
			out = append(out, n)
			continue
		}
		slices.Sort(group)

		weight := float64(len(n.members))
		wx, wy := n.pt.x*weight, n.pt.y*weight
		members := slices.Clone(n.members)
		for _, j := range group {
			claimed[j] = true
			m := nodes[j]
			w := float64(len(m.members))
			wx += m.pt.x * w
			wy += m.pt.y * w
			weight += w
			members = append(members, m.members...)
		}
		out = append(out, &cnode{
			id:      *nextID,
			pt:      point{x: wx / weight, y: wy / weight},
			members: members,
		})
		*nextID++
	}
	return out
}

// nodeIndex answers radius queries over one level's nodes.
type nodeIndex struct {
	nodes    []*cnode
	tree     *quadtree.QuadTree
	overflow []int
}

func newNodeIndex(nodes []*cnode, r float64) *nodeIndex {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX, maxX = math.Min(minX, n.pt.x), math.Max(maxX, n.pt.x)
		minY, maxY = math.Min(minY, n.pt.y), math.Max(maxY, n.pt.y)
	}
	center := quadtree.NewPoint((minX+maxX)/2, (minY+maxY)/2, nil)
	half := quadtree.NewPoint((maxX-minX)/2+r, (maxY-minY)/2+r, nil)

	idx := &nodeIndex{nodes: nodes, tree: quadtree.New(quadtree.NewAABB(center, half), 0, nil)}
	for i, n := range nodes {
		if !idx.tree.Insert(quadtree.NewPoint(n.pt.x, n.pt.y, i)) {
			idx.overflow = append(idx.overflow, i)
		}
	}
	return idx
}

// within returns the indexes of nodes at most r from p.
func (idx *nodeIndex) within(p point, r float64) []int {
	box := quadtree.NewAABB(quadtree.NewPoint(p.x, p.y, nil), quadtree.NewPoint(r, r, nil))
	var out []int
	for _, hit := range idx.tree.Search(box) {
		if i, ok := hit.Data().(int); ok && idx.close(i, p, r) {
			out = append(out, i)
		}
	}
	for _, i := range idx.overflow {
		if idx.close(i, p, r) {
			out = append(out, i)
		}
	}
	return out
}

func (idx *nodeIndex) close(i int, p point, r float64) bool {
	q := idx.nodes[i].pt
	return math.Hypot(q.x-p.x, q.y-p.y) <= r
}

// clusterEngine owns the single attached cluster layer.
type clusterEngine struct {
	layer      *ClusterLayer
	generation int
}

// rebuildClusters discards the cluster layer and builds one from the current
// filter. The replacement happens in a single canvas step.
func (v *Viewer) rebuildClusters() {
	visible := v.visibleLocations()
	v.clusters.generation++
	next := buildClusterLayer(
		fmt.Sprintf("clusters:%d", v.clusters.generation),
		visible, MinZoom, MaxZoom, FocusZoom,
	)
	if v.clusters.layer == nil {
		v.canvas.AddLayer(next)
	} else {
		v.canvas.ReplaceLayer(v.clusters.layer.ID(), next)
	}
	v.clusters.layer = next
	v.logger.Debug("cluster layer rebuilt",
		zap.String("layer", next.ID()),
		zap.Int("markers", len(visible)),
		zap.Int("clusters", len(next.clusters)),
	)
}

// renderClusters sends the features for the current zoom.
func (v *Viewer) renderClusters() {
	l := v.clusters.layer
	if l == nil {
		return
	}
	v.emit.Emit(Command{Type: CmdClusterRender, Layer: l.ID(), Data: l.View(v.canvas.Zoom())})
}

// RenderedMarkers returns the locations drawn by the cluster layer.
func (v *Viewer) RenderedMarkers() []dataset.Location {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.clusters.layer == nil {
		return nil
	}
	return v.clusters.layer.Markers()
}

// Features returns what the cluster layer draws at the current zoom.
func (v *Viewer) Features() []Feature {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.clusters.layer == nil {
		return nil
	}
	return v.clusters.layer.Render(v.canvas.Zoom())
}

// ClickMarker selects the location behind a rendered marker.
func (v *Viewer) ClickMarker(id string) error {
	return v.locked(func() error {
		if v.clusters.layer == nil || !slices.ContainsFunc(v.clusters.layer.leaves, func(l dataset.Location) bool { return l.ID == id }) {
			return fmt.Errorf("%w: no marker for %s", ErrUnknownLocation, id)
		}
		return v.selectByID(id)
	})
}

// ClusterAction is what clicking a cluster did.
type ClusterAction string

const (
	ClusterZoomed     ClusterAction = "zoom"
	ClusterSpiderfied ClusterAction = "spiderfy"
)

// ClickCluster zooms to fit the cluster's members. When no zoom level can
// separate them, the members are fanned out around the cluster instead.
func (v *Viewer) ClickCluster(clusterID int) (ClusterAction, error) {
	var action ClusterAction
	err := v.locked(func() error {
		l := v.clusters.layer
		if l == nil {
			return ErrUnknownCluster
		}
		n, ok := l.clusters[clusterID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
		}
		if v.canvas.Zoom() >= MaxZoom || !l.separatesBy(n, MaxZoom) {
			v.spiderfy(l, n)
			action = ClusterSpiderfied
			return nil
		}
		v.canvas.FitBounds(boundsOf(l.memberPositions(n)), fitPadding, PanDuration)
		v.renderClusters()
		action = ClusterZoomed
		return nil
	})
	return action, err
}

// SpiderLeg is where one member of a spiderfied cluster is drawn.
type SpiderLeg struct {
	ID       string       `json:"id"`
	Position LatLng       `json:"position"`
	Marker   *MarkerStyle `json:"marker"`
}

func (v *Viewer) spiderfy(l *ClusterLayer, n *cnode) {
	zoom := float64(v.canvas.Zoom())
	scale := worldPixels(zoom)
	offsets := spiderOffsets(len(n.members))
	legs := make([]SpiderLeg, len(n.members))
	for i, m := range n.members {
		loc := l.leaves[m]
		style := markerStyle(loc.Category)
		legs[i] = SpiderLeg{
			ID: loc.ID,
			Position: unproject(point{
				x: n.pt.x + offsets[i].x/scale,
				y: n.pt.y + offsets[i].y/scale,
			}),
			Marker: &style,
		}
	}
	v.emit.Emit(Command{
		Type:  CmdClusterSpiderfy,
		Layer: l.ID(),
		Data: struct {
			ClusterID int         `json:"clusterId"`
			Center    LatLng      `json:"center"`
			Legs      []SpiderLeg `json:"legs"`
		}{n.id, unproject(n.pt), legs},
	})
}

const (
	spiderCircleSeparation = 25.0
	spiderCircleStartAngle = math.Pi / 6
	spiderSpiralSeparation = 28.0
	spiderSpiralLengthMin  = 11.0
	spiderSpiralLengthStep = 5.0
	spiderSpiralThreshold  = 9
)

// spiderOffsets returns pixel offsets from the cluster center: a circle for
// small clusters and a spiral once the circle would get crowded.
func spiderOffsets(count int) []point {
	out := make([]point, count)
	if count < spiderSpiralThreshold {
		circumference := spiderCircleSeparation * float64(2+count)
		leg := circumference / (2 * math.Pi)
		step := 2 * math.Pi / float64(count)
		for i := range out {
			angle := spiderCircleStartAngle + float64(i)*step
			out[i] = point{x: leg * math.Cos(angle), y: leg * math.Sin(angle)}
		}
		return out
	}

	leg := spiderSpiralLengthMin
	angle := 0.0
	lengthFactor := spiderSpiralLengthStep * 2 * math.Pi
	for i := count; i >= 0; i-- {
		if i < count {
			out[i] = point{x: leg * math.Cos(angle), y: leg * math.Sin(angle)}
		}
		angle += spiderSpiralSeparation/leg + float64(i)*0.0005
		leg += lengthFactor / angle
	}
	return out
}
