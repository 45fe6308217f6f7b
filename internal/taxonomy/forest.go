package taxonomy

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
)

// Ancestry maps each level to the node holding it on the path to the root,
// the node itself included.
type Ancestry map[models.Level]uuid.UUID

// Forest is an immutable index over one kind's flat node list.
type Forest struct {
	kind     models.TaxonomyKind
	order    []uuid.UUID
	nodes    map[uuid.UUID]models.TaxonomyNode
	bySlug   map[string]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
	log      *slog.Logger
}

// NewForest indexes nodes. Roots are stored under uuid.Nil in the children map.
func NewForest(kind models.TaxonomyKind, nodes []models.TaxonomyNode, log *slog.Logger) *Forest {
	f := &Forest{
		kind:     kind,
		order:    make([]uuid.UUID, 0, len(nodes)),
		nodes:    make(map[uuid.UUID]models.TaxonomyNode, len(nodes)),
		bySlug:   make(map[string]uuid.UUID, len(nodes)),
		children: make(map[uuid.UUID][]uuid.UUID),
		log:      logging.Component(log, "taxonomy"),
	}
	for _, n := range nodes {
		n.Kind = kind
		f.order = append(f.order, n.ID)
		f.nodes[n.ID] = n
		f.bySlug[n.Slug] = n.ID
	}
	for _, id := range f.order {
		f.children[f.parentKey(f.nodes[id])] = append(f.children[f.parentKey(f.nodes[id])], id)
	}
	return f
}

// parentKey returns the parent id, or uuid.Nil for roots and orphans.
func (f *Forest) parentKey(n models.TaxonomyNode) uuid.UUID {
	if n.ParentID == nil {
		return uuid.Nil
	}
	if _, ok := f.nodes[*n.ParentID]; !ok {
		return uuid.Nil
	}
	return *n.ParentID
}

func (f *Forest) Kind() models.TaxonomyKind { return f.kind }

func (f *Forest) Len() int { return len(f.order) }

// Nodes returns every node in input order.
func (f *Forest) Nodes() []models.TaxonomyNode {
	out := make([]models.TaxonomyNode, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.nodes[id])
	}
	return out
}

func (f *Forest) Node(id uuid.UUID) (models.TaxonomyNode, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

func (f *Forest) BySlug(slug string) (models.TaxonomyNode, bool) {
	id, ok := f.bySlug[slug]
	if !ok {
		return models.TaxonomyNode{}, false
	}
	return f.nodes[id], true
}

// Children returns the direct children of id; uuid.Nil yields the roots.
func (f *Forest) Children(id uuid.UUID) []models.TaxonomyNode {
	ids := f.children[id]
	out := make([]models.TaxonomyNode, 0, len(ids))
	for _, cid := range ids {
		out = append(out, f.nodes[cid])
	}
	return out
}

// Path returns the chain from the root down to id. A parent chain that
// revisits id is logged and the node is treated as top-level.
func (f *Forest) Path(id uuid.UUID) []models.TaxonomyNode {
	node, ok := f.nodes[id]
	if !ok {
		return nil
	}

	chain := []models.TaxonomyNode{node}
	visited := map[uuid.UUID]struct{}{id: {}}
	cur := node
	for cur.ParentID != nil {
		parent, ok := f.nodes[*cur.ParentID]
		if !ok {
			break
		}
		if _, seen := visited[parent.ID]; seen {
			f.log.Error("taxonomy parent chain revisits a node, treating as top-level",
				"kind", f.kind, "node", id, "slug", node.Slug, "repeat", parent.ID)
			return []models.TaxonomyNode{node}
		}
		visited[parent.ID] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Ancestry walks the parent chain of id.
func (f *Forest) Ancestry(id uuid.UUID) Ancestry {
	path := f.Path(id)
	anc := make(Ancestry, len(path))
	for _, n := range path {
		anc[n.Level] = n.ID
	}
	return anc
}

// IsAncestor reports whether candidate lies on the parent chain of id (id excluded).
func (f *Forest) IsAncestor(candidate, id uuid.UUID) bool {
	for _, n := range f.Path(id) {
		if n.ID == candidate && n.ID != id {
			return true
		}
	}
	return false
}

// Descendants returns every node below id, breadth first. Depth is bounded
// by the kind's level count.
func (f *Forest) Descendants(id uuid.UUID) []uuid.UUID {
	maxDepth := len(f.kind.Levels())
	var out []uuid.UUID
	seen := map[uuid.UUID]struct{}{id: {}}
	frontier := []uuid.UUID{id}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, pid := range frontier {
			for _, cid := range f.children[pid] {
				if _, ok := seen[cid]; ok {
					continue
				}
				seen[cid] = struct{}{}
				out = append(out, cid)
				next = append(next, cid)
			}
		}
		frontier = next
	}
	return out
}

// Subtree returns id together with its descendants as a set.
func (f *Forest) Subtree(id uuid.UUID) map[uuid.UUID]struct{} {
	set := map[uuid.UUID]struct{}{id: {}}
	for _, d := range f.Descendants(id) {
		set[d] = struct{}{}
	}
	return set
}

// TreeNode is one node of the navigation tree.
type TreeNode struct {
	models.TaxonomyNode
	Children []*TreeNode `json:"children"`
}

// Tree groups the flat list by parent in a single pass.
func (f *Forest) Tree() []*TreeNode {
	return BuildTree(f.Nodes())
}

// BuildTree turns a flat node list into a forest. Nodes whose parent is not in
// the list become roots. Input order is kept among siblings.
func BuildTree(nodes []models.TaxonomyNode) []*TreeNode {
	byID := make(map[uuid.UUID]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &TreeNode{TaxonomyNode: n, Children: []*TreeNode{}}
	}

	roots := make([]*TreeNode, 0)
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID != nil && *n.ParentID != n.ID {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, tn)
				continue
			}
		}
		roots = append(roots, tn)
	}
	return roots
}
