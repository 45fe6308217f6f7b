package tags

import (
	"github.com/google/uuid"

	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

// Sources is the read-only context the pipeline resolves references against.
// Nil forests and a nil name map are treated as empty.
type Sources struct {
	Categories    *taxonomy.Forest
	Brands        *taxonomy.Forest
	BusinessTypes map[string]string
}

// Set is an insertion-ordered, de-duplicated tag list.
type Set struct {
	order []string
	seen  map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: map[string]struct{}{}}
}

// Add normalizes each tag and keeps the ones that survive.
func (s *Set) Add(tags ...string) {
	for _, t := range tags {
		s.put(Normalize(t))
	}
}

func (s *Set) put(t string) {
	if t == "" {
		return
	}
	if _, ok := s.seen[t]; ok {
		return
	}
	s.seen[t] = struct{}{}
	s.order = append(s.order, t)
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Slice() []string {
	return append([]string{}, s.order...)
}

// Build derives the tag set of p. It is a pure function of p and src.
func Build(p *models.Product, src Sources) []string {
	set := NewSet()

	set.Add(words(p.Title)...)
	set.Add(p.Brand, p.SKU)

	addAncestry(set, src.Categories, p.CategoryIDs())
	addAncestry(set, src.Brands, p.BrandCategoryIDs())

	for _, f := range p.Filters {
		for _, v := range f.Values {
			addMeasured(set, f.Key, v)
		}
	}
	for _, spec := range p.Specifications {
		addMeasured(set, spec.Label, spec.Value)
		if spec.Unit != "" {
			set.Add(spec.Unit)
			for _, n := range numeric.FindAllString(spec.Value, -1) {
				set.Add(n + phrase(spec.Unit))
			}
		}
	}

	for _, cv := range p.ColorVariants {
		set.Add(cv.ColorName)
	}
	for _, slug := range p.BusinessTypeSlugs {
		if name, ok := src.BusinessTypes[slug]; ok {
			set.Add(name)
		}
	}
	if p.Featured {
		set.Add("featured")
	}
	return set.Slice()
}

func addAncestry(set *Set, forest *taxonomy.Forest, ids []uuid.UUID) {
	if forest == nil {
		return
	}
	for _, id := range ids {
		for _, n := range forest.Path(id) {
			set.Add(n.Name)
		}
	}
}

func addMeasured(set *Set, key, value string) {
	if phrase(value) == "" {
		return
	}
	set.Add(value)
	if k := phrase(key); k != "" {
		set.Add(k + "-" + phrase(value))
	}
	set.Add(decompose(value)...)
}

// Clean normalizes user-supplied tags, keeping their order.
func Clean(tags []string) []string {
	set := NewSet()
	set.Add(tags...)
	return set.Slice()
}

// Union merges b into a, keeping a's order first.
func Union(a, b []string) []string {
	set := NewSet()
	set.Add(a...)
	set.Add(b...)
	return set.Slice()
}

// ManualThreshold is the number of user tags that suppresses the automatic run.
const ManualThreshold = 3

// OnSave picks the tags persisted with a product. User tags at or above
// ManualThreshold are kept as given; otherwise they are merged with generated.
func OnSave(userTags, generated []string) []string {
	user := Clean(userTags)
	if len(user) >= ManualThreshold {
		return user
	}
	return Union(user, generated)
}

// UserSet returns the submitted tags a person typed. A tag stays manual once
// it was saved as manual; otherwise it is manual only when the pipeline did
// not produce it on the previous save (stored minus storedManual) and does
// not produce it now.
func UserSet(submitted, stored, storedManual, generated []string) []string {
	manual := NewSet()
	manual.Add(storedManual...)
	machine := NewSet()
	machine.Add(generated...)
	machine.Add(stored...)

	out := NewSet()
	for _, t := range Clean(submitted) {
		_, wasManual := manual.seen[t]
		_, isMachine := machine.seen[t]
		if wasManual || !isMachine {
			out.put(t)
		}
	}
	return out.Slice()
}
