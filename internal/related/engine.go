// Package related ranks candidate related products: a taxonomy-gated pool,
// scored by shared signals, with manual picks pinned to the top.
package related

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

const (
	tagWeight          = 5
	businessTypeWeight = 2
	sameCategoryBonus  = 3
	similarPriceBonus  = 2

	// HighMatchScore is the score from which a candidate counts as a strong match.
	HighMatchScore = 5

	suggestStrong   = 3
	suggestFallback = 4
)

// Candidate is one ranked related product.
type Candidate struct {
	Product   *models.Product `json:"product"`
	Score     int             `json:"score"`
	Reasons   []string        `json:"reasons"`
	HighMatch bool            `json:"high_match"`
	Manual    bool            `json:"manual"`
}

// Pool returns the candidate set for p: products under p's type, else its
// subcategory, else its primary category. An empty level falls through to
// the next one; a product without category pools over everything.
func Pool(p *models.Product, all []models.Product, forest *taxonomy.Forest) []*models.Product {
	others := make([]*models.Product, 0, len(all))
	for i := range all {
		if isSelf(p, &all[i]) {
			continue
		}
		others = append(others, &all[i])
	}
	if p.CategoryID == nil || forest == nil {
		return others
	}

	target := forest.Ancestry(*p.CategoryID)
	for _, level := range []models.Level{models.LevelType, models.LevelSubcategory} {
		anchor, ok := target[level]
		if !ok {
			continue
		}
		var pool []*models.Product
		for _, c := range others {
			if c.CategoryID != nil && forest.Ancestry(*c.CategoryID)[level] == anchor {
				pool = append(pool, c)
			}
		}
		if len(pool) > 0 {
			return pool
		}
	}

	var pool []*models.Product
	for _, c := range others {
		if c.CategoryID != nil && *c.CategoryID == *p.CategoryID {
			pool = append(pool, c)
		}
	}
	return pool
}

// Scope returns the categories whose products can enter the pool of p: the
// subtree under p's subcategory, or its type, plus p's own category. Nil means
// p has no category and every product is a candidate.
func Scope(p *models.Product, forest *taxonomy.Forest) []uuid.UUID {
	if p.CategoryID == nil || forest == nil {
		return nil
	}
	ids := []uuid.UUID{*p.CategoryID}
	target := forest.Ancestry(*p.CategoryID)
	for _, level := range []models.Level{models.LevelSubcategory, models.LevelType} {
		anchor, ok := target[level]
		if !ok {
			continue
		}
		for _, id := range append([]uuid.UUID{anchor}, forest.Descendants(anchor)...) {
			if id != *p.CategoryID {
				ids = append(ids, id)
			}
		}
		break
	}
	return ids
}

func isSelf(p, c *models.Product) bool {
	if p.ID != uuid.Nil && c.ID == p.ID {
		return true
	}
	return p.Slug != "" && c.Slug == p.Slug
}

// Score computes the relevance of c to p along with the reasons shown to admins.
func Score(p, c *models.Product) (int, []string) {
	score := 0
	reasons := []string{}

	if n := overlap(p.Tags, c.Tags); n > 0 {
		score += n * tagWeight
		reasons = append(reasons, plural(n, "Shared Tag"))
	}
	if n := overlap(p.BusinessTypeSlugs, c.BusinessTypeSlugs); n > 0 {
		score += n * businessTypeWeight
		reasons = append(reasons, plural(n, "Shared Business Type"))
	}
	if p.CategoryID != nil && c.CategoryID != nil && *p.CategoryID == *c.CategoryID {
		score += sameCategoryBonus
		reasons = append(reasons, "Same Category")
	}
	if p.Price > 0 && c.Price*10 >= p.Price*7 && c.Price*10 <= p.Price*13 {
		score += similarPriceBonus
		reasons = append(reasons, "Similar Price")
	}
	return score, reasons
}

func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Rank scores the pool of p. Manual picks of p come first, and join the list
// even when the pool would exclude them; ids that resolve to no product are
// dropped. Order is stable within the manual and scored groups.
func Rank(p *models.Product, all []models.Product, forest *taxonomy.Forest) []Candidate {
	manual := make(map[uuid.UUID]struct{})
	for _, id := range p.RelatedIDs() {
		manual[id] = struct{}{}
	}

	pool := Pool(p, all, forest)
	inPool := make(map[uuid.UUID]struct{}, len(pool))
	for _, c := range pool {
		inPool[c.ID] = struct{}{}
	}
	for i := range all {
		c := &all[i]
		if _, pick := manual[c.ID]; !pick || isSelf(p, c) {
			continue
		}
		if _, ok := inPool[c.ID]; !ok {
			pool = append(pool, c)
		}
	}

	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		score, reasons := Score(p, c)
		_, isManual := manual[c.ID]
		out = append(out, Candidate{
			Product:   c,
			Score:     score,
			Reasons:   reasons,
			HighMatch: score >= HighMatchScore,
			Manual:    isManual,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Manual != out[j].Manual {
			return out[i].Manual
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// AutoSuggest picks up to three candidates sharing at least one tag, or
// failing that up to four with any positive score. Manual picks are skipped.
// The result is empty, never nil, when nothing qualifies.
func AutoSuggest(ranked []Candidate) []Candidate {
	scored := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		if !c.Manual {
			scored = append(scored, c)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	strong := make([]Candidate, 0, suggestStrong)
	for _, c := range scored {
		if c.Score >= HighMatchScore && len(strong) < suggestStrong {
			strong = append(strong, c)
		}
	}
	if len(strong) > 0 {
		return strong
	}

	weak := make([]Candidate, 0, suggestFallback)
	for _, c := range scored {
		if c.Score > 0 && len(weak) < suggestFallback {
			weak = append(weak, c)
		}
	}
	return weak
}
