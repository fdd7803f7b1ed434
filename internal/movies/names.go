package movies

import "math/rand"

// NameGenerator supplies display names for users synthesized during
// seeding. It is injected so seeding stays deterministic under test and no
// process-wide random state is involved.
type NameGenerator func() string

// defaultNamePool backs the stock generator.
var defaultNamePool = []string{
	"James Parker", "Olivia Bennett", "Daniel Cohen", "Maya Levi",
	"Ethan Brooks", "Noa Friedman", "Liam Carter", "Tamar Goldberg",
	"Lucas Meyer", "Yael Shapiro", "Amir Dahan", "Sophie Klein",
	"Jonathan Ross", "Michal Peretz", "David Mizrahi", "Emma Wallace",
	"Omer Katz", "Grace Holloway", "Adam Navon", "Shira Rosen",
}

// NewPoolNameGenerator draws uniformly from pool using the given seed.
// An empty pool falls back to the stock names.
func NewPoolNameGenerator(pool []string, seed int64) NameGenerator {
	if len(pool) == 0 {
		pool = defaultNamePool
	}
	rng := rand.New(rand.NewSource(seed))
	return func() string {
		return pool[rng.Intn(len(pool))]
	}
}
