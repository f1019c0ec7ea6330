package proptest

// Generators for the schema-shaped values the binding tests exercise:
// SQL identifiers and primary-key column lists.

const identFirst = "abcdefghijklmnopqrstuvwxyz"
const identRest = identFirst + "_0123456789"

// Ident generates a plausible snake_case SQL identifier of length [1, maxLen].
func Ident(g *Generator, maxLen int) string {
	if maxLen < 1 {
		maxLen = 1
	}
	n := g.IntRange(1, maxLen)
	buf := make([]byte, n)
	buf[0] = identFirst[g.Intn(len(identFirst))]
	for i := 1; i < n; i++ {
		buf[i] = identRest[g.Intn(len(identRest))]
	}
	return string(buf)
}

// DistinctIdents generates n identifiers that are pairwise distinct.
func DistinctIdents(g *Generator, n, maxLen int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		id := Ident(g, maxLen)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
