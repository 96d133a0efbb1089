package summarizer

import "math"

// graph is an undirected weighted graph over dense integer node ids.
type graph struct {
	adj    []map[int]float64
	degree []float64
	edges  int
}

func newGraph(n int) *graph {
	g := &graph{}
	for range n {
		g.grow()
	}
	return g
}

func (g *graph) grow() {
	g.adj = append(g.adj, map[int]float64{})
	g.degree = append(g.degree, 0)
}

func (g *graph) link(a, b int, w float64) {
	if _, ok := g.adj[a][b]; !ok {
		g.edges++
	}
	g.adj[a][b] += w
	g.adj[b][a] += w
	g.degree[a] += w
	g.degree[b] += w
}

// pageRank runs weighted PageRank until the L1 delta drops below tolerance.
// Rank mass of isolated nodes is spread uniformly.
func (g *graph) pageRank() []float64 {
	n := len(g.adj)
	if n == 0 {
		return nil
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	for range maxIterations {
		dangling := 0.0
		for i := range rank {
			if g.degree[i] == 0 {
				dangling += rank[i]
			}
		}
		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for i, nb := range g.adj {
			if g.degree[i] == 0 {
				continue
			}
			share := damping * rank[i] / g.degree[i]
			for j, w := range nb {
				next[j] += share * w
			}
		}

		delta := 0.0
		for i := range rank {
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if delta < tolerance {
			break
		}
	}
	return rank
}
