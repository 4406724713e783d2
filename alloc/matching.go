package alloc

import "sort"

// perfectMatching finds an agent→item perfect matching in the support graph of
// w, where (i, j) is an edge iff w[i][j] > eps. It returns perm with
// perm[agent] = item, and perfect=false when no perfect matching exists.
//
// Kuhn's augmenting-path search, O(n·E). Each agent tries its heaviest edges
// first (ties in item order), which keeps the result deterministic and tends
// to pick large bottleneck weights.
func perfectMatching(w [][]float64, eps float64) (perm []int, perfect bool) {
	n := len(w)
	adj := make([][]int, n)
	for i, row := range w {
		for j, v := range row {
			if v > eps {
				adj[i] = append(adj[i], j)
			}
		}
		edges := adj[i]
		sort.SliceStable(edges, func(a, b int) bool { return row[edges[a]] > row[edges[b]] })
	}

	owner := make([]int, n) // owner[item] = matched agent
	for j := range owner {
		owner[j] = -1
	}
	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		for j := range visited {
			visited[j] = false
		}
		if !augment(i, adj, owner, visited) {
			return nil, false
		}
	}

	perm = make([]int, n)
	for j, i := range owner {
		perm[i] = j
	}
	return perm, true
}

// augment tries to match agent i, re-routing previously matched agents along
// an alternating path when its preferred items are taken.
func augment(i int, adj [][]int, owner []int, visited []bool) bool {
	for _, j := range adj[i] {
		if visited[j] {
			continue
		}
		visited[j] = true
		if owner[j] < 0 || augment(owner[j], adj, owner, visited) {
			owner[j] = i
			return true
		}
	}
	return false
}
