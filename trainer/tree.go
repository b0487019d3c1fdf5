package trainer

import (
	"math"
	"sort"
)

// Node is a single node of a regression tree fitted to gradients. Split
// decisions send rows with feature value <= Threshold to the left child.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

// Tree is one member of a boosted ensemble. Node 0 is the root. Leaf values
// already include the learning-rate shrinkage, so prediction is a plain sum
// over trees.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// buildFunc grows one regression tree on the given gradients and hessians.
// Each backend supplies its own growth strategy.
type buildFunc func(X [][]float64, grad, hess []float64, p Params) *Tree

// minGain guards against splits whose gain is numerical noise.
const minGain = 1e-12

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

// leafValue is the Newton step for a leaf, shrunk by the learning rate.
func leafValue(rows []int, grad, hess []float64, p Params) float64 {
	var g, h float64
	for _, r := range rows {
		g += grad[r]
		h += hess[r]
	}
	return -g / (h + p.Lambda) * p.LearningRate
}

func scoreGain(g, h, lambda float64) float64 {
	return g * g / (h + lambda)
}

// bestSplit searches all features of the given rows for the split with the
// highest gain. The second return value is false when no admissible split
// improves on the unsplit node.
func bestSplit(X [][]float64, rows []int, grad, hess []float64, p Params) (split, bool) {
	if len(rows) < 2*p.MinSamplesLeaf {
		return split{}, false
	}
	var totalG, totalH float64
	for _, r := range rows {
		totalG += grad[r]
		totalH += hess[r]
	}
	parentScore := scoreGain(totalG, totalH, p.Lambda)

	best := split{gain: minGain}
	found := false
	numFeatures := len(X[rows[0]])

	order := make([]int, len(rows))
	for j := 0; j < numFeatures; j++ {
		copy(order, rows)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][j] < X[order[b]][j] })

		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			r := order[pos]
			gl += grad[r]
			hl += hess[r]

			v, next := X[r][j], X[order[pos+1]][j]
			if v == next {
				continue
			}
			if pos+1 < p.MinSamplesLeaf || len(order)-pos-1 < p.MinSamplesLeaf {
				continue
			}

			gain := scoreGain(gl, hl, p.Lambda) + scoreGain(totalG-gl, totalH-hl, p.Lambda) - parentScore
			if gain > best.gain {
				best = split{
					feature:   j,
					threshold: (v + next) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}
	if !found {
		return split{}, false
	}

	for _, r := range rows {
		if X[r][best.feature] <= best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best, true
}

// buildDepthwise grows a tree level by level to MaxDepth, splitting every
// node whose best split has positive gain. This is the XGBoost-style
// strategy.
func buildDepthwise(X [][]float64, grad, hess []float64, p Params) *Tree {
	t := &Tree{}
	allRows := make([]int, len(X))
	for i := range allRows {
		allRows[i] = i
	}

	type task struct {
		node  int
		rows  []int
		depth int
	}
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: leafValue(allRows, grad, hess, p)})
	stack := []task{{node: 0, rows: allRows, depth: 0}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth >= p.MaxDepth {
			continue
		}
		s, ok := bestSplit(X, cur.rows, grad, hess, p)
		if !ok {
			continue
		}

		left := Node{Leaf: true, Value: leafValue(s.left, grad, hess, p)}
		right := Node{Leaf: true, Value: leafValue(s.right, grad, hess, p)}
		li := len(t.Nodes)
		t.Nodes = append(t.Nodes, left, right)

		t.Nodes[cur.node] = Node{
			Feature:   s.feature,
			Threshold: s.threshold,
			Left:      li,
			Right:     li + 1,
		}
		stack = append(stack,
			task{node: li, rows: s.left, depth: cur.depth + 1},
			task{node: li + 1, rows: s.right, depth: cur.depth + 1},
		)
	}
	return t
}

// buildLeafwise repeatedly splits the open leaf with the highest gain until
// NumLeaves is reached. This is the LightGBM-style strategy.
func buildLeafwise(X [][]float64, grad, hess []float64, p Params) *Tree {
	t := &Tree{}
	allRows := make([]int, len(X))
	for i := range allRows {
		allRows[i] = i
	}

	type openLeaf struct {
		node  int
		rows  []int
		split split
		ok    bool
	}
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: leafValue(allRows, grad, hess, p)})
	rootSplit, rootOK := bestSplit(X, allRows, grad, hess, p)
	open := []openLeaf{{node: 0, rows: allRows, split: rootSplit, ok: rootOK}}
	numLeaves := 1

	for numLeaves < p.NumLeaves {
		bestIdx := -1
		for i, leaf := range open {
			if !leaf.ok {
				continue
			}
			if bestIdx < 0 || leaf.split.gain > open[bestIdx].split.gain {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		leaf := open[bestIdx]
		open = append(open[:bestIdx], open[bestIdx+1:]...)

		li := len(t.Nodes)
		t.Nodes = append(t.Nodes,
			Node{Leaf: true, Value: leafValue(leaf.split.left, grad, hess, p)},
			Node{Leaf: true, Value: leafValue(leaf.split.right, grad, hess, p)},
		)
		t.Nodes[leaf.node] = Node{
			Feature:   leaf.split.feature,
			Threshold: leaf.split.threshold,
			Left:      li,
			Right:     li + 1,
		}
		numLeaves++

		ls, lok := bestSplit(X, leaf.split.left, grad, hess, p)
		rs, rok := bestSplit(X, leaf.split.right, grad, hess, p)
		open = append(open,
			openLeaf{node: li, rows: leaf.split.left, split: ls, ok: lok},
			openLeaf{node: li + 1, rows: leaf.split.right, split: rs, ok: rok},
		)
	}
	return t
}

// buildOblivious grows a symmetric tree: every node on a level shares the
// same feature and threshold, as CatBoost does. Levels are added while some
// (feature, threshold) pair yields positive total gain across all leaves.
func buildOblivious(X [][]float64, grad, hess []float64, p Params) *Tree {
	allRows := make([]int, len(X))
	for i := range allRows {
		allRows[i] = i
	}
	groups := [][]int{allRows}
	var levels []struct {
		feature   int
		threshold float64
	}

	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}

	for depth := 0; depth < p.MaxDepth; depth++ {
		bestGain := minGain
		bestFeature, found := -1, false
		bestThreshold := 0.0

		for j := 0; j < numFeatures; j++ {
			for _, threshold := range candidateThresholds(X, j) {
				gain := 0.0
				for _, rows := range groups {
					gain += obliviousGroupGain(X, rows, grad, hess, j, threshold, p)
				}
				if gain > bestGain {
					bestGain = gain
					bestFeature = j
					bestThreshold = threshold
					found = true
				}
			}
		}
		if !found {
			break
		}

		next := make([][]int, 0, 2*len(groups))
		for _, rows := range groups {
			var left, right []int
			for _, r := range rows {
				if X[r][bestFeature] <= bestThreshold {
					left = append(left, r)
				} else {
					right = append(right, r)
				}
			}
			next = append(next, left, right)
		}
		groups = next
		levels = append(levels, struct {
			feature   int
			threshold float64
		}{bestFeature, bestThreshold})
	}

	return materializeOblivious(levels, groups, grad, hess, p)
}

// obliviousGroupGain is the split gain of applying a fixed (feature,
// threshold) pair to one leaf's rows; zero when either side is empty.
func obliviousGroupGain(X [][]float64, rows []int, grad, hess []float64, feature int, threshold float64, p Params) float64 {
	var gl, hl, gr, hr float64
	nl := 0
	for _, r := range rows {
		if X[r][feature] <= threshold {
			gl += grad[r]
			hl += hess[r]
			nl++
		} else {
			gr += grad[r]
			hr += hess[r]
		}
	}
	if nl == 0 || nl == len(rows) {
		return 0
	}
	parent := scoreGain(gl+gr, hl+hr, p.Lambda)
	gain := scoreGain(gl, hl, p.Lambda) + scoreGain(gr, hr, p.Lambda) - parent
	if gain < 0 {
		return 0
	}
	return gain
}

// candidateThresholds returns up to 32 midpoints between quantiles of one
// feature, keeping the oblivious search bounded on large tables.
func candidateThresholds(X [][]float64, feature int) []float64 {
	values := make([]float64, 0, len(X))
	for i := range X {
		values = append(values, X[i][feature])
	}
	sort.Float64s(values)
	values = dedupSorted(values)
	if len(values) < 2 {
		return nil
	}

	const maxCandidates = 32
	var thresholds []float64
	if len(values)-1 <= maxCandidates {
		for i := 0; i < len(values)-1; i++ {
			thresholds = append(thresholds, (values[i]+values[i+1])/2)
		}
		return thresholds
	}
	for k := 1; k <= maxCandidates; k++ {
		idx := k * (len(values) - 1) / (maxCandidates + 1)
		if idx+1 < len(values) {
			thresholds = append(thresholds, (values[idx]+values[idx+1])/2)
		}
	}
	return dedupSorted(thresholds)
}

func dedupSorted(values []float64) []float64 {
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// materializeOblivious expands the per-level splits into the regular node
// array layout shared by all backends. Leaf order matches the group order
// produced by the level-wise partitioning.
func materializeOblivious(levels []struct {
	feature   int
	threshold float64
}, groups [][]int, grad, hess []float64, p Params) *Tree {
	t := &Tree{}
	var grow func(depth, groupStart, groupSpan int) int
	grow = func(depth, groupStart, groupSpan int) int {
		idx := len(t.Nodes)
		if depth == len(levels) {
			value := 0.0
			if len(groups[groupStart]) > 0 {
				value = leafValue(groups[groupStart], grad, hess, p)
			}
			t.Nodes = append(t.Nodes, Node{Leaf: true, Value: value})
			return idx
		}
		t.Nodes = append(t.Nodes, Node{
			Feature:   levels[depth].feature,
			Threshold: levels[depth].threshold,
		})
		half := groupSpan / 2
		left := grow(depth+1, groupStart, half)
		right := grow(depth+1, groupStart+half, half)
		t.Nodes[idx].Left = left
		t.Nodes[idx].Right = right
		return idx
	}
	grow(0, 0, len(groups))
	return t
}

// isFiniteTree reports whether every node value and threshold is finite.
// Used when validating deserialized artifacts.
func isFiniteTree(t *Tree) bool {
	for _, n := range t.Nodes {
		if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) || math.IsNaN(n.Threshold) {
			return false
		}
	}
	return true
}
