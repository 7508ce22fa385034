package ensemble

import (
	"math/rand/v2"
	"sort"
)

// Node is one node of a regression tree stored in a flat slice.
// Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Samples   int
}

// IsLeaf reports whether the node is a leaf.
func (n Node) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is a CART regression tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for one encoded row.
func (t *Tree) Predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

const minGain = 1e-12

// splitInfo describes the best split found for a node.
type splitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
}

// treeBuilder grows one tree on a bootstrap sample.
type treeBuilder struct {
	X              [][]float64
	y              []float64
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
	rng            *rand.Rand
	nodes          []Node
}

func (b *treeBuilder) build(indices []int) Tree {
	b.nodes = b.nodes[:0]
	b.buildNode(indices, 0)
	return Tree{Nodes: b.nodes}
}

// buildNode appends the node for indices and returns its position.
func (b *treeBuilder) buildNode(indices []int, depth int) int {
	sum := 0.0
	for _, idx := range indices {
		sum += b.y[idx]
	}
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature: -1,
		Value:   sum / float64(len(indices)),
		Samples: len(indices),
	})

	if b.maxDepth > 0 && depth >= b.maxDepth {
		return pos
	}
	if len(indices) < 2*b.minSamplesLeaf {
		return pos
	}

	best := b.findBestSplit(indices, sum)
	if best.Gain <= 0 {
		return pos
	}

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, idx := range indices {
		if b.X[idx][best.Feature] <= best.Threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	l := b.buildNode(left, depth+1)
	r := b.buildNode(right, depth+1)
	b.nodes[pos].Feature = best.Feature
	b.nodes[pos].Threshold = best.Threshold
	b.nodes[pos].Left = l
	b.nodes[pos].Right = r
	return pos
}

func (b *treeBuilder) candidateFeatures() []int {
	nFeatures := len(b.X[0])
	if b.maxFeatures <= 0 || b.maxFeatures >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(nFeatures)[:b.maxFeatures]
}

func (b *treeBuilder) findBestSplit(indices []int, total float64) splitInfo {
	best := splitInfo{Feature: -1}
	for _, feature := range b.candidateFeatures() {
		split := b.findBestSplitForFeature(indices, feature, total)
		if split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

// findBestSplitForFeature sweeps the sorted values of one feature.
// The gain is the reduction in squared error: sumL²/nL + sumR²/nR − sum²/n.
func (b *treeBuilder) findBestSplitForFeature(indices []int, feature int, total float64) splitInfo {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool {
		return b.X[sorted[i]][feature] < b.X[sorted[j]][feature]
	})

	n := float64(len(sorted))
	parent := total * total / n
	// ignore gains that are only rounding noise on a constant target
	best := splitInfo{Feature: feature, Gain: minGain * (1 + parent)}

	leftSum := 0.0
	for i := 0; i < len(sorted)-1; i++ {
		leftSum += b.y[sorted[i]]
		leftCount := i + 1
		rightCount := len(sorted) - leftCount

		cur, next := b.X[sorted[i]][feature], b.X[sorted[i+1]][feature]
		if cur == next {
			continue
		}
		if leftCount < b.minSamplesLeaf || rightCount < b.minSamplesLeaf {
			continue
		}

		rightSum := total - leftSum
		gain := leftSum*leftSum/float64(leftCount) + rightSum*rightSum/float64(rightCount) - parent
		if gain > best.Gain {
			best.Gain = gain
			best.Threshold = (cur + next) / 2
		}
	}
	if best.Gain <= minGain*(1+parent) {
		best.Gain = 0
	}
	return best
}
