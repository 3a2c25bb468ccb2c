package pipeline

import (
	"math"
	"sort"

	"NurAI/internal/summary_service/schema"
)

// Ordering method tags, persisted with the summary for provenance.
const (
	MethodChunkIndex  = "chunk_index"
	MethodCharOffset  = "char_offset_start"
	MethodSourceOrder = "source_order"
	MethodSemantic    = "semantic_pca_greedy"
	MethodAsIs        = "as_is"
	MethodNone        = "none"
)

// missingPositionSentinel sorts chunks without a position hint after every
// chunk that has one.
const missingPositionSentinel = 1e9

// metadataTierThreshold is the fraction of chunks that must carry a hint for
// a metadata tier to be trusted.
const metadataTierThreshold = 0.9

// DetermineOrdering derives a linear reading order for an unordered chunk
// set. Position metadata is preferred when most chunks carry it; otherwise
// an embedding-based heuristic is used, and when embeddings are missing the
// input order is kept with low confidence. Returns the ordered chunks, the
// method tag, and a confidence score in [0,1].
func DetermineOrdering(chunks []schema.Chunk) ([]schema.Chunk, string, float64) {
	if len(chunks) == 0 {
		return []schema.Chunk{}, MethodNone, 0.0
	}

	if order, method, conf, ok := orderByMetadata(chunks); ok {
		return applyOrder(chunks, order), method, conf
	}

	order, method, conf := orderSemantic(chunks)
	return applyOrder(chunks, order), method, conf
}

func applyOrder(chunks []schema.Chunk, order []int) []schema.Chunk {
	ordered := make([]schema.Chunk, len(order))
	for i, idx := range order {
		ordered[i] = chunks[idx]
	}
	return ordered
}

// metaNumber extracts the first numeric value present under any of the keys.
func metaNumber(ch schema.Chunk, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := ch.Metadata[k].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case uint:
			return float64(v), true
		}
	}
	return 0, false
}

// orderByMetadata tries the metadata tiers in priority order: chunk_index,
// then char_offset_start, then source_order/source_sequence. A tier applies
// when more than 90% of chunks carry the hint; missing values sort last.
func orderByMetadata(chunks []schema.Chunk) ([]int, string, float64, bool) {
	tiers := []struct {
		keys       []string
		method     string
		confidence float64
	}{
		{[]string{schema.MetadataKeyChunkIndex}, MethodChunkIndex, 0.95},
		{[]string{schema.MetadataKeyCharOffsetStart}, MethodCharOffset, 0.90},
		{[]string{schema.MetadataKeySourceOrder, schema.MetadataKeySourceSequence}, MethodSourceOrder, 0.85},
	}

	n := len(chunks)
	for _, tier := range tiers {
		values := make([]float64, n)
		valid := 0
		for i, ch := range chunks {
			if v, ok := metaNumber(ch, tier.keys...); ok {
				values[i] = v
				valid++
			} else {
				values[i] = missingPositionSentinel
			}
		}
		if float64(valid)/float64(n) > metadataTierThreshold {
			order := make([]int, n)
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool {
				return values[order[a]] < values[order[b]]
			})
			return order, tier.method, tier.confidence, true
		}
	}

	return nil, MethodNone, 0.0, false
}

// orderSemantic derives an order from chunk embeddings. The returned order
// is the projection of each chunk onto the dominant topic-drift axis
// (documents tend to have one); an independent greedy nearest-neighbor walk
// over the cosine-similarity graph is used only to score how much the two
// heuristics agree. When any chunk lacks an embedding the input order is
// kept at low confidence.
func orderSemantic(chunks []schema.Chunk) ([]int, string, float64) {
	n := len(chunks)
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}

	E := embeddingsMatrix(chunks)
	if E == nil {
		return identity, MethodAsIs, 0.2
	}

	normalizeRows(E)

	proj := principalProjection(E)
	orderA := make([]int, n)
	copy(orderA, identity)
	sort.SliceStable(orderA, func(a, b int) bool {
		return proj[orderA[a]] < proj[orderA[b]]
	})

	path := greedySimilarityPath(E)

	// Confidence measures agreement between the two heuristics: the fraction
	// of adjacent greedy-path pairs that are non-decreasing in the projection
	// order. Range [0.4, 0.8].
	posA := make([]int, n)
	for i, idx := range orderA {
		posA[idx] = i
	}
	agree := 0
	total := len(path)
	for i := 0; i < total-1; i++ {
		if posA[path[i+1]] >= posA[path[i]] {
			agree++
		}
	}
	denom := total - 1
	if denom < 1 {
		denom = 1
	}
	confidence := 0.4 + 0.4*float64(agree)/float64(denom)

	return orderA, MethodSemantic, confidence
}

// embeddingsMatrix builds a row-per-chunk matrix, or nil unless every chunk
// carries a usable embedding.
func embeddingsMatrix(chunks []schema.Chunk) [][]float64 {
	if len(chunks) == 0 {
		return nil
	}
	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return nil
	}
	E := make([][]float64, len(chunks))
	for i, ch := range chunks {
		if len(ch.Embedding) != dim {
			return nil
		}
		row := make([]float64, dim)
		for j, v := range ch.Embedding {
			row[j] = float64(v)
		}
		E[i] = row
	}
	return E
}

func normalizeRows(E [][]float64) {
	for _, row := range E {
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		norm := math.Sqrt(sum) + 1e-12
		for j := range row {
			row[j] /= norm
		}
	}
}

// principalProjection returns the projection of each (mean-centered) row on
// the first principal axis, computed by power iteration on the implicit
// covariance product XᵀXv. The sign of the axis is arbitrary, so the
// resulting order may be globally reversed; that ambiguity is accepted and
// reflected only through the agreement-based confidence score.
func principalProjection(E [][]float64) []float64 {
	n := len(E)
	dim := len(E[0])

	mean := make([]float64, dim)
	for _, row := range E {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	X := make([][]float64, n)
	for i, row := range E {
		centered := make([]float64, dim)
		for j, v := range row {
			centered[j] = v - mean[j]
		}
		X[i] = centered
	}

	// Deterministic start vector keeps the ordering reproducible for
	// identical inputs.
	v := make([]float64, dim)
	for j := range v {
		v[j] = 1.0 / math.Sqrt(float64(dim))
	}

	y := make([]float64, n)
	w := make([]float64, dim)
	for iter := 0; iter < 100; iter++ {
		for i, row := range X {
			var dot float64
			for j, xv := range row {
				dot += xv * v[j]
			}
			y[i] = dot
		}
		for j := range w {
			w[j] = 0
		}
		for i, row := range X {
			yi := y[i]
			for j, xv := range row {
				w[j] += xv * yi
			}
		}
		var norm float64
		for _, wv := range w {
			norm += wv * wv
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			break
		}
		var delta float64
		for j := range v {
			nv := w[j] / norm
			delta += math.Abs(nv - v[j])
			v[j] = nv
		}
		if delta < 1e-9 {
			break
		}
	}

	proj := make([]float64, n)
	for i, row := range X {
		var dot float64
		for j, xv := range row {
			dot += xv * v[j]
		}
		proj[i] = dot
	}
	return proj
}

// greedySimilarityPath walks the full pairwise cosine-similarity matrix:
// start from the chunk least similar to all others (the most isolated,
// typically introductory one), then repeatedly hop to the nearest unvisited
// neighbor, invalidating consumed edges on collision. Falls back to the
// first unvisited index when the greedy step finds nothing.
func greedySimilarityPath(E [][]float64) []int {
	n := len(E)
	sim := make([][]float64, n)
	for i := 0; i < n; i++ {
		sim[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				sim[i][j] = -1.0
				continue
			}
			var dot float64
			for k, v := range E[i] {
				dot += v * E[j][k]
			}
			sim[i][j] = dot
		}
	}

	start := 0
	lowest := math.Inf(1)
	for i := 0; i < n; i++ {
		var mean float64
		for j := 0; j < n; j++ {
			mean += sim[i][j]
		}
		mean /= float64(n)
		if mean < lowest {
			lowest = mean
			start = i
		}
	}

	visited := make(map[int]struct{}, n)
	visited[start] = struct{}{}
	path := []int{start}
	cur := start
	for step := 0; step < n-1; step++ {
		next := argmax(sim[cur])
		tries := 0
		for {
			if _, seen := visited[next]; !seen || tries >= n {
				break
			}
			sim[cur][next] = -1.0
			next = argmax(sim[cur])
			tries++
		}
		if _, seen := visited[next]; seen {
			next = -1
			for i := 0; i < n; i++ {
				if _, ok := visited[i]; !ok {
					next = i
					break
				}
			}
			if next < 0 {
				break
			}
		}
		visited[next] = struct{}{}
		path = append(path, next)
		cur = next
	}
	return path
}

func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
