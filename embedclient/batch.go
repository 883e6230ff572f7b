package embedclient

// prepareBatch cleans each input text and separates out the ones worth
// sending to a provider. out is pre-populated with zero vectors of width
// dim for every input, so callers that skip empty-after-cleaning texts
// still return a full-length, order-preserving result (§4.2).
func prepareBatch(texts []string, dim int) (out [][]float32, toRun []string, runIndex []int) {
	out = make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, dim)
	}

	toRun = make([]string, 0, len(texts))
	runIndex = make([]int, 0, len(texts))
	for i, t := range texts {
		c := clean(t)
		if c != "" {
			toRun = append(toRun, c)
			runIndex = append(runIndex, i)
		}
	}

	return out, toRun, runIndex
}
