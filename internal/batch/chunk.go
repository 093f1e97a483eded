package batch

// Chunk splits items into contiguous groups of at most size elements,
// preserving order. An empty input yields a single empty group so callers
// that always issue one downstream call per group keep that behavior.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	if len(items) == 0 {
		return [][]T{{}}
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
