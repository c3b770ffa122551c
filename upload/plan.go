package upload

// DefaultChunkSize is the provider's required chunk granularity.
const DefaultChunkSize int64 = 8 << 20

// Chunk is a half-open byte range [Start, End) of the source.
type Chunk struct {
	Start int64
	End   int64
	Final bool
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int64 { return c.End - c.Start }

// Plan splits size bytes into contiguous chunks of at most chunkSize bytes.
// Only the last chunk is Final. A non-positive size yields no chunks.
func Plan(size, chunkSize int64) []Chunk {
	if size <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks := make([]Chunk, 0, (size+chunkSize-1)/chunkSize)
	for start := int64(0); start < size; start += chunkSize {
		end := min(start+chunkSize, size)
		chunks = append(chunks, Chunk{Start: start, End: end, Final: end == size})
	}
	return chunks
}

// Progress returns the upload percentage for offset of total bytes,
// rounded down and capped at 99. Completion is reported by the caller.
func Progress(offset, total int64) int {
	if total <= 0 || offset <= 0 {
		return 0
	}
	return int(min(offset*100/total, 99))
}
