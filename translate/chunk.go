package translate

import "fmt"

// Split divides units into chunks of at most chunkSize, preserving order
// within and across chunks. The partition is lossless: concatenating the
// chunks yields the input. chunkSize must be at least 1.
func Split(units []Unit, chunkSize int) ([][]Unit, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d", ErrConfig, chunkSize)
	}
	if len(units) == 0 {
		return nil, nil
	}
	chunks := make([][]Unit, 0, (len(units)+chunkSize-1)/chunkSize)
	for i := 0; i < len(units); i += chunkSize {
		end := i + chunkSize
		if end > len(units) {
			end = len(units)
		}
		chunks = append(chunks, units[i:end])
	}
	return chunks, nil
}
