//go:build !unix

package arena

// Map falls back to a heap-backed arena on platforms without anonymous
// mappings. The cleanup function is a no-op; the garbage collector owns
// the memory.
func Map(size int) ([]byte, func() error, error) {
	data, err := New(size)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
