package bmp

import "sync"

// Shared hands a [Bitmap] between goroutines. Only the function passed to Do
// touches the bitmap, one call at a time, so a renderer and an exporter on
// different goroutines never race on the working buffer.
type Shared struct {
	mu sync.Mutex
	b  *Bitmap
}

// Share takes ownership of b. The caller must not use b directly afterwards.
func Share(b *Bitmap) *Shared {
	return &Shared{b: b}
}

// Do runs fn with exclusive access to the bitmap. fn must not retain the
// bitmap or its buffers. Do returns false without calling fn if the bitmap
// was released.
func (s *Shared) Do(fn func(b *Bitmap)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.b == nil {
		return false
	}
	fn(s.b)
	return true
}

// Release releases the bitmap after any running Do returns.
// Releasing more than once is a no-op.
func (s *Shared) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.b != nil {
		s.b.Release()
		s.b = nil
	}
}
