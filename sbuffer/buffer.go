// Package sbuffer implements the scoped byte buffer: a growable byte
// region with explicit clear/resize/append and a lifetime bound to its
// owning stream, backing a stream's read-ahead and write-back caches.
package sbuffer

// Buffer is a growable byte region. It is not safe for concurrent use; the
// owning Stream accesses it only from its own proactor dispatch context.
type Buffer struct {
	data []byte
}

// Len returns the number of live bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the buffer's current capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Bytes returns the live bytes. The slice is only valid until the next
// mutating call on this Buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Clear drops all live bytes without releasing the underlying array.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
}

// Resize grows the buffer's capacity to at least n, without changing Len.
// It mirrors tb_scoped_buffer_resize, which callers use to lend a stable
// destination slice to a back-end's Read.
func (b *Buffer) Resize(n int) {
	if cap(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), n)
	copy(grown, b.data)
	b.data = grown
}

// Append copies p onto the end of the live bytes, growing as needed.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Lend returns a slice of length n backed by this Buffer's storage,
// growing capacity first if necessary, without disturbing Len. It is used
// to hand the read cache's backing array to a back-end as a destination
// slice.
func (b *Buffer) Lend(n int) []byte {
	if n > cap(b.data) {
		b.Resize(n)
	}
	full := b.data[:cap(b.data)]
	return full[:n]
}

// Memmove discards the first n bytes of the live region, compacting the
// remainder to the front, retaining an undrained tail after a partial
// backend write.
func (b *Buffer) Memmove(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	copy(b.data, b.data[n:])
	b.data = b.data[:len(b.data)-n]
}
