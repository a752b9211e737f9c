package itemfunc

import (
	"bytes"
	"fmt"
	"hash/crc32"
)

// ifmFunc implements Func for "internal fixed memory" cells: the cell IS
// the storage, size bytes inline, matching tb_item_func_ifm. Hash/compare/
// cstr all compute directly over those bytes.
type ifmFunc struct {
	size int
}

// IFM returns an internal-fixed-memory item table for cells of the given
// byte size.
func IFM(size int) Func { return ifmFunc{size: size} }

func (f ifmFunc) Hash(data interface{}, size uint32) uint32 {
	b, _ := data.([]byte)
	return mask(crc32.ChecksumIEEE(b), size)
}

func (ifmFunc) Compare(left, right interface{}) int {
	l, _ := left.([]byte)
	r, _ := right.([]byte)
	return bytes.Compare(l, r)
}

func (f ifmFunc) Dup(data interface{}) interface{} {
	b, _ := data.([]byte)
	out := make([]byte, f.size)
	copy(out, b)
	return out
}

func (f ifmFunc) Copy(existing, data interface{}) interface{} {
	out, _ := existing.([]byte)
	if out == nil {
		out = make([]byte, f.size)
	}
	for i := range out {
		out[i] = 0
	}
	b, _ := data.([]byte)
	copy(out, b)
	return out
}

func (ifmFunc) Free(data interface{}) {}

func (ifmFunc) CStr(data interface{}) string {
	b, _ := data.([]byte)
	return fmt.Sprintf("0x%x", crc32.ChecksumIEEE(b))
}
