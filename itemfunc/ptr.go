package itemfunc

import "fmt"

// ptrFunc implements Func for a raw pointer value, matching
// tb_item_func_ptr: same hashing/comparison shape as int, but the cell is
// not owned (no dup/copy allocate, no free releases).
type ptrFunc struct{}

// Ptr returns the canonical pointer item table.
func Ptr() Func { return ptrFunc{} }

func (ptrFunc) Hash(data interface{}, size uint32) uint32 {
	p := toUintptr(data)
	return mask(uint32(p)^0xdeadbeef, size)
}

func (ptrFunc) Compare(left, right interface{}) int {
	l, r := toUintptr(left), toUintptr(right)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (ptrFunc) Dup(data interface{}) interface{}             { return data }
func (ptrFunc) Copy(existing, data interface{}) interface{}  { return data }
func (ptrFunc) Free(data interface{})                        {}
func (ptrFunc) CStr(data interface{}) string                 { return fmt.Sprintf("%x", toUintptr(data)) }

func toUintptr(data interface{}) uintptr {
	switch v := data.(type) {
	case uintptr:
		return v
	case int:
		return uintptr(v)
	default:
		return 0
	}
}
