package itemfunc

import "strconv"

// intFunc implements Func for a machine word, matching tb_item_func_int:
// hash is the word XOR'd with a fixed constant and masked, comparison is
// arithmetic.
type intFunc struct{}

// Int returns the canonical integer item table.
func Int() Func { return intFunc{} }

func (intFunc) Hash(data interface{}, size uint32) uint32 {
	v, _ := data.(int64)
	return mask(uint32(v)^0xdeadbeef, size)
}

func (intFunc) Compare(left, right interface{}) int {
	l, _ := left.(int64)
	r, _ := right.(int64)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (intFunc) Dup(data interface{}) interface{} {
	v, _ := data.(int64)
	return v
}

func (f intFunc) Copy(existing, data interface{}) interface{} {
	return f.Dup(data)
}

func (intFunc) Free(data interface{}) {}

func (intFunc) CStr(data interface{}) string {
	v, _ := data.(int64)
	return strconv.FormatInt(v, 10)
}
