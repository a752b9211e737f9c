package itemfunc

import "strings"

// strFunc implements Func for owned Go strings, standing in for tbox's
// cstring cell (an owned duplicated pointer, here just a string value since
// Go strings are already immutable owned copies). Hash is FNV-1a 32-bit,
// matching tb_item_func_str_hash exactly.
type strFunc struct{}

// Str returns the canonical string item table.
func Str() Func { return strFunc{} }

func (strFunc) Hash(data interface{}, size uint32) uint32 {
	s, _ := data.(string)
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return mask(h, size)
}

func (strFunc) Compare(left, right interface{}) int {
	l, _ := left.(string)
	r, _ := right.(string)
	return strings.Compare(l, r)
}

func (strFunc) Dup(data interface{}) interface{} {
	s, _ := data.(string)
	return s
}

func (f strFunc) Copy(existing, data interface{}) interface{} {
	return f.Dup(data)
}

func (strFunc) Free(data interface{}) {}

func (strFunc) CStr(data interface{}) string {
	s, _ := data.(string)
	return s
}
