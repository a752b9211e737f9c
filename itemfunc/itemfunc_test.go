package itemfunc

import (
	"testing"

	"gitlab.com/NebulousLabs/fastrand"
)

// TestHashInRange checks that for every canonical table and any
// power-of-two size N, hash(k) is in [0, N).
func TestHashInRange(t *testing.T) {
	tables := map[string]func() (Func, interface{}){
		"str": func() (Func, interface{}) { return Str(), "some key" },
		"int": func() (Func, interface{}) { return Int(), int64(12345) },
		"ptr": func() (Func, interface{}) { return Ptr(), uintptr(0xdeadbeef) },
		"efm": func() (Func, interface{}) { return EFM(8), fastrand.Bytes(8) },
		"ifm": func() (Func, interface{}) { return IFM(8), fastrand.Bytes(8) },
	}

	for name, mk := range tables {
		f, key := mk()
		for _, size := range []uint32{1, 2, 4, 8, 16, 1024} {
			h := f.Hash(key, size)
			if h >= size {
				t.Fatalf("%s: hash(%v, %d) = %d, want < %d", name, key, size, h, size)
			}
		}
	}
}

// TestDupFreeRoundTrip checks that dup then free does not retain aliasing
// into caller-owned memory for the efm table.
func TestDupFreeRoundTrip(t *testing.T) {
	f := EFM(4)
	original := []byte{1, 2, 3, 4}
	dup := f.Dup(original).([]byte)
	f.Free(dup)

	original[0] = 0xff
	if dup[0] == 0xff {
		t.Fatalf("efm Dup aliased the source slice")
	}
}

func TestIntCompare(t *testing.T) {
	f := Int()
	if f.Compare(int64(1), int64(2)) >= 0 {
		t.Fatal("expected 1 < 2")
	}
	if f.Compare(int64(2), int64(2)) != 0 {
		t.Fatal("expected 2 == 2")
	}
}

func TestHashPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two table size")
		}
	}()
	Int().Hash(int64(1), 3)
}
