package arraystore

import (
	"encoding/binary"
	"math"
)

// Element is the set of 8-byte primitives a store can hold.
type Element interface {
	int64 | float64
}

func kindOf[T Element]() Kind {
	var zero T
	if _, ok := any(zero).(float64); ok {
		return KindDouble
	}
	return KindLong
}

func putElement[T Element](b []byte, v T) {
	switch x := any(v).(type) {
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	}
}

func getElement[T Element](b []byte) T {
	u := binary.LittleEndian.Uint64(b)
	var out T
	switch p := any(&out).(type) {
	case *int64:
		*p = int64(u)
	case *float64:
		*p = math.Float64frombits(u)
	}
	return out
}
