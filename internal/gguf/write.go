package gguf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Tensor describes a tensor header entry for Write.
type Tensor struct {
	Name string
	Dims []uint64
}

// Write encodes a GGUF v3 header holding the given scalar metadata and tensor
// shapes. Tensor data is not written, so the output is only useful to header
// readers such as Read and model discovery.
func Write(w io.Writer, kv map[string]any, tensors []Tensor) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}
	e.u32(Magic)
	e.u32(3)
	e.u64(uint64(len(tensors)))
	e.u64(uint64(len(kv)))

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.str(k)
		switch v := kv[k].(type) {
		case string:
			e.u32(uint32(TypeString))
			e.str(v)
		case bool:
			e.u32(uint32(TypeBool))
			if v {
				e.bytes([]byte{1})
			} else {
				e.bytes([]byte{0})
			}
		case uint32:
			e.u32(uint32(TypeUint32))
			e.u32(v)
		case int32:
			e.u32(uint32(TypeInt32))
			e.u32(uint32(v))
		case uint64:
			e.u32(uint32(TypeUint64))
			e.u64(v)
		case int64:
			e.u32(uint32(TypeInt64))
			e.u64(uint64(v))
		case float32:
			e.u32(uint32(TypeFloat32))
			e.u32(math.Float32bits(v))
		case float64:
			e.u32(uint32(TypeFloat64))
			e.u64(math.Float64bits(v))
		case []string:
			e.u32(uint32(TypeArray))
			e.u32(uint32(TypeString))
			e.u64(uint64(len(v)))
			for _, s := range v {
				e.str(s)
			}
		default:
			return fmt.Errorf("gguf: unsupported metadata type %T for %q", v, k)
		}
	}

	var offset uint64
	for _, t := range tensors {
		e.str(t.Name)
		e.u32(uint32(len(t.Dims)))
		elems := uint64(1)
		for _, d := range t.Dims {
			e.u64(d)
			elems *= d
		}
		e.u32(0) // F32
		e.u64(offset)
		offset += elems * 4
	}
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type encoder struct {
	w   io.Writer
	err error
	buf [8]byte
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.bytes(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.bytes(e.buf[:8])
}

func (e *encoder) str(s string) {
	e.u64(uint64(len(s)))
	e.bytes([]byte(s))
}
