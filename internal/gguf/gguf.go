// Package gguf reads the header of GGUF model files: format version, scalar
// metadata and tensor shapes. Tensor data is never read.
package gguf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Magic is "GGUF" read as a little-endian uint32.
const Magic uint32 = 0x46554747

const (
	maxStringLen = 1 << 24
	maxCount     = 1 << 24
	maxDims      = 8
)

// ErrNotGGUF is returned when the magic number does not match.
var ErrNotGGUF = errors.New("not a GGUF file")

// ValueType enumerates metadata value encodings.
type ValueType uint32

const (
	TypeUint8 ValueType = iota
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeFloat32
	TypeBool
	TypeString
	TypeArray
	TypeUint64
	TypeInt64
	TypeFloat64
)

func (t ValueType) size() int64 {
	switch t {
	case TypeUint8, TypeInt8, TypeBool:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat32:
		return 4
	case TypeUint64, TypeInt64, TypeFloat64:
		return 8
	}
	return 0
}

// Metadata is the decoded header of a GGUF file.
type Metadata struct {
	Version       uint32
	TensorCount   uint64
	Architecture  string
	Name          string
	FileType      uint32
	BlockCount    int
	ContextLength int
	// ParamCount is the sum of element counts over all tensors.
	ParamCount int64
	// KV holds scalar metadata values. Arrays (tokenizer vocabularies and the
	// like) are skipped.
	KV map[string]any
}

// ReadFile decodes the header of the GGUF file at path.
func ReadFile(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a GGUF header from r.
func Read(r io.Reader) (Metadata, error) {
	d := &decoder{r: bufio.NewReaderSize(r, 64<<10)}
	var md Metadata

	magic, err := d.u32()
	if err != nil {
		return md, fmt.Errorf("gguf: read magic: %w", err)
	}
	if magic != Magic {
		return md, ErrNotGGUF
	}
	if md.Version, err = d.u32(); err != nil {
		return md, fmt.Errorf("gguf: read version: %w", err)
	}
	if md.Version < 2 {
		return md, fmt.Errorf("gguf: unsupported version %d", md.Version)
	}
	if md.TensorCount, err = d.u64(); err != nil {
		return md, fmt.Errorf("gguf: read tensor count: %w", err)
	}
	kvCount, err := d.u64()
	if err != nil {
		return md, fmt.Errorf("gguf: read kv count: %w", err)
	}
	if md.TensorCount > maxCount || kvCount > maxCount {
		return md, fmt.Errorf("gguf: implausible header counts (tensors=%d kv=%d)", md.TensorCount, kvCount)
	}

	md.KV = make(map[string]any, kvCount)
	for i := uint64(0); i < kvCount; i++ {
		key, err := d.str()
		if err != nil {
			return md, fmt.Errorf("gguf: kv %d key: %w", i, err)
		}
		vt, err := d.u32()
		if err != nil {
			return md, fmt.Errorf("gguf: kv %q type: %w", key, err)
		}
		if ValueType(vt) == TypeArray {
			if err := d.skipArray(); err != nil {
				return md, fmt.Errorf("gguf: kv %q: %w", key, err)
			}
			continue
		}
		v, err := d.scalar(ValueType(vt))
		if err != nil {
			return md, fmt.Errorf("gguf: kv %q: %w", key, err)
		}
		md.KV[key] = v
	}

	for i := uint64(0); i < md.TensorCount; i++ {
		if _, err := d.str(); err != nil {
			return md, fmt.Errorf("gguf: tensor %d name: %w", i, err)
		}
		nd, err := d.u32()
		if err != nil {
			return md, fmt.Errorf("gguf: tensor %d dims: %w", i, err)
		}
		if nd > maxDims {
			return md, fmt.Errorf("gguf: tensor %d has %d dims", i, nd)
		}
		elems := int64(1)
		for j := uint32(0); j < nd; j++ {
			dim, err := d.u64()
			if err != nil {
				return md, fmt.Errorf("gguf: tensor %d dim %d: %w", i, j, err)
			}
			elems *= int64(dim)
		}
		// ggml type + data offset
		if _, err := d.u32(); err != nil {
			return md, fmt.Errorf("gguf: tensor %d type: %w", i, err)
		}
		if _, err := d.u64(); err != nil {
			return md, fmt.Errorf("gguf: tensor %d offset: %w", i, err)
		}
		md.ParamCount += elems
	}

	md.Architecture, _ = md.KV["general.architecture"].(string)
	md.Name, _ = md.KV["general.name"].(string)
	if ft, ok := asInt(md.KV["general.file_type"]); ok {
		md.FileType = uint32(ft)
	}
	if md.Architecture != "" {
		if n, ok := asInt(md.KV[md.Architecture+".block_count"]); ok {
			md.BlockCount = int(n)
		}
		if n, ok := asInt(md.KV[md.Architecture+".context_length"]); ok {
			md.ContextLength = int(n)
		}
	}
	return md, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case uint8:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

type decoder struct {
	r   *bufio.Reader
	buf [8]byte
}

func (d *decoder) read(n int) ([]byte, error) {
	b := d.buf[:n]
	_, err := io.ReadFull(d.r, b)
	return b, err
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u64()
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d too large", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) scalar(t ValueType) (any, error) {
	if t == TypeString {
		return d.str()
	}
	size := t.size()
	if size == 0 {
		return nil, fmt.Errorf("unknown value type %d", t)
	}
	b, err := d.read(int(size))
	if err != nil {
		return nil, err
	}
	le := binary.LittleEndian
	switch t {
	case TypeUint8:
		return b[0], nil
	case TypeInt8:
		return int8(b[0]), nil
	case TypeBool:
		return b[0] != 0, nil
	case TypeUint16:
		return le.Uint16(b), nil
	case TypeInt16:
		return int16(le.Uint16(b)), nil
	case TypeUint32:
		return le.Uint32(b), nil
	case TypeInt32:
		return int32(le.Uint32(b)), nil
	case TypeFloat32:
		return math.Float32frombits(le.Uint32(b)), nil
	case TypeUint64:
		return le.Uint64(b), nil
	case TypeInt64:
		return int64(le.Uint64(b)), nil
	default: // TypeFloat64
		return math.Float64frombits(le.Uint64(b)), nil
	}
}

func (d *decoder) skipArray() error {
	et, err := d.u32()
	if err != nil {
		return err
	}
	n, err := d.u64()
	if err != nil {
		return err
	}
	if n > maxCount*4 {
		return fmt.Errorf("array length %d too large", n)
	}
	switch ValueType(et) {
	case TypeString:
		for i := uint64(0); i < n; i++ {
			l, err := d.u64()
			if err != nil {
				return err
			}
			if l > maxStringLen {
				return fmt.Errorf("string length %d too large", l)
			}
			if _, err := d.r.Discard(int(l)); err != nil {
				return err
			}
		}
		return nil
	case TypeArray:
		for i := uint64(0); i < n; i++ {
			if err := d.skipArray(); err != nil {
				return err
			}
		}
		return nil
	}
	size := ValueType(et).size()
	if size == 0 {
		return fmt.Errorf("unknown array element type %d", et)
	}
	_, err = io.CopyN(io.Discard, d.r, int64(n)*size)
	return err
}
