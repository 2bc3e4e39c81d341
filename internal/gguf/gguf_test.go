package gguf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyLlamaHeader(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	kv := map[string]any{
		"general.architecture":         "llama",
		"general.name":                 "TinyLlama 1.1B",
		"general.file_type":            uint32(15),
		"llama.block_count":            uint32(22),
		"llama.context_length":         uint32(2048),
		"llama.rope.freq_base":         float32(10000),
		"tokenizer.ggml.tokens":        []string{"<unk>", "<s>", "</s>"},
		"tokenizer.ggml.add_bos_token": true,
	}
	tensors := []Tensor{
		{Name: "token_embd.weight", Dims: []uint64{2048, 32000}},
		{Name: "blk.0.attn_q.weight", Dims: []uint64{2048, 2048}},
		{Name: "output_norm.weight", Dims: []uint64{2048}},
	}
	require.NoError(t, Write(&buf, kv, tensors))
	return buf.Bytes()
}

func TestRead_DecodesHeader(t *testing.T) {
	md, err := Read(bytes.NewReader(tinyLlamaHeader(t)))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), md.Version)
	assert.Equal(t, uint64(3), md.TensorCount)
	assert.Equal(t, "llama", md.Architecture)
	assert.Equal(t, "TinyLlama 1.1B", md.Name)
	assert.Equal(t, uint32(15), md.FileType)
	assert.Equal(t, 22, md.BlockCount)
	assert.Equal(t, 2048, md.ContextLength)
	assert.Equal(t, int64(2048*32000+2048*2048+2048), md.ParamCount)
	assert.Equal(t, true, md.KV["tokenizer.ggml.add_bos_token"])
	assert.InDelta(t, 10000, md.KV["llama.rope.freq_base"], 0.001)
	_, hasTokens := md.KV["tokenizer.ggml.tokens"]
	assert.False(t, hasTokens, "arrays are skipped")
}

func TestReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tiny.gguf")
	require.NoError(t, os.WriteFile(p, tinyLlamaHeader(t), 0o644))
	md, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, 22, md.BlockCount)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.gguf"))
	assert.True(t, os.IsNotExist(err))
}

func TestRead_RejectsBadInput(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a model file")))
	assert.ErrorIs(t, err, ErrNotGGUF)

	_, err = Read(bytes.NewReader(nil))
	assert.Error(t, err)

	var v1 bytes.Buffer
	_ = binary.Write(&v1, binary.LittleEndian, Magic)
	_ = binary.Write(&v1, binary.LittleEndian, uint32(1))
	_, err = Read(&v1)
	assert.ErrorContains(t, err, "unsupported version")

	full := tinyLlamaHeader(t)
	_, err = Read(bytes.NewReader(full[:len(full)-5]))
	assert.Error(t, err, "truncated tensor table")
}
