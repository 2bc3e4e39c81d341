package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"llamabridge/internal/common/fsutil"
	"llamabridge/internal/gguf"
	"llamabridge/pkg/types"
)

var quantPattern = regexp.MustCompile(`(?i)(?:^|[._-])((?:I?Q\d(?:_[A-Z0-9]+)*)|BF16|F16|F32)(?:[._-]|$)`)

// GGUFScanner discovers *.gguf files in a directory.
type GGUFScanner struct {
	// ReadHeaders enables GGUF header parsing for name and family. Files whose
	// header cannot be parsed are still listed.
	ReadHeaders bool
}

// NewGGUFScanner returns a scanner that reads model headers.
func NewGGUFScanner() *GGUFScanner { return &GGUFScanner{ReadHeaders: true} }

// Scan lists *.gguf files (case-insensitive) directly under dir, sorted by ID.
// ID is the full filename; Path is the absolute file path.
func (s *GGUFScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		m := types.Model{ID: name, Name: name, Path: p, Quant: QuantFromName(name)}
		if fi, err := e.Info(); err == nil {
			m.SizeBytes = fi.Size()
		}
		if s.ReadHeaders {
			if md, err := gguf.ReadFile(p); err == nil {
				if md.Name != "" {
					m.Name = md.Name
				}
				m.Family = md.Architecture
			}
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans a directory for *.gguf files with header parsing enabled.
func LoadDir(dir string) ([]types.Model, error) {
	return NewGGUFScanner().Scan(dir)
}

// QuantFromName extracts a quantization tag such as Q4_K_M from a file name.
func QuantFromName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := quantPattern.FindStringSubmatch(stem)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
