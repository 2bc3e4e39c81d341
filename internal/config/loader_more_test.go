package config

import (
	"strings"
	"testing"
)

func TestLoad_Rejects(t *testing.T) {
	d := t.TempDir()
	cases := []struct {
		name, file, body, want string
	}{
		{"yaml syntax", "bad.yaml", "addr: :8080\n: broken\n", "parse yaml"},
		{"json syntax", "bad.json", `{ "addr": ":8080", "models_dir": }`, "parse json"},
		{"toml syntax", "bad.toml", "addr=:8080\nmodels_dir\n", "parse toml"},
		{"yaml type", "threads.yaml", "load:\n  threads: many\n", "parse yaml"},
		{"json type", "gpu.json", `{"load": {"use_gpu": "yes"}}`, "parse json"},
		{"extension", "cfg.ini", "addr=:8080\n", "unsupported config extension"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeTempFile(t, d, tc.file, tc.body)
			_, err := Load(p)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v, want %q", err, tc.want)
			}
		})
	}
}
