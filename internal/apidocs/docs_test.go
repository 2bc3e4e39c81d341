package apidocs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var v struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	if v.Swagger != "2.0" {
		t.Fatalf("swagger=%q", v.Swagger)
	}
	for _, p := range []string{"/load", "/generate", "/generate/stream", "/stream", "/stop", "/unload", "/info", "/models", "/status"} {
		if _, ok := v.Paths[p]; !ok {
			t.Fatalf("path %s missing", p)
		}
	}
}
