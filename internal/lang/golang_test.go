package lang

import (
	"strings"
	"testing"

	"archmap/internal/model"
)

func extractGo(t *testing.T, src string) *FileSymbols {
	t.Helper()
	out, err := (&goExtractor{}).Extract([]byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return out
}

func TestGoFunctionsAndMethods(t *testing.T) {
	t.Parallel()

	out := extractGo(t, `package store

import (
	"fmt"
	"strings"
)

const MaxRetries = 3

// Store persists records.
type Store struct {
	db   DB
	open bool
}

// Save writes one record.
func (s *Store) Save(id string) error {
	return s.db.Write(id)
}

// Open readies the store.
func Open(path string) (*Store, error) {
	return nil, fmt.Errorf("not implemented: %s", strings.TrimSpace(path))
}
`)

	if out.Constants["MaxRetries"] != "number" {
		t.Errorf("MaxRetries = %q", out.Constants["MaxRetries"])
	}
	if len(out.Imports) != 2 {
		t.Errorf("imports = %v", out.Imports)
	}

	cls := out.Classes["Store"]
	if cls == nil {
		t.Fatalf("Store missing: %v", out.Classes)
	}
	if cls.Doc != "Store persists records." {
		t.Errorf("doc = %q", cls.Doc)
	}
	if len(cls.Properties) != 2 {
		t.Errorf("properties = %v", cls.Properties)
	}

	save := cls.Methods["Save"]
	if save == nil {
		t.Fatalf("Save missing: %v", cls.Methods)
	}
	if save.Name != "Store.Save" || save.Kind != model.Method {
		t.Errorf("Save = %+v", save)
	}
	if save.Signature != "(id string) error" {
		t.Errorf("Save signature = %q", save.Signature)
	}
	if !strings.Contains(save.Body, "s.db.Write(id)") {
		t.Errorf("Save body = %q", save.Body)
	}

	open := out.Functions["Open"]
	if open == nil {
		t.Fatal("Open missing")
	}
	if open.Signature != "(path string) (*Store, error)" {
		t.Errorf("Open signature = %q", open.Signature)
	}
	if open.Doc != "Open readies the store." {
		t.Errorf("Open doc = %q", open.Doc)
	}
}

func TestGoInterfaceAndEmbedding(t *testing.T) {
	t.Parallel()

	out := extractGo(t, `package store

type Closer interface {
	Close() error
}

type Cache struct {
	Store
	size int
}
`)

	iface := out.Classes["Closer"]
	if iface == nil || iface.Kind != model.ClassInterface || !iface.Abstract {
		t.Fatalf("Closer = %+v", iface)
	}
	if len(iface.Properties) != 1 || iface.Properties[0] != "Close" {
		t.Errorf("methods = %v", iface.Properties)
	}

	cache := out.Classes["Cache"]
	if cache == nil {
		t.Fatal("Cache missing")
	}
	if len(cache.Inherits) != 1 || cache.Inherits[0] != "Store" {
		t.Errorf("inherits = %v", cache.Inherits)
	}
}

func TestGoSyntaxError(t *testing.T) {
	t.Parallel()

	if _, err := (&goExtractor{}).Extract([]byte("package x\nfunc {")); err == nil {
		t.Fatal("expected parse error")
	}
}
