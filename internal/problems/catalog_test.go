package problems

import (
	"strings"
	"testing"

	"codinground/internal/models"
)

func TestNewCatalogLoadsAllKinds(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog returned error: %v", err)
	}
	for _, kind := range []Kind{KindGeneric, KindGenAI, KindBackend, KindFrontend} {
		p := c.Get(kind)
		if !models.IsFallbackID(p.ID) {
			t.Fatalf("%s problem id %q lacks fallback prefix", kind, p.ID)
		}
		if p.Prompt == "" || p.StarterCode == "" {
			t.Fatalf("%s problem is incomplete: %+v", kind, p)
		}
	}
	if c.Get(KindBackend).Title != "LRU Cache" {
		t.Fatalf("backend fallback should be the LRU cache, got %q", c.Get(KindBackend).Title)
	}
}

func TestKindForTitle(t *testing.T) {
	cases := map[string]Kind{
		"Senior GenAI Engineer":       KindGenAI,
		"AI/ML Engineer":              KindGenAI,
		"Backend Developer":           KindBackend,
		"FRONTEND engineer":           KindFrontend,
		"Backend AI platform":         KindGenAI,
		"Site Reliability Maintainer": KindGeneric,
		"":                            KindGeneric,
	}
	for title, want := range cases {
		if got := KindForTitle(title); got != want {
			t.Fatalf("KindForTitle(%q): expected %s, got %s", title, want, got)
		}
	}
}

func TestGetUnknownKindFallsBackToGeneric(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog returned error: %v", err)
	}
	if got := c.Get("mobile"); got.ID != c.Get(KindGeneric).ID {
		t.Fatalf("expected generic problem, got %s", got.ID)
	}
}

func TestParseCatalogRejectsUnprefixedIDs(t *testing.T) {
	data := []byte("generic:\n  id: two-sum\n  prompt: x\n  starter_code: y\n")
	if _, err := parseCatalog(data); err == nil {
		t.Fatal("expected error for id without fallback prefix")
	}
}

func TestParseCatalogRequiresGeneric(t *testing.T) {
	data := []byte("backend:\n  id: default-x\n  prompt: x\n")
	_, err := parseCatalog(data)
	if err == nil || !strings.Contains(err.Error(), "generic") {
		t.Fatalf("expected missing generic error, got %v", err)
	}
}
