package services

import "testing"

func TestSlugBase(t *testing.T) {
	cases := map[string]string{
		"Acme Coffee Beans":    "acme-coffee-beans",
		"  Dates & Honey!! ":   "dates-honey",
		"Oud -- 50ml":          "oud-50ml",
		"عطر العود":            "product",
		"":                     "product",
		"Café Crème Brûlée #3": "caf-cr-me-br-l-e-3",
	}
	for input, want := range cases {
		if got := SlugBase(input); got != want {
			t.Fatalf("SlugBase(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNextAvailableSlugSkipsTakenSuffixes(t *testing.T) {
	taken := map[string]bool{"mug": true, "mug-2": true}
	got := NextAvailableSlug("mug", func(s string) bool { return taken[s] })
	if got != "mug-3" {
		t.Fatalf("expected mug-3, got %s", got)
	}
	if got := NextAvailableSlug("plate", func(s string) bool { return taken[s] }); got != "plate" {
		t.Fatalf("expected plate, got %s", got)
	}
}
