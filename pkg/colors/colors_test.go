package colors

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		combination string
		expected    string
	}{
		{name: "empty input", combination: "", expected: "Unknown"},
		{name: "whitespace only", combination: "   ", expected: "Unknown"},
		{name: "single color passthrough", combination: "Black", expected: "Black"},
		{name: "single tabby passthrough", combination: "Tabby (Orange / Red)", expected: "Tabby (Orange / Red)"},

		// Point colors win over everything else.
		{name: "point beats white", combination: "Seal Point | White", expected: "Seal Point"},
		{name: "point beats black and white", combination: "Black | Flame Point | White", expected: "Flame Point"},
		{name: "first point wins", combination: "Seal Point | Chocolate Point", expected: "Seal Point"},

		// Tuxedo.
		{name: "explicit tuxedo", combination: "Black & White / Tuxedo | Gray / Blue / Silver", expected: "Black & White / Tuxedo"},
		{name: "black plus white", combination: "Black | White", expected: "Black & White / Tuxedo"},
		{name: "tabby overrides black and white", combination: "Black | Tabby (Brown / Chocolate) | White", expected: "Tabby (Brown / Chocolate)"},
		{name: "calico overrides black and white", combination: "Black | Calico | White", expected: "Calico"},

		// Calico and tortoiseshell variants.
		{name: "calico", combination: "Calico | White", expected: "Calico"},
		{name: "dilute calico", combination: "Calico | Dilute | White", expected: "Dilute Calico"},
		{name: "tortoiseshell", combination: "Tortoiseshell | Brown / Chocolate", expected: "Tortoiseshell"},
		{name: "dilute tortoiseshell", combination: "Dilute | Tortoiseshell", expected: "Dilute Tortoiseshell"},
		{name: "torbie", combination: "Torbie | White", expected: "Torbie"},

		// Tabby ordering.
		{name: "first tabby wins", combination: "Tabby (Gray / Blue / Silver) | Tabby (Orange / Red)", expected: "Tabby (Gray / Blue / Silver)"},
		{name: "tabby with solid", combination: "Gray / Blue / Silver | Tabby (Gray / Blue / Silver)", expected: "Tabby (Gray / Blue / Silver)"},

		{name: "smoke", combination: "Smoke | Gray / Blue / Silver", expected: "Smoke"},

		// Solid + White combinations.
		{name: "gray and white", combination: "Gray / Blue / Silver | White", expected: "Gray & White"},
		{name: "blue cream and white", combination: "Blue Cream | White", expected: "Gray & White"},
		{name: "orange and white", combination: "Orange / Red | White", expected: "Orange & White"},
		{name: "buff and white", combination: "Buff / Tan / Fawn | White", expected: "Buff & White"},
		{name: "cream and white", combination: "Cream / Ivory | White", expected: "Buff & White"},
		{name: "brown and white", combination: "Brown / Chocolate | White", expected: "Brown & White"},

		// Black primary defers to secondary.
		{name: "black defers to secondary", combination: "Black | Gray / Blue / Silver", expected: "Gray / Blue / Silver"},

		// Fallback to primary.
		{name: "primary fallback", combination: "Gray / Blue / Silver | Brown / Chocolate", expected: "Gray / Blue / Silver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.combination); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.combination, got, tt.expected)
			}
		})
	}
}

func TestClassifier_Memoizes(t *testing.T) {
	c, err := NewClassifier(0)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	first := c.Classify("Black | White")
	if first != "Black & White / Tuxedo" {
		t.Fatalf("Classify = %q, want Black & White / Tuxedo", first)
	}

	if cached, ok := c.cache.Get("Black | White"); !ok || cached != first {
		t.Errorf("cache entry = %q (present=%v), want %q", cached, ok, first)
	}
	if got := c.Classify("Black | White"); got != first {
		t.Errorf("cached Classify = %q, want %q", got, first)
	}
}

func TestNewClassifier_DefaultSize(t *testing.T) {
	c, err := NewClassifier(-1)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if got := c.Classify("Smoke | White"); got != "Smoke" {
		t.Errorf("Classify = %q, want Smoke", got)
	}
}
