// Package colors maps free-text color combinations onto Petfinder's
// standardized color taxonomy.
//
// Using only the primary color would over-classify multi-colored cats:
// a Tuxedo cat with "Black" as its primary color would be classified as
// plain "Black" when its secondary "White" makes it "Black & White /
// Tuxedo". Classify therefore looks at the full combination of primary,
// secondary, and tertiary colors and applies cascading precedence rules.
//
// The collection pipeline never calls this package; it exists for the
// downstream cleaning stages working over combined output files.
package colors

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Unknown is returned when no color information is available.
const Unknown = "Unknown"

// patternOverride matches pattern colors that take precedence over a plain
// Black+White combination.
var patternOverride = regexp.MustCompile(`^(Tabby|Calico|Tortoiseshell|Torbie)\b`)

// solidToWhite maps solid colors to their "<color> & White" category when
// White appears in the combination.
var solidToWhite = []struct {
	solid    string
	combined string
}{
	{"Gray / Blue / Silver", "Gray & White"},
	{"Blue Cream", "Gray & White"},
	{"Orange / Red", "Orange & White"},
	{"Buff / Tan / Fawn", "Buff & White"},
	{"Cream / Ivory", "Buff & White"},
	{"Brown / Chocolate", "Brown & White"},
}

// Classify reduces a " | "-joined color combination to a single category.
//
// Precedence: point colors, then the explicit tuxedo category, then
// Black+White (with pattern colors overriding), then calico and
// tortoiseshell variants, torbie, the first tabby, smoke, solid+white
// combinations, and the secondary color when Black is primary. A
// single-color input is returned as-is; an empty input is Unknown.
func Classify(combination string) string {
	combination = strings.TrimSpace(combination)
	if combination == "" {
		return Unknown
	}

	if !strings.Contains(combination, "|") {
		return combination
	}

	parts := strings.Split(combination, "|")
	colors := make([]string, 0, len(parts))
	set := make(map[string]bool, len(parts))
	for _, part := range parts {
		color := strings.TrimSpace(part)
		colors = append(colors, color)
		set[color] = true
	}

	// Point colors take highest precedence.
	for _, color := range colors {
		if strings.Contains(color, "Point") {
			return color
		}
	}

	if set["Black & White / Tuxedo"] {
		return "Black & White / Tuxedo"
	}

	if set["Black"] && set["White"] {
		// Pattern colors override a plain Black & White reading.
		for _, color := range colors {
			if patternOverride.MatchString(color) {
				return color
			}
		}
		return "Black & White / Tuxedo"
	}

	if strings.Contains(combination, "Calico") {
		if strings.Contains(combination, "Dilute") {
			return "Dilute Calico"
		}
		return "Calico"
	}

	if strings.Contains(combination, "Tortoiseshell") {
		if strings.Contains(combination, "Dilute") {
			return "Dilute Tortoiseshell"
		}
		return "Tortoiseshell"
	}

	if set["Torbie"] {
		return "Torbie"
	}

	// First tabby in color order wins.
	for _, color := range colors {
		if strings.HasPrefix(color, "Tabby") {
			return color
		}
	}

	if set["Smoke"] {
		return "Smoke"
	}

	if strings.Contains(combination, "White") {
		for _, m := range solidToWhite {
			if set[m.solid] {
				return m.combined
			}
		}
	}

	// Black as primary defers to the secondary color.
	if len(colors) >= 2 && colors[0] == "Black" {
		return colors[1]
	}

	return colors[0]
}

// Classifier memoizes Classify. Combined datasets repeat a small set of
// combinations across hundreds of thousands of rows, so a small LRU covers
// nearly all lookups.
type Classifier struct {
	cache *lru.Cache[string, string]
}

// DefaultCacheSize bounds the memoization cache. The full taxonomy produces
// far fewer distinct combinations than this.
const DefaultCacheSize = 1024

// NewClassifier creates a memoizing classifier. Size <= 0 uses
// DefaultCacheSize.
func NewClassifier(size int) (*Classifier, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Classifier{cache: cache}, nil
}

// Classify returns the category for a combination, consulting the cache
// first.
func (c *Classifier) Classify(combination string) string {
	if category, ok := c.cache.Get(combination); ok {
		return category
	}
	category := Classify(combination)
	c.cache.Add(combination, category)
	return category
}
