package runid

import (
	"regexp"
	"testing"
)

func TestGenerate_Format(t *testing.T) {
	id := Generate()

	pattern := regexp.MustCompile(`^run-\d+-[0-9a-f]{8}$`)
	if !pattern.MatchString(id) {
		t.Errorf("Generate() = %q, want match for %s", id, pattern)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("duplicate run ID %q", id)
		}
		seen[id] = true
	}
}
