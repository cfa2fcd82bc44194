package content

import "testing"

func TestIsVersionBetter(t *testing.T) {
	cases := []struct {
		newV, best string
		want       bool
	}{
		{"1.0.0", "", true},
		{"1.0.1", "1.0.0", true},
		{"1.0.0", "1.0.1", false},
		{"2.0.0", "1.9.9", true},
		{"1.10.0", "1.9.0", true},
		{"1.0.0", "1.0.0", false},
		{"1.0.0.1", "1.0.0", true},
		{"1.0.0", "1.0.0.1", false},
	}
	for _, c := range cases {
		if got := IsVersionBetter(c.newV, c.best); got != c.want {
			t.Errorf("IsVersionBetter(%q, %q) = %v, want %v", c.newV, c.best, got, c.want)
		}
	}
}

func TestIsVersionBetterNonNumericLoses(t *testing.T) {
	// A numeric component beats a non-numeric one at the same index.
	if IsVersionBetter("1.0.beta", "1.0.2") {
		t.Error("non-numeric component should lose to numeric")
	}
	if !IsVersionBetter("1.0.2", "1.0.beta") {
		t.Error("numeric component should beat non-numeric")
	}
}
