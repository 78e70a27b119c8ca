package repositories

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitSubpath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"currentMatch", []string{"currentMatch"}},
		{"currentMatch/teamA", []string{"currentMatch", "teamA"}},
		{"a.b", []string{"a", "b"}},
		{"/a//b/", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitSubpath(tt.in)
		if got == nil {
			got = []string{}
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("splitSubpath(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}
