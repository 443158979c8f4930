package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank_DescendingStable(t *testing.T) {
	in := []Result{
		{Location: ServiceLocation{Name: "a"}, TotalWeight: 5},
		{Location: ServiceLocation{Name: "b"}, TotalWeight: 9},
		{Location: ServiceLocation{Name: "c"}, TotalWeight: 5},
		{Location: ServiceLocation{Name: "d"}, TotalWeight: 0},
		{Location: ServiceLocation{Name: "e"}, TotalWeight: 9},
	}

	got := Rank(in)

	var names []string
	for _, r := range got {
		names = append(names, r.Location.Name)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, names)

	// Input untouched.
	assert.Equal(t, "a", in[0].Location.Name)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
