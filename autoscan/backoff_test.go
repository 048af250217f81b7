package autoscan

import "testing"

func TestMultiplierForNoChangeCountBands(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{0, 1}, {4, 1},
		{5, 2}, {9, 2},
		{10, 4}, {14, 4},
		{15, 8}, {100, 8},
	}
	for _, c := range cases {
		if got := multiplierForNoChangeCount(c.count); got != c.want {
			t.Errorf("multiplierForNoChangeCount(%d) = %d, want %d", c.count, got, c.want)
		}
	}
}

func TestNextBackoffStateResetsOnChange(t *testing.T) {
	count, mult := nextBackoffState(12, true)
	if count != 0 || mult != 1 {
		t.Errorf("expected reset to 0/1, got %d/%d", count, mult)
	}
}

func TestNextBackoffStateIncrementsOnNoChange(t *testing.T) {
	count, mult := nextBackoffState(4, false)
	if count != 5 || mult != 2 {
		t.Errorf("expected 5/2, got %d/%d", count, mult)
	}
}
