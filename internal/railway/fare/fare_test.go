package fare

import "testing"

func TestBetween(t *testing.T) {
	tests := []struct {
		from, to int
		want     int
	}{
		{0, 1, 300},
		{0, 2, 600},
		{0, 3, 900},
		{1, 3, 600},
	}

	for _, tt := range tests {
		if got := Between(tt.from, tt.to); got != tt.want {
			t.Errorf("Between(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}
