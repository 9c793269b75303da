package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"0", "0"},
	}
	for _, tc := range cases {
		in, _ := decimal.NewFromString(tc.in)
		want, _ := decimal.NewFromString(tc.want)
		if got := Round2(in); !got.Equal(want) {
			t.Fatalf("Round2(%s) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestSum(t *testing.T) {
	got := Sum(FromFloat(0.1), FromFloat(0.2), FromFloat(0.3))
	if !got.Equal(FromFloat(0.6)) {
		t.Fatalf("expected 0.6, got %s", got)
	}
}
