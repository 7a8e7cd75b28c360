package fixture

import "testing"

func TestMapProviderStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		shortCode string
		longLabel string
		want      string
	}{
		{"NS", "Not Started", StatusNotStarted},
		{"ft", "Match Finished", StatusFinished},
		{"AET", "Match Finished After Extra Time", StatusFinished},
		{"1H", "First Half", StatusFirstHalf},
		{"PST", "Match Postponed", StatusPostponed},
		{"", "Match Finished After Penalties", StatusFinished},
		{"", "First Half, Kick Off", StatusFirstHalf},
		{"XYZ", "Something New", "XYZ"},
		{"", "", StatusNotStarted},
	}
	for _, tc := range cases {
		if got := MapProviderStatus(tc.shortCode, tc.longLabel); got != tc.want {
			t.Fatalf("MapProviderStatus(%q, %q): got=%s want=%s", tc.shortCode, tc.longLabel, got, tc.want)
		}
	}
}

func TestHasKickedOff(t *testing.T) {
	t.Parallel()

	if HasKickedOff(StatusNotStarted) {
		t.Fatal("not started must not count as kicked off")
	}
	if HasKickedOff(StatusPostponed) || HasKickedOff(StatusCancelled) {
		t.Fatal("cancelled-like fixtures must not count as kicked off")
	}
	if !HasKickedOff(StatusFirstHalf) || !HasKickedOff(StatusFinished) {
		t.Fatal("in-play and finished fixtures must count as kicked off")
	}
}
