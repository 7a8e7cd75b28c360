package usecase

import "testing"

func TestPredictionPoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		predictedHome int
		predictedAway int
		actualHome    int
		actualAway    int
		want          int
	}{
		{name: "exact scoreline", predictedHome: 2, predictedAway: 1, actualHome: 2, actualAway: 1, want: 3},
		{name: "home win right wrong score", predictedHome: 2, predictedAway: 0, actualHome: 1, actualAway: 0, want: 1},
		{name: "predicted draw actual draw", predictedHome: 1, predictedAway: 1, actualHome: 0, actualAway: 0, want: 1},
		{name: "goalless draw vs one all", predictedHome: 0, predictedAway: 0, actualHome: 1, actualAway: 1, want: 1},
		{name: "home win but away won", predictedHome: 2, predictedAway: 1, actualHome: 0, actualAway: 1, want: 0},
		{name: "away win right wrong score", predictedHome: 0, predictedAway: 2, actualHome: 1, actualAway: 3, want: 1},
		{name: "draw predicted home won", predictedHome: 1, predictedAway: 1, actualHome: 2, actualAway: 0, want: 0},
		{name: "exact goalless draw", predictedHome: 0, predictedAway: 0, actualHome: 0, actualAway: 0, want: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := PredictionPoints(tc.predictedHome, tc.predictedAway, tc.actualHome, tc.actualAway)
			if got != tc.want {
				t.Fatalf("unexpected points: got=%d want=%d", got, tc.want)
			}
		})
	}
}
