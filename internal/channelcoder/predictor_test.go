package channelcoder

import "testing"

func TestPredictTruncatingDivision(t *testing.T) {
	// (left+top)/2 truncates toward zero: -1/2 == 0 in Go, not -1.
	got := Predict(1, -1, 0, 0, 0, 0, -10, 10)
	if got != 0 {
		t.Fatalf("predictor 1: got %d want 0", got)
	}
}

func TestPredictZeroUsesChannelZero(t *testing.T) {
	got := Predict(0, 5, 5, 5, 5, 3, -10, 10)
	if got != 3 {
		t.Fatalf("predictor 0: got %d want 3", got)
	}
}

func TestPredictClampRespectsRange(t *testing.T) {
	got := Predict(6, 10, 10, -10, 0, 0, -5, 5)
	if got != 5 {
		t.Fatalf("predictor 6: got %d want 5", got)
	}
}

func TestPredictDefaultMatchesMedian(t *testing.T) {
	a := Predict(2, 4, 9, 1, 0, 0, 0, 20)
	b := Predict(99, 4, 9, 1, 0, 0, 0, 20)
	if a != b {
		t.Fatalf("unknown predictor id should fall back to median3: %d != %d", a, b)
	}
}
