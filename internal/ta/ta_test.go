package ta

import (
	"math"
	"testing"
)

func TestSMAExactWindow(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7}

	v, ok := SMA(closes, 7)
	if !ok {
		t.Fatal("expected SMA to be available for len==window")
	}
	if v != 4.0 {
		t.Errorf("expected mean 4.0, got %f", v)
	}
}

func TestSMALastWindowOnly(t *testing.T) {
	closes := []float64{100, 100, 100, 1, 2, 3}

	v, ok := SMA(closes, 3)
	if !ok {
		t.Fatal("expected SMA to be available")
	}
	if v != 2.0 {
		t.Errorf("expected SMA over last 3 closes to be 2.0, got %f", v)
	}
}

func TestSMAInsufficientHistory(t *testing.T) {
	if _, ok := SMA([]float64{1, 2, 3}, 4); ok {
		t.Error("expected SMA to be unavailable for len < window")
	}
	if _, ok := SMA(nil, 1); ok {
		t.Error("expected SMA to be unavailable for empty series")
	}
}

func TestRSIInsufficientHistory(t *testing.T) {
	series := make([]float64, 0, 14)
	for i := 0; i < 14; i++ {
		series = append(series, float64(i))
		if _, ok := RSI(series, 14); ok {
			t.Fatalf("expected RSI unavailable at len=%d", len(series))
		}
	}
}

func TestRSIRange(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
		46.03, 46.41, 46.22, 45.64,
	}
	v, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be available")
	}
	if v < 0 || v > 100 {
		t.Errorf("RSI out of range: %f", v)
	}
}

func TestRSIStrictlyIncreasing(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	v, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be available")
	}
	// All-gain series: avg loss is 0, so by the documented convention the
	// ratio collapses to 0 and RSI lands at 0, not the textbook 100.
	if v != 0.0 {
		t.Errorf("expected degenerate all-gain RSI of 0, got %f", v)
	}
}

func TestRSIStrictlyDecreasing(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	v, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be available")
	}
	if v > 1.0 {
		t.Errorf("expected RSI near 0 for strictly decreasing series, got %f", v)
	}
}

func TestRSIMostlyRisingIsHigh(t *testing.T) {
	closes := make([]float64, 0, 30)
	p := 100.0
	for i := 0; i < 30; i++ {
		if i%7 == 3 {
			p -= 0.1
		} else {
			p += 1.0
		}
		closes = append(closes, p)
	}
	v, ok := RSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be available")
	}
	if v < 90 {
		t.Errorf("expected RSI near 100 for rising series with tiny dips, got %f", v)
	}
	if math.IsNaN(v) {
		t.Error("RSI must not be NaN")
	}
}
