package calculator

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-12

func equalWeights(n int, w float64) []float64 {
	ws := make([]float64, n)
	for i := range ws {
		ws[i] = w
	}
	return ws
}

func TestCalculateHHI_EqualWeights(t *testing.T) {
	hhi, err := CalculateHHI(equalWeights(10, 0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(hhi-0.1) > tol {
		t.Errorf("expected HHI 0.1, got %v", hhi)
	}
}

func TestCalculateHHI_SingleFullPosition(t *testing.T) {
	ws := make([]float64, 10)
	ws[0] = 1.0
	hhi, err := CalculateHHI(ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hhi != 1.0 {
		t.Errorf("expected HHI 1.0, got %v", hhi)
	}
}

func TestCalculateHHI_Empty(t *testing.T) {
	if _, err := CalculateHHI(nil); err == nil {
		t.Error("expected error for empty weights")
	}
}

func TestCalculateGini_Uniform(t *testing.T) {
	g, err := CalculateGini(equalWeights(10, 0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(g) > tol {
		t.Errorf("expected Gini 0 for uniform weights, got %v", g)
	}
}

func TestCalculateGini_Concentrated(t *testing.T) {
	ws := make([]float64, 10)
	ws[3] = 0.5
	g, err := CalculateGini(ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// c = [0,...,0,0.5]: Σc = 0.5, c[n-1] = 0.5 → (11 − 2)/10
	if math.Abs(g-0.9) > tol {
		t.Errorf("expected Gini 0.9, got %v", g)
	}
}

func TestCalculateGini_OrderIndependent(t *testing.T) {
	a := []float64{0.3, 0.1, 0.2, 0.05}
	b := []float64{0.05, 0.2, 0.3, 0.1}
	ga, _ := CalculateGini(a)
	gb, _ := CalculateGini(b)
	if ga != gb {
		t.Errorf("Gini depends on input order: %v vs %v", ga, gb)
	}
	if a[0] != 0.3 {
		t.Error("CalculateGini must not reorder its input")
	}
}

func TestCalculateGini_ZeroTotal(t *testing.T) {
	if _, err := CalculateGini(make([]float64, 10)); err == nil {
		t.Error("expected error for zero-total weights")
	}
}

func TestCalculateEntropy_Unnormalized(t *testing.T) {
	// Ten 5% positions: top-10 covers half the fund. The unnormalized form
	// gives −10·0.05·ln(0.05), not ln(10).
	h, err := CalculateEntropy(equalWeights(10, 0.05))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := -10 * 0.05 * math.Log(0.05)
	if math.Abs(h-want) > tol {
		t.Errorf("expected %v, got %v", want, h)
	}
	if math.Abs(h-math.Log(10)) < 1e-6 {
		t.Error("entropy must not be renormalized")
	}
}

func TestCalculateEntropy_ZeroWeightContributesNothing(t *testing.T) {
	ws := make([]float64, 10)
	ws[0] = 1.0
	h, err := CalculateEntropy(ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 0 {
		t.Errorf("expected 0, got %v", h)
	}
}

func TestCalculateEntropy_NegativeWeight(t *testing.T) {
	if _, err := CalculateEntropy([]float64{0.2, -0.1}); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestCalculateLogReturn(t *testing.T) {
	r, err := CalculateLogReturn(100, 110)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(r-math.Log(1.1)) > tol {
		t.Errorf("expected ln(1.1), got %v", r)
	}
	if _, err := CalculateLogReturn(0, 110); err == nil {
		t.Error("expected error for zero price")
	}
	if _, err := CalculateLogReturn(100, -1); err == nil {
		t.Error("expected error for negative price")
	}
	for _, p := range [][2]float64{{math.NaN(), 110}, {100, math.Inf(1)}, {math.MaxFloat64, math.SmallestNonzeroFloat64}} {
		if _, err := CalculateLogReturn(p[0], p[1]); !errors.Is(err, errNonFinite) {
			t.Errorf("CalculateLogReturn(%v, %v): expected non-finite error, got %v", p[0], p[1], err)
		}
	}
}

func TestIndicesRejectNonFinite(t *testing.T) {
	bad := [][]float64{
		{0.5, math.NaN()},
		{0.5, math.Inf(1)},
	}
	for _, w := range bad {
		if _, err := CalculateHHI(w); !errors.Is(err, errNonFinite) {
			t.Errorf("HHI(%v): expected non-finite error, got %v", w, err)
		}
		if _, err := CalculateGini(w); !errors.Is(err, errNonFinite) {
			t.Errorf("Gini(%v): expected non-finite error, got %v", w, err)
		}
		if _, err := CalculateEntropy(w); !errors.Is(err, errNonFinite) {
			t.Errorf("Entropy(%v): expected non-finite error, got %v", w, err)
		}
	}
	if _, err := CalculateHHI([]float64{1e200}); !errors.Is(err, errNonFinite) {
		t.Errorf("HHI overflow: expected non-finite error, got %v", err)
	}
}
