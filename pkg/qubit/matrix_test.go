package qubit

import "testing"

func TestMatMulIdentity(t *testing.T) {
	m := NewMatrix(2)
	m.Set(0, 0, complex(1, 2))
	m.Set(0, 1, complex(3, -1))
	m.Set(1, 0, complex(0, 1))
	m.Set(1, 1, complex(2, 0))

	out, err := MatMul(m, Identity(2))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if out.At(i, j) != m.At(i, j) {
				t.Fatalf("m*I[%d][%d] = %v, want %v", i, j, out.At(i, j), m.At(i, j))
			}
		}
	}
}

func TestConjTransposeHermitianRoundtrip(t *testing.T) {
	m := NewMatrix(2)
	m.Set(0, 0, 1)
	m.Set(1, 1, 2)
	m.Set(0, 1, complex(0, 1))
	m.Set(1, 0, complex(0, -1))
	if !m.IsHermitian(1e-12) {
		t.Fatal("expected m to be Hermitian")
	}
	ct := m.ConjTranspose()
	for i := range m.Data {
		if ct.Data[i] != m.Data[i] {
			t.Fatalf("Hermitian matrix should equal its own conjugate transpose at index %d", i)
		}
	}
}

func TestTraceAndFrobeniusNorm(t *testing.T) {
	m := diagMatrix(3, 4)
	if m.Trace() != 7 {
		t.Fatalf("Trace(diag(3,4)) = %v, want 7", m.Trace())
	}
	if got := m.FrobeniusNorm(); got != 5 {
		t.Fatalf("FrobeniusNorm(diag(3,4)) = %v, want 5", got)
	}
}

func TestMismatchedDimensionsError(t *testing.T) {
	a := NewMatrix(2)
	b := NewMatrix(3)
	if _, err := MatMul(a, b); err == nil {
		t.Fatal("expected error for mismatched MatMul dimensions")
	}
	if _, err := a.Add(b); err == nil {
		t.Fatal("expected error for mismatched Add dimensions")
	}
}
