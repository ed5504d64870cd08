package matdata

import (
	"os"
	"testing"
)

const testMATFile = "../../testdata/matlab/bell_state_tomography.mat"

// These tests exercise the .mat-backed path only when a fixture is
// present; no fixture ships in this tree, so they skip otherwise.

func TestOpenAndVariables(t *testing.T) {
	if _, err := os.Stat(testMATFile); os.IsNotExist(err) {
		t.Skipf("fixture not available: %s", testMATFile)
	}
	mf, err := Open(testMATFile)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = mf.Close() }()

	vars := mf.Variables()
	if len(vars) == 0 {
		t.Fatal("expected at least one variable in fixture file")
	}
	for _, want := range []string{"dim", "Emn", "Nm", "rho_MLE"} {
		if !mf.HasVariable(want) {
			t.Errorf("fixture is missing expected variable %q", want)
		}
	}
}

func TestLoadExperimentData(t *testing.T) {
	if _, err := os.Stat(testMATFile); os.IsNotExist(err) {
		t.Skipf("fixture not available: %s", testMATFile)
	}
	data, err := LoadExperimentData(testMATFile)
	if err != nil {
		t.Fatalf("LoadExperimentData: %v", err)
	}
	if data.Dim <= 0 {
		t.Errorf("dim = %d, want > 0", data.Dim)
	}
	if len(data.Effects) != len(data.Counts) {
		t.Errorf("got %d effects but %d counts", len(data.Effects), len(data.Counts))
	}
	if data.RhoMLE.Dim != data.Dim {
		t.Errorf("rho_MLE dim = %d, want %d", data.RhoMLE.Dim, data.Dim)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/path/does-not-exist.mat"); err == nil {
		t.Error("expected error opening a nonexistent file")
	}
}

func TestGetFloat64NotFound(t *testing.T) {
	if _, err := os.Stat(testMATFile); os.IsNotExist(err) {
		t.Skipf("fixture not available: %s", testMATFile)
	}
	mf, err := Open(testMATFile)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = mf.Close() }()

	if _, err := mf.GetFloat64("nonexistent_variable_xyz"); err == nil {
		t.Error("expected error for nonexistent variable")
	}
}
