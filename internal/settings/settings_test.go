package settings

import (
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := Default()
	if s.Precision != 24 {
		t.Errorf("precision = %d", s.Precision)
	}
	if s.Angle != Degrees {
		t.Errorf("angle = %v", s.Angle)
	}
	if !s.AutoSimplify {
		t.Error("auto-simplify should default on")
	}
	if s.MaxDecimalExponent != 499 {
		t.Errorf("max exponent = %d", s.MaxDecimalExponent)
	}
}

func TestScopedAdjustments(t *testing.T) {
	s := Default()
	restore := s.SavePrecision(10)
	if s.Precision != 34 {
		t.Errorf("bumped precision = %d", s.Precision)
	}
	restore()
	if s.Precision != 24 {
		t.Errorf("restored precision = %d", s.Precision)
	}

	r2 := s.SaveAutoSimplify(false)
	r3 := s.SaveAngle(Radians)
	if s.AutoSimplify || s.Angle != Radians {
		t.Error("scoped set failed")
	}
	r3()
	r2()
	if !s.AutoSimplify || s.Angle != Degrees {
		t.Error("scoped restore failed")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := Default()
	s.Precision = 34
	s.Angle = Radians
	s.HardwareFloatingPoint = true
	if err := st.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	st.Close()

	// Reopen and load into fresh defaults
	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	loaded := Default()
	if err := st.Load(loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Precision != 34 || loaded.Angle != Radians || !loaded.HardwareFloatingPoint {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoadMissingRowKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	s := Default()
	if err := st.Load(s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Precision != 24 {
		t.Error("defaults should survive an empty store")
	}
}
