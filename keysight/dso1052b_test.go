package keysight

import "testing"

func TestSetCouplingValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetCoupling(1, "rf"); err == nil {
		t.Error("coupling rf should be rejected before touching the wire")
	}
}

func TestSetProbeAttenuationValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetProbeAttenuation(1, 50); err == nil {
		t.Error("probe factor 50 should be rejected")
	}
}

func TestSetTimebaseModeValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetTimebaseMode("diagonal"); err == nil {
		t.Error("bogus timebase mode should be rejected")
	}
}

func TestSetUnitsValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetUnits(2, "furlongs"); err == nil {
		t.Error("bogus units should be rejected")
	}
}

func TestSetAcquisitionTypeValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetAcquisitionType("envelope"); err == nil {
		t.Error("bogus acquisition type should be rejected")
	}
}

func TestSetAveragesValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetAverages(100); err == nil {
		t.Error("100 averages should be rejected, not a power of two")
	}
}

func TestSetTriggerSlopeValidates(t *testing.T) {
	s := NewScope("localhost:5025")
	if err := s.SetTriggerSlope("sideways"); err == nil {
		t.Error("bogus trigger slope should be rejected")
	}
}
