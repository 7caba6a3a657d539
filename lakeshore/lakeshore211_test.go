package lakeshore

import "testing"

func TestParseAlarmManualExample(t *testing.T) {
	a, err := parseAlarm("1,+270.0,+0.0,+0.5,0")
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if !a.On {
		t.Error("alarm should be on")
	}
	if a.HighValue != 270.0 {
		t.Errorf("expected high value 270.0, got %g", a.HighValue)
	}
	if a.LowValue != 0.0 {
		t.Errorf("expected low value 0.0, got %g", a.LowValue)
	}
	if a.Deadband != 0.5 {
		t.Errorf("expected deadband 0.5, got %g", a.Deadband)
	}
	if a.Latch {
		t.Error("alarm should not latch")
	}
}

func TestParseAlarmRejectsShortResponse(t *testing.T) {
	if _, err := parseAlarm("1,270.0"); err == nil {
		t.Error("truncated response should not parse")
	}
}

func TestSetDisplayUnitRejectsUnknown(t *testing.T) {
	m := NewMonitor("/dev/null", true)
	if err := m.SetDisplayUnit("parsecs"); err == nil {
		t.Error("bogus display unit should be rejected before touching the wire")
	}
}

func TestSetAnalogConfigurationValidates(t *testing.T) {
	m := NewMonitor("/dev/null", true)
	if err := m.SetAnalogConfiguration(AnalogCurrent+1, Range100K); err == nil {
		t.Error("out of range analog mode should be rejected")
	}
	if err := m.SetAnalogConfiguration(AnalogVoltage, Range1000K+1); err == nil {
		t.Error("out of range analog range should be rejected")
	}
}

func TestSetRelayValidates(t *testing.T) {
	m := NewMonitor("/dev/null", true)
	if err := m.SetRelay(3, 0); err == nil {
		t.Error("relay 3 does not exist and should be rejected")
	}
	if err := m.SetRelay(1, 5); err == nil {
		t.Error("relay mode 5 does not exist and should be rejected")
	}
}
