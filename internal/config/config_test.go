package config

import (
	"testing"
	"time"
)

func TestDispatchSettings_Defaults(t *testing.T) {
	s := NewDispatchSettings()

	v := s.Values()
	if v.GraceOnAcceptance != 5*time.Minute {
		t.Errorf("expected default grace 5m, got %v", v.GraceOnAcceptance)
	}
	if v.InactiveRideThreshold != 30*time.Minute {
		t.Errorf("expected default inactivity threshold 30m, got %v", v.InactiveRideThreshold)
	}
}

func TestDispatchSettings_ReloadSwapsSnapshot(t *testing.T) {
	s := NewDispatchSettings()

	t.Setenv("GRACE_MINUTES_ON_ACCEPTANCE", "12")
	t.Setenv("INACTIVE_RIDE_THRESHOLD_MINUTES", "45")
	s.Reload()

	v := s.Values()
	if v.GraceOnAcceptance != 12*time.Minute {
		t.Errorf("expected grace 12m after reload, got %v", v.GraceOnAcceptance)
	}
	if v.InactiveRideThreshold != 45*time.Minute {
		t.Errorf("expected threshold 45m after reload, got %v", v.InactiveRideThreshold)
	}
}

func TestDispatchSettings_IgnoresMalformedValues(t *testing.T) {
	s := NewDispatchSettings()

	t.Setenv("GRACE_MINUTES_ON_ACCEPTANCE", "soon")
	s.Reload()

	if got := s.Values().GraceOnAcceptance; got != 5*time.Minute {
		t.Errorf("expected default grace kept on malformed input, got %v", got)
	}
}
