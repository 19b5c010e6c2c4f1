package config

import (
	"testing"
	"time"
)

func TestDefaultMatchesSpecification(t *testing.T) {
	c := Default()
	if c.Duration != 200*time.Second {
		t.Errorf("duration = %v, want 200s", c.Duration)
	}
	if c.ArrivalMin != time.Second || c.ArrivalMax != 3*time.Second {
		t.Errorf("arrival range = [%v,%v], want [1s,3s]", c.ArrivalMin, c.ArrivalMax)
	}
	if c.Quantum != 3*time.Second {
		t.Errorf("quantum = %v, want 3s", c.Quantum)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]string{"--algorithm", "mlfq", "--strategy", "banker", "--duration", "50"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c.Algorithm != "mlfq" || c.Strategy != "banker" {
		t.Errorf("algorithm=%s strategy=%s, want mlfq/banker", c.Algorithm, c.Strategy)
	}
	if c.Duration != 50*time.Second {
		t.Errorf("duration = %v, want 50s", c.Duration)
	}
}

func TestParseRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := Parse([]string{"--algorithm", "bogus"}); err == nil {
		t.Fatal("expected an error for an unknown algorithm")
	}
}

func TestParseRejectsInvertedArrivalRange(t *testing.T) {
	if _, err := Parse([]string{"--arrival-min", "5", "--arrival-max", "1"}); err == nil {
		t.Fatal("expected an error for min > max")
	}
}
