package utils

import (
	"strings"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if !strings.HasPrefix(id1, "run-") {
		t.Errorf("Expected run ID to start with 'run-', got %s", id1)
	}
	if id1 == id2 {
		t.Errorf("Expected unique run IDs, got %s twice", id1)
	}
}

func TestGenerateSweepID(t *testing.T) {
	id := GenerateSweepID()
	if !strings.HasPrefix(id, "sweep-") {
		t.Errorf("Expected sweep ID to start with 'sweep-', got %s", id)
	}
	if len(id) != len("sweep-")+36 {
		t.Errorf("Expected a UUID suffix, got %s", id)
	}
}
