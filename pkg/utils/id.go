package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID generates a run ID with a timestamp prefix
func GenerateRunID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return "run-" + timestamp + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// GenerateSweepID generates an ID for a parameter sweep.
func GenerateSweepID() string {
	return "sweep-" + uuid.NewString()
}
