package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/bake/internal/core/domain"
)

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.TargetStatus
		isTerminal bool
	}{
		{"Pending", domain.StatusPending, false},
		{"Ready", domain.StatusReady, false},
		{"Queued", domain.StatusQueued, false},
		{"Executing", domain.StatusExecuting, false},
		{"Done", domain.StatusDone, true},
		{"UpToDate", domain.StatusUpToDate, true},
		{"Failed", domain.StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}
