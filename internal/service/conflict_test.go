package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFindConflicts_OverlappingDatedPlan(t *testing.T) {
	f := newFixture("2025-01-01")
	planA := f.datedPlan(t, "Plan A", "2025-01-01", "2025-01-31", false, weekly(nil))
	detector := NewConflictDetector(f.plans)

	conflicts, err := detector.FindConflicts(context.Background(), f.owner, mustDate("2025-01-15"), mustDate("2025-02-15"), nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, planA.ID, conflicts[0].ID)
	assert.Equal(t, "Plan A", conflicts[0].Name)
	assert.Equal(t, mustDate("2025-01-01"), conflicts[0].StartDate)
	assert.Equal(t, mustDate("2025-01-31"), conflicts[0].EndDate)
}

func TestFindConflicts_IsSymmetric(t *testing.T) {
	f := newFixture("2025-01-01")
	planA := f.datedPlan(t, "Plan A", "2025-01-01", "2025-01-31", false, weekly(nil))
	planB := f.datedPlan(t, "Plan B", "2025-01-15", "2025-02-15", false, weekly(nil))
	detector := NewConflictDetector(f.plans)

	fromA, err := detector.FindConflicts(context.Background(), f.owner, *planA.StartDate, *planA.EndDate, &planA.ID)
	require.NoError(t, err)
	fromB, err := detector.FindConflicts(context.Background(), f.owner, *planB.StartDate, *planB.EndDate, &planB.ID)
	require.NoError(t, err)

	require.Len(t, fromA, 1)
	require.Len(t, fromB, 1)
	assert.Equal(t, planB.ID, fromA[0].ID)
	assert.Equal(t, planA.ID, fromB[0].ID)
}

func TestFindConflicts_Bounds(t *testing.T) {
	f := newFixture("2025-01-01")
	f.datedPlan(t, "Plan A", "2025-01-10", "2025-01-20", false, weekly(nil))
	f.ongoingPlan(t, "2024-12-01", true, weekly(nil))
	detector := NewConflictDetector(f.plans)

	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"ends on start day", "2025-01-01", "2025-01-10", 1},
		{"starts on end day", "2025-01-20", "2025-01-31", 1},
		{"inside", "2025-01-12", "2025-01-13", 1},
		{"before", "2025-01-01", "2025-01-09", 0},
		{"after", "2025-01-21", "2025-01-31", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts, err := detector.FindConflicts(context.Background(), f.owner, mustDate(tt.start), mustDate(tt.end), nil)
			require.NoError(t, err)
			assert.Len(t, conflicts, tt.want)
		})
	}
}

func TestFindConflicts_ScopedToOwner(t *testing.T) {
	f := newFixture("2025-01-01")
	f.datedPlan(t, "Plan A", "2025-01-01", "2025-01-31", false, weekly(nil))

	conflicts, err := NewConflictDetector(f.plans).FindConflicts(context.Background(), primitive.NewObjectID(), mustDate("2025-01-01"), mustDate("2025-01-31"), nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflicts_RejectsInvertedRange(t *testing.T) {
	f := newFixture("2025-01-01")
	_, err := NewConflictDetector(f.plans).FindConflicts(context.Background(), f.owner, mustDate("2025-02-01"), mustDate("2025-01-01"), nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
