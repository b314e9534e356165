package main

import (
	"alcyxob/workout-planner/internal/service"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleReport() *service.GenerationReport {
	start := time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC)
	return &service.GenerationReport{
		StartedAt:        start,
		FinishedAt:       start.Add(1500 * time.Millisecond),
		PlansChecked:     3,
		PlansGenerated:   1,
		PlansUpToDate:    1,
		InstancesCreated: 12,
		Failures: []service.OwnerFailure{
			{OwnerID: primitive.NewObjectID(), PlanID: primitive.NewObjectID(), CreatedCount: 1, Error: "store unavailable"},
		},
	}
}

func TestPrintReport_Text(t *testing.T) {
	jsonOutput = false
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, printReport(cmd, sampleReport()))
	assert.Contains(t, out.String(), "checked 3 plans, generated 1, up to date 1, created 12 instances in 1.5s")
	assert.Contains(t, out.String(), "created=1: store unavailable")
}

func TestPrintReport_JSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	report := sampleReport()
	require.NoError(t, printReport(cmd, report))

	var decoded service.GenerationReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, report.InstancesCreated, decoded.InstancesCreated)
	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, report.Failures[0].PlanID, decoded.Failures[0].PlanID)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["generate"])
	assert.True(t, names["run"])
	assert.NotNil(t, generateCmd.Flags().Lookup("json"))
	assert.NotNil(t, runCmd.Flags().Lookup("interval"))
}
