package billing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ParsesAWSLambdaReportLine(t *testing.T) {
	// spec.md §8 scenario 6.
	log := "REPORT Billed Duration: 1200 ms ... Memory Size: 1792 MB Max Memory Used: 800 MB Duration: 1183.42 ms"

	info, err := Extract(log)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, info.BilledDurationMS)
	assert.Equal(t, 1183.42, info.DurationMS)
	assert.Equal(t, 1792.0, info.MemorySizeMB)
	assert.Equal(t, 800.0, info.MemoryUsedMB)

	wantBill := 1200.0*1792.0/1024*1.67e-8 + 2e-7
	assert.InDelta(t, wantBill, info.Bill, 1e-12)
}

func TestExtract_MissingFieldErrors(t *testing.T) {
	_, err := Extract("REPORT Billed Duration: 1200 ms ... Memory Size: 1792 MB")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLogFormat)
}

func TestExtractOrca_AddsTransferCharge(t *testing.T) {
	log := "REPORT Billed Duration: 1000 ms Duration: 900.0 ms Max Memory Used: 512 MB Memory Size: 1024 MB"

	withoutTransfer, err := ExtractOrca(log, TransferNone, TransferNone, 0, 0)
	require.NoError(t, err)

	withTransfer, err := ExtractOrca(log, TransferS3, TransferS3, 10, 10)
	require.NoError(t, err)

	assert.Greater(t, withTransfer.Bill, withoutTransfer.Bill)
}

func TestSaveOrcaCSV_WritesExpectedSections(t *testing.T) {
	results := []RunResult{
		{Name: "run0", E2E: 10, Cost: 0.01},
		{Name: "run1", E2E: 12, Cost: 0.012},
		{Name: "run2", E2E: 11, Cost: 0.011},
	}
	var buf bytes.Buffer
	require.NoError(t, SaveOrcaCSV(&buf, []float64{1, 2}, []float64{10, 20, 30}, results))

	out := buf.String()
	assert.True(t, strings.Contains(out, "num_vcpus"))
	assert.True(t, strings.Contains(out, "x_bound"))
	assert.True(t, strings.Contains(out, "raw_data"))
	assert.True(t, strings.Contains(out, "statistics"))
	assert.True(t, strings.Contains(out, "latency"))
	assert.True(t, strings.Contains(out, "cost"))
}
