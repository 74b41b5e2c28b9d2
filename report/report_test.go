package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mspbs/medgas/consumption"
	"github.com/mspbs/medgas/domain"
)

func sampleSnapshot() *consumption.ReportSnapshot {
	records := []domain.Record{
		{
			ID: 1, HospitalID: 1, GasID: 1,
			Period: domain.Period{
				Start: domain.NewDate(2024, time.March, 1),
				End:   domain.NewDate(2024, time.March, 31),
			},
			SupplyMode: domain.SupplyCryogenicTank,
			Quantity:   decimal.RequireFromString("1250.5"),
			Unit:       "m3",
			Validated:  true,
			Notes:      "lectura de medidor",

			HospitalName: "Hospital Central", HospitalCode: "HC-001",
			GasName: "Oxígeno Medicinal", GasCode: "O2", GasUnit: "m3",
			GasCritical: true,
		},
		{
			ID: 2, HospitalID: 2, GasID: 2,
			Period: domain.Period{
				Start: domain.NewDate(2024, time.March, 1),
				End:   domain.NewDate(2024, time.March, 31),
			},
			SupplyMode: domain.SupplyCylinders,
			Quantity:   decimal.RequireFromString("84.2"),
			Unit:       "kg",

			HospitalName: "Hospital Regional", HospitalCode: "HR-002",
			GasName: "Óxido Nitroso", GasCode: "N2O", GasUnit: "kg",
		},
	}
	from := domain.NewDate(2024, time.March, 1)
	to := domain.NewDate(2024, time.March, 31)
	return &consumption.ReportSnapshot{
		Records:     records,
		GasTotals:   domain.AggregateByGas(records),
		ModeTotals:  domain.AggregateBySupplyMode(records),
		Total:       domain.TotalQuantity(records),
		GeneratedAt: time.Date(2024, time.April, 2, 9, 30, 0, 0, time.UTC),
		From:        &from,
		To:          &to,
	}
}

func TestRenderPDF(t *testing.T) {
	// GIVEN a two-record snapshot
	snap := sampleSnapshot()

	// WHEN rendering the PDF
	out, err := RenderPDF(snap)
	require.NoError(t, err)

	// THEN the output is a non-trivial PDF document
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderPDFEmptySnapshot(t *testing.T) {
	out, err := RenderPDF(&consumption.ReportSnapshot{
		GeneratedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderCSV(t *testing.T) {
	// GIVEN a two-record snapshot
	snap := sampleSnapshot()

	// WHEN rendering the CSV
	out, err := RenderCSV(snap)
	require.NoError(t, err)

	// THEN it has a header plus one line per record, with full precision
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "fecha_inicio")
	assert.Contains(t, lines[1], "HC-001")
	assert.Contains(t, lines[1], "1250.5")
	assert.Contains(t, lines[1], "si")
	assert.Contains(t, lines[2], "N2O")
	assert.Contains(t, lines[2], "no")
}

func TestRenderCSVEmpty(t *testing.T) {
	out, err := RenderCSV(&consumption.ReportSnapshot{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Len(t, lines, 1)
}
