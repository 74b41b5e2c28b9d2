package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/mspbs/medgas/consumption"
)

// CSVMediaType is the Content-Type for RenderCSV output.
const CSVMediaType = "text/csv; charset=utf-8"

var csvHeader = []string{
	"id", "hospital", "codigo_hospital", "gas", "codigo_gas",
	"fecha_inicio", "fecha_fin", "modalidad", "cantidad", "unidad",
	"validado", "observaciones",
}

// RenderCSV writes the record detail as a UTF-8 CSV extract, one row per
// record, quantities with full decimal precision.
func RenderCSV(snap *consumption.ReportSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range snap.Records {
		validated := "no"
		if r.Validated {
			validated = "si"
		}
		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.HospitalName,
			r.HospitalCode,
			r.GasName,
			r.GasCode,
			r.Period.Start.String(),
			r.Period.End.String(),
			string(r.SupplyMode),
			r.Quantity.String(),
			r.Unit,
			validated,
			r.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
