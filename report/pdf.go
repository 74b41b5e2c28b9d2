/*
Package report renders consumption snapshots as downloadable documents.

PURPOSE:
  Turns a consumption.ReportSnapshot into the two export formats the
  ministry asks for: a printable PDF summary and a raw CSV extract. Both
  renderers are pure functions over the snapshot; selection and scoping
  happen upstream in the service layer.
*/
package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/mspbs/medgas/consumption"
)

// PDFMediaType is the Content-Type for RenderPDF output.
const PDFMediaType = "application/pdf"

// RenderPDF builds the printable consumption report: header with the
// requested window, per-gas and per-supply-mode totals, then the record
// detail table.
func RenderPDF(snap *consumption.ReportSnapshot) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Reporte de Consumo de Gases Medicinales", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Ministerio de Salud Pública y Bienestar Social", props.Text{
			Size:  10,
			Align: align.Center,
		}),
	)

	m.AddRow(14,
		col.New(6).Add(
			text.New("Período: "+windowLabel(snap), props.Text{Size: 9}),
			text.New(fmt.Sprintf("Registros: %d", len(snap.Records)), props.Text{Size: 9, Top: 4}),
		),
		col.New(6).Add(
			text.New("Generado: "+snap.GeneratedAt.Format("2006-01-02 15:04"), props.Text{Size: 9, Align: align.Right}),
		),
	)

	// Per-gas totals
	m.AddRow(8,
		text.NewCol(12, "Consumo por gas", props.Text{Size: 11, Style: fontstyle.Bold}),
	)
	m.AddRow(7,
		text.NewCol(6, "Gas", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Registros", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, g := range snap.GasTotals {
		m.AddRow(6,
			text.NewCol(6, fmt.Sprintf("%s (%s)", g.GasName, g.GasCode), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", g.Count), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(4, g.Total.StringFixed(2)+" "+g.Unit, props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Per-supply-mode totals
	m.AddRow(8,
		text.NewCol(12, "Consumo por modalidad de suministro", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}),
	)
	for _, mt := range snap.ModeTotals {
		m.AddRow(6,
			text.NewCol(6, string(mt.Mode), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", mt.Count), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(4, mt.Total.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Record detail
	m.AddRow(8,
		text.NewCol(12, "Detalle de registros", props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}),
	)
	m.AddRow(7,
		text.NewCol(3, "Hospital", props.Text{Style: fontstyle.Bold, Size: 8}),
		text.NewCol(2, "Gas", props.Text{Style: fontstyle.Bold, Size: 8}),
		text.NewCol(2, "Inicio", props.Text{Style: fontstyle.Bold, Size: 8}),
		text.NewCol(2, "Fin", props.Text{Style: fontstyle.Bold, Size: 8}),
		text.NewCol(2, "Cantidad", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		text.NewCol(1, "Val.", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
	)
	for _, r := range snap.Records {
		validated := "No"
		if r.Validated {
			validated = "Sí"
		}
		m.AddRow(6,
			text.NewCol(3, r.HospitalName, props.Text{Size: 8}),
			text.NewCol(2, r.GasCode, props.Text{Size: 8}),
			text.NewCol(2, r.Period.Start.String(), props.Text{Size: 8}),
			text.NewCol(2, r.Period.End.String(), props.Text{Size: 8}),
			text.NewCol(2, r.Quantity.StringFixed(2)+" "+r.Unit, props.Text{Size: 8, Align: align.Right}),
			text.NewCol(1, validated, props.Text{Size: 8, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return doc.GetBytes(), nil
}

func windowLabel(snap *consumption.ReportSnapshot) string {
	switch {
	case snap.From != nil && snap.To != nil:
		return snap.From.String() + " a " + snap.To.String()
	case snap.From != nil:
		return "desde " + snap.From.String()
	case snap.To != nil:
		return "hasta " + snap.To.String()
	default:
		return "todo el histórico"
	}
}
