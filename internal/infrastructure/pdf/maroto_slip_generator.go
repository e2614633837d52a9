// Package pdf genera el comprobante imprimible de una solicitud de retiro de stock.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comprobante de retiro  │  N° + Fecha + Estado      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SOLICITANTE / REVISIÓN                                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Lote | Unidad | Cant. | Base | Origen→Dest│
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID + notas + firmas                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

var _ withdrawal.SlipGenerator = (*MarotoSlipGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 105, Blue: 92}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var statusLabels = map[string]string{
	entity.WithdrawalStatusPending:  "PENDIENTE",
	entity.WithdrawalStatusApproved: "APROBADA",
	entity.WithdrawalStatusRejected: "RECHAZADA",
}

var kindLabels = map[string]string{
	entity.WithdrawalKindPersonal: "Retiro de stock personal",
	entity.WithdrawalKindTransfer: "Traslado entre ubicaciones",
}

// MarotoSlipGenerator implementa withdrawal.SlipGenerator usando Maroto v2.
type MarotoSlipGenerator struct {
	clinicName string
}

// NewMarotoSlipGenerator construye el generador; clinicName va en el encabezado.
func NewMarotoSlipGenerator(clinicName string) *MarotoSlipGenerator {
	return &MarotoSlipGenerator{clinicName: clinicName}
}

// GenerateSlip genera el PDF y devuelve sus bytes.
func (g *MarotoSlipGenerator) GenerateSlip(
	_ context.Context,
	w *entity.WithdrawalRequest,
	requester *entity.User,
	items []withdrawal.SlipItem,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de retiro de stock", true).
		WithAuthor(g.clinicName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(w))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(w, requester))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	transfer := w.Kind == entity.WithdrawalKindTransfer
	m.AddRows(tableHeaderRow(transfer))
	m.AddRows(tableItemRows(items, transfer)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(w)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *MarotoSlipGenerator) headerRow(w *entity.WithdrawalRequest) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(g.clinicName, "Clínica"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(kindLabels[w.Kind], w.Kind), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE RETIRO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(w.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New(fmt.Sprintf("Fecha: %s   Estado: %s",
				w.CreatedAt.Format("02/01/2006 15:04"),
				nonEmpty(statusLabels[w.Status], w.Status),
			), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

func partiesRow(w *entity.WithdrawalRequest, requester *entity.User) core.Row {
	reviewed := "-"
	if w.ReviewedAt != nil {
		reviewed = w.ReviewedAt.Format("02/01/2006 15:04")
	}
	return row.New(14).Add(
		col.New(6).Add(
			text.New("SOLICITANTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(requester.Name, requester.Email), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
		col.New(6).Add(
			text.New("REVISIÓN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New("Fecha: "+reviewed, props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow(transfer bool) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	cols := []core.Col{
		h("Producto", 3, align.Left),
		h("Lote", 2, align.Left),
		h("Unidad", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Base", 1, align.Right),
	}
	if transfer {
		cols = append(cols, h("Origen -> Destino", 3, align.Left))
	} else {
		cols = append(cols, col.New(3))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableItemRows(items []withdrawal.SlipItem, transfer bool) []core.Row {
	rows := make([]core.Row, 0, len(items))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	for _, it := range items {
		cols := []core.Col{
			cell(it.ProductName, 3, align.Left),
			cell(it.BatchNumber, 2, align.Left),
			cell(it.UnitName, 2, align.Left),
			cell(it.RequestedQuantity.String(), 1, align.Right),
			cell(it.QuantityBase.String()+" "+it.BaseUnitName, 1, align.Right),
		}
		if transfer {
			cols = append(cols, cell(it.FromLocationName+" -> "+it.ToLocationName, 3, align.Left))
		} else {
			cols = append(cols, col.New(3))
		}
		rows = append(rows, row.New(7).Add(cols...))
	}
	return rows
}

func footerRows(w *entity.WithdrawalRequest) []core.Row {
	return []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(w.ID, props.Rect{Percent: 90, Center: true})),
			col.New(9).Add(
				text.New("Notas: "+nonEmpty(w.Notes, "-"), props.Text{Size: 8, Top: 2, Left: 3, Color: colorGray}),
				text.New("Entrega: ______________________", props.Text{Size: 9, Top: 20, Left: 3}),
				text.New("Recibe:  ______________________", props.Text{Size: 9, Top: 30, Left: 3}),
			),
		),
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID primeros 8 caracteres del UUID, suficientes para ubicar el comprobante a mano.
func shortID(id string) string {
	if len(id) > 8 {
		return "N° " + id[:8]
	}
	return "N° " + id
}
