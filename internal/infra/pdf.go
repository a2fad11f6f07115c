package infra

// pdf.go — Closing report rendering using go-pdf/fpdf.
// Produces an A4 reconciliation sheet with the shift header, the per-method
// breakdown (sales / returns / total) and the cash drawer line.
// The output file is saved to storagePath/closing_{shiftID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"shoptill/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateClosingPDF renders the closing snapshot of a shift.
// storagePath is the directory where the PDF is written (created if needed).
// Returns the absolute path to the generated file.
func GenerateClosingPDF(closing *model.ShiftClosing, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("closing_%s.pdf", closing.ShiftID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Shift Closing Report", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Shift %s", closing.ShiftID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Register %s — Cashier %s", closing.RegisterID, closing.CashierID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Opened %s    Closed %s",
			closing.OpenedAt.Format("02/01/2006 15:04"),
			closing.ClosedAt.Format("02/01/2006 15:04")),
		"", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Drawer ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Cash Drawer", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 6, "Opening amount", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "$"+closing.InitialAmount.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "Closing amount", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "$"+closing.FinalAmount.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// ── Per-method breakdown ─────────────────────────────────────────────────
	col1 := contentW * 0.40
	col2 := contentW * 0.20
	col3 := contentW * 0.20
	col4 := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Payment method", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Sales", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 6, "Returns", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, mt := range closing.MethodTotals {
		name := mt.MethodName
		if len(name) > 32 {
			name = name[:31] + "…"
		}
		pdf.CellFormat(col1, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, "$"+mt.Sales.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+mt.Returns.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+mt.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1, 7, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "$"+closing.TotalSales.StringFixed(2), "T", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 7, "$"+closing.TotalReturns.StringFixed(2), "T", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "$"+closing.TotalNet.StringFixed(2), "T", 1, "R", false, 0, "")

	// ── Notes ────────────────────────────────────────────────────────────────
	if closing.Notes != nil && *closing.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 5, *closing.Notes, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
