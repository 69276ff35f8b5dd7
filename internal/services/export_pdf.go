package services

import (
	"fmt"
	"io"
	"time"

	"mizan_chat_go_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// RenderExportPDF writes a printable transcript of the export.
// Core PDF fonts are cp1252, so characters outside it are replaced.
func RenderExportPDF(w io.Writer, export *models.ConversationExport) error {
	if export == nil || export.Session == nil {
		return fmt.Errorf("nothing to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Conversation "+export.Session.SessionID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr("Conversation "+export.Session.SessionID))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	stats := export.Stats
	summary := fmt.Sprintf("User: %s | Status: %s | Messages: %d | Tokens: %d in / %d out | Cost: $%.4f",
		export.Session.UserName,
		export.Session.Status,
		stats.TotalMessages,
		stats.TotalTokensInput,
		stats.TotalTokensOutput,
		stats.TotalCost,
	)
	pdf.MultiCell(0, 5, tr(summary), "", "L", false)
	pdf.MultiCell(0, 5, "Exported at "+export.ExportedAt.Format(time.RFC3339), "", "L", false)
	pdf.Ln(4)

	for _, msg := range export.Messages {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, fmt.Sprintf("%s - %s", msg.Role, msg.Timestamp.Format(time.RFC3339)))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(msg.Content), "", "L", false)
		pdf.Ln(3)
	}

	if len(export.Insights) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Insights")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, insight := range export.Insights {
			line := fmt.Sprintf("[%s/%s] %s", insight.Category, insight.Importance, insight.Content)
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	return pdf.Output(w)
}
