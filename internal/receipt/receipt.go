// Package receipt renders payment receipts as PDF documents.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/travelco/travel-planner/internal/model"
)

// Filename is the download name offered for a payment's receipt.
func Filename(p model.Payment) string {
	return fmt.Sprintf("receipt-%d.pdf", p.ID)
}

func money(v float64) string { return fmt.Sprintf("Rs. %.2f", v) }

func safe(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Render builds a one-page A4 receipt for p.
func Render(p model.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt", false)
	pdf.SetAuthor("Travel Co", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAVEL CO - PAYMENT RECEIPT")
	pdf.Ln(14)

	paid := "-"
	if p.PaidAt != nil {
		paid = p.PaidAt.UTC().Format("2006-01-02 15:04 MST")
	}
	txID := "-"
	if p.TransactionID != nil {
		txID = *p.TransactionID
	}
	var customer, email, trip string
	if p.Customer != nil {
		customer, email = p.Customer.Name, p.Customer.Email
	}
	if p.Trip != nil {
		trip = p.Trip.TripName
	}

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Receipt No     : " + fmt.Sprintf("%d", p.ID),
		"Transaction ID : " + txID,
		"Paid At        : " + paid,
		"Customer       : " + safe(customer, "-"),
		"Email          : " + safe(email, "-"),
		"Trip           : " + safe(trip, "-"),
		"Method         : " + p.PaymentMethod + " via " + p.PaymentGateway,
		"Status         : " + string(p.Status),
	} {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Breakdown")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	rows := []struct {
		label string
		v     float64
	}{
		{"Transport", p.Breakdown.TransportCost},
		{"Accommodation", p.Breakdown.AccommodationCost},
		{"Activities", p.Breakdown.ActivityCost},
		{"Tax", p.Breakdown.Tax},
		{"Discount", -p.Breakdown.Discount},
	}
	for _, r := range rows {
		pdf.CellFormat(80, 7, r.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(r.v), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(80, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(p.Amount), "T", 1, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Generated "+time.Now().UTC().Format(time.RFC3339)+". Keep this receipt for your records.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
