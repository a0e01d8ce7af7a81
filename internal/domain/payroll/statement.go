package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"timepay/internal/domain/employee"
)

// Statement is everything printed on an Entgeltaufstellung.
type Statement struct {
	Employee    employee.Employee
	Record      Record
	Account     Account
	GeneratedAt time.Time
}

// RenderStatement produces the PDF for st. Figures are printed as stored;
// nothing is recomputed.
func RenderStatement(st Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(31, 119, 180)
	pdf.CellFormat(0, 12, tr("Entgeltaufstellung"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Abrechnungszeitraum: %s %d", MonthName(st.Record.Month), st.Record.Year)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	heading(pdf, tr, "Mitarbeiterdaten")
	labelRow(pdf, tr, "Personalnummer:", st.Employee.PersonnelNumber)
	labelRow(pdf, tr, "Name:", st.Employee.FullName())
	pdf.Ln(3)

	heading(pdf, tr, "Arbeitszeitkonto")
	labelRow(pdf, tr, "Soll-Stunden:", FormatHours(st.Account.TargetHours))
	labelRow(pdf, tr, "Ist-Stunden:", FormatHours(st.Account.WorkedHours))
	diff := FormatHours(st.Account.Difference.Abs())
	if st.Account.Difference.IsNegative() {
		diff += " (Minus)"
	} else {
		diff += " (Plus)"
	}
	labelRow(pdf, tr, "Differenz:", diff)
	labelRow(pdf, tr, "Urlaubstage genommen:", st.Account.LeaveDaysTaken.String()+" Tage")
	if st.Record.SundayHours.IsPositive() {
		labelRow(pdf, tr, "Sonntagsstunden:", FormatHours(st.Record.SundayHours))
	}
	if st.Record.HolidayHours.IsPositive() {
		labelRow(pdf, tr, "Feiertagsstunden:", FormatHours(st.Record.HolidayHours))
	}
	pdf.Ln(3)

	heading(pdf, tr, "Lohnberechnung (Brutto)")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(31, 119, 180)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(110, 8, tr("Beschreibung"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, tr("Betrag"), "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	amountRow(pdf, tr, "Grundlohn", st.Record.BasePay)
	if st.Record.SundaySurcharge.IsPositive() {
		amountRow(pdf, tr, "Sonntagszuschlag (50%)", st.Record.SundaySurcharge)
	}
	if st.Record.HolidaySurcharge.IsPositive() {
		amountRow(pdf, tr, "Feiertagszuschlag (100%)", st.Record.HolidaySurcharge)
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(110, 10, tr("Gesamtbetrag (Brutto)"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 10, tr(FormatEuro(st.Record.GrossTotal)), "T", 1, "R", false, 0, "")
	if st.Record.CapExceeded {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr("Hinweis: Die Minijob-Verdienstgrenze wurde in diesem Monat überschritten."), "", "L", false)
	}
	pdf.Ln(6)

	heading(pdf, tr, "Hinweise")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr("Diese Entgeltaufstellung dient als Nachweis der geleisteten Arbeitsstunden und "+
		"der daraus resultierenden Vergütung gemäß Arbeitsvertrag."), "", "L", false)
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, tr("Erstellt am: "+st.GeneratedAt.Format("02.01.2006 15:04")), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(31, 119, 180)
	pdf.CellFormat(0, 9, tr(text), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func labelRow(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 6, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func amountRow(pdf *gofpdf.Fpdf, tr func(string) string, label string, amount decimal.Decimal) {
	pdf.CellFormat(110, 7, tr(label), "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 7, tr(FormatEuro(amount)), "1", 1, "R", false, 0, "")
}
