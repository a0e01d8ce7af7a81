package payroll

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"timepay/internal/domain/employee"
)

// DATEV Lohnarten.
const (
	WageTypeBase    = "1000"
	WageTypeSunday  = "1100"
	WageTypeHoliday = "1200"

	accountWages      = "4120"
	accountSurcharges = "4125"
	accountPayable    = "1200"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var datevColumns = []string{
	"Umsatz (ohne Soll/Haben-Kz)", "Soll/Haben-Kennzeichen", "WKZ Umsatz", "Kurs",
	"Basis-Umsatz", "WKZ Basis-Umsatz", "Konto", "Gegenkonto (ohne BU-Schlüssel)",
	"BU-Schlüssel", "Belegdatum", "Belegfeld 1", "Belegfeld 2", "Skonto", "Buchungstext",
	"Postensperre", "Diverse Adressnummer", "Geschäftspartnerbank", "Sachverhalt",
	"Zinssperre", "Beleglink",
	"Beleginfo - Art 1", "Beleginfo - Inhalt 1", "Beleginfo - Art 2", "Beleginfo - Inhalt 2",
	"Beleginfo - Art 3", "Beleginfo - Inhalt 3", "Beleginfo - Art 4", "Beleginfo - Inhalt 4",
	"Beleginfo - Art 5", "Beleginfo - Inhalt 5",
}

// DATEVExport is the input of one LohnBuchungsstapel file.
type DATEVExport struct {
	ConsultantNumber string
	ClientNumber     string
	Month            int
	Year             int
	CreatedAt        time.Time
	Records          []Record
	Employees        map[string]employee.Employee
}

// WriteDATEV writes a semicolon separated, UTF-8 (BOM) DATEV booking batch.
// Records without a matching employee are left out.
func WriteDATEV(w io.Writer, exp DATEVExport) error {
	if !validPeriod(exp.Month, exp.Year) {
		return ErrInvalidPeriod
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(utf8BOM); err != nil {
		return err
	}
	if _, err := bw.WriteString(datevHeader(exp) + "\r\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	cw.Comma = ';'
	cw.UseCRLF = true
	if err := cw.Write(datevColumns); err != nil {
		return err
	}

	_, last := periodBounds(exp.Month, exp.Year)
	documentDate := last.Format("02012006")
	period := fmt.Sprintf("%02d/%d", exp.Month, exp.Year)
	monthLabel := fmt.Sprintf("%s %d", MonthName(exp.Month), exp.Year)

	for _, rec := range exp.Records {
		emp, ok := exp.Employees[rec.EmployeeID]
		if !ok {
			continue
		}
		name := emp.FullName()
		personnel := emp.PersonnelNumber
		if personnel == "" {
			personnel = shortID(emp.ID)
		}
		documentNo := fmt.Sprintf("LOHN-%s-%02d%d", personnel, exp.Month, exp.Year)
		wage := decimal.Zero
		if emp.HourlyWage != nil {
			wage = *emp.HourlyWage
		}

		lines := []struct {
			amount  decimal.Decimal
			account string
			label   string
			wageTag string
			hours   decimal.Decimal
			rate    decimal.Decimal
		}{
			{rec.BasePay, accountWages, "Grundlohn", WageTypeBase + " Grundlohn", rec.WorkedHours, wage},
			{rec.SundaySurcharge, accountSurcharges, "Sonntagszuschlag", WageTypeSunday + " Sonntagszuschlag 50%", rec.SundayHours, wage.Mul(SundaySurchargeRate)},
			{rec.HolidaySurcharge, accountSurcharges, "Feiertagszuschlag", WageTypeHoliday + " Feiertagszuschlag 100%", rec.HolidayHours, wage.Mul(HolidaySurchargeRate)},
		}
		for _, line := range lines {
			if !line.amount.IsPositive() {
				continue
			}
			row := []string{
				FormatDecimalComma(line.amount), "S", "EUR", "", "", "",
				line.account, accountPayable, "",
				documentDate, documentNo, period, "",
				fmt.Sprintf("%s %s %s", line.label, name, monthLabel),
				"", "", "", "", "", "",
				"Mitarbeiter", name,
				"Lohnart", line.wageTag,
				"Stunden", FormatDecimalComma(line.hours),
				"Stundenlohn", FormatDecimalComma(line.rate),
				"Monat", period,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

func datevHeader(exp DATEVExport) string {
	consultant := exp.ConsultantNumber
	if consultant == "" {
		consultant = "0000000"
	}
	client := exp.ClientNumber
	if client == "" {
		client = "00000"
	}
	return fmt.Sprintf(`"EXTF";510;21;"LohnBuchungsstapel";1;%s000;;"RE";;%s;%s;%d0101;4;;"";"";"";"";;`,
		exp.CreatedAt.Format("20060102150405"), consultant, client, exp.Year)
}

// SummaryRow is one employee line of the internal wage overview.
type SummaryRow struct {
	Employee       employee.Employee
	Record         Record
	LeaveDaysTaken decimal.Decimal
}

// WriteSummary writes the Lohnübersicht CSV with a totals line.
func WriteSummary(w io.Writer, month, year int, createdAt time.Time, rows []SummaryRow) error {
	if !validPeriod(month, year) {
		return ErrInvalidPeriod
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(bw)
	cw.Comma = ';'
	cw.UseCRLF = true

	out := [][]string{
		{fmt.Sprintf("Lohnübersicht %s %d", MonthName(month), year)},
		{"Erstellt am: " + createdAt.Format("02.01.2006 15:04")},
		{},
		{
			"Personalnummer", "Nachname", "Vorname", "Stundenlohn (€)", "Soll-Stunden", "Ist-Stunden",
			"Differenz", "Grundlohn (€)", "Sonntagsstunden", "Sonntagszuschlag (€)", "Feiertagsstunden",
			"Feiertagszuschlag (€)", "Gesamtbetrag Brutto (€)", "Urlaubstage genommen",
		},
	}
	var base, sunday, holiday, gross decimal.Decimal
	for _, row := range rows {
		emp, rec := row.Employee, row.Record
		wage := decimal.Zero
		if emp.HourlyWage != nil {
			wage = *emp.HourlyWage
		}
		base = base.Add(rec.BasePay)
		sunday = sunday.Add(rec.SundaySurcharge)
		holiday = holiday.Add(rec.HolidaySurcharge)
		gross = gross.Add(rec.GrossTotal)
		out = append(out, []string{
			emp.PersonnelNumber, emp.LastName, emp.FirstName,
			FormatDecimalComma(wage),
			FormatDecimalComma(emp.MonthlyTargetHours),
			FormatDecimalComma(rec.WorkedHours),
			FormatDecimalComma(rec.WorkedHours.Sub(emp.MonthlyTargetHours)),
			FormatDecimalComma(rec.BasePay),
			FormatDecimalComma(rec.SundayHours),
			FormatDecimalComma(rec.SundaySurcharge),
			FormatDecimalComma(rec.HolidayHours),
			FormatDecimalComma(rec.HolidaySurcharge),
			FormatDecimalComma(rec.GrossTotal),
			row.LeaveDaysTaken.String(),
		})
	}
	out = append(out, []string{}, []string{
		"GESAMT", "", "", "", "", "", "",
		FormatDecimalComma(base), "", FormatDecimalComma(sunday),
		"", FormatDecimalComma(holiday), FormatDecimalComma(gross), "",
	})
	if err := cw.WriteAll(out); err != nil {
		return err
	}
	return bw.Flush()
}

// periodBounds returns the first and last calendar day of the month.
func periodBounds(month, year int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
