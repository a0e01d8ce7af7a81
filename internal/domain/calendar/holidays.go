package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
)

type Holiday struct {
	ID     string    `json:"id,omitempty"`
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Region string    `json:"region,omitempty"`
}

var regionHolidays = map[string][]*cal.Holiday{
	"BB": de.HolidaysBB,
	"BE": de.HolidaysBE,
	"BW": de.HolidaysBW,
	"BY": de.HolidaysBY,
	"HB": de.HolidaysHB,
	"HE": de.HolidaysHE,
	"HH": de.HolidaysHH,
	"MV": de.HolidaysMV,
	"NI": de.HolidaysNI,
	"NW": de.HolidaysNW,
	"RP": de.HolidaysRP,
	"SH": de.HolidaysSH,
	"SL": de.HolidaysSL,
	"SN": de.HolidaysSN,
	"ST": de.HolidaysST,
	"TH": de.HolidaysTH,
}

// ValidRegion reports whether region is a known federal state code.
func ValidRegion(region string) bool {
	_, ok := regionHolidays[strings.ToUpper(strings.TrimSpace(region))]
	return ok
}

// Calendar answers public-holiday questions for German federal states,
// optionally extended with employer-defined holidays.
type Calendar struct {
	region    string
	calendars map[string]*cal.BusinessCalendar
	extra     map[string]Holiday
}

// New returns a calendar whose default region is region.
func New(region string) (*Calendar, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if _, ok := regionHolidays[region]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	calendars := make(map[string]*cal.BusinessCalendar, len(regionHolidays))
	for code, holidays := range regionHolidays {
		bc := cal.NewBusinessCalendar()
		bc.AddHoliday(holidays...)
		calendars[code] = bc
	}
	return &Calendar{region: region, calendars: calendars, extra: map[string]Holiday{}}, nil
}

func (c *Calendar) Region() string {
	return c.region
}

// WithExtra returns a copy of c that also treats the given holidays as public
// holidays. Extras with an empty region apply to every region.
func (c *Calendar) WithExtra(holidays []Holiday) *Calendar {
	out := &Calendar{region: c.region, calendars: c.calendars, extra: make(map[string]Holiday, len(c.extra)+len(holidays))}
	for key, h := range c.extra {
		out.extra[key] = h
	}
	for _, h := range holidays {
		h.Region = strings.ToUpper(strings.TrimSpace(h.Region))
		out.extra[extraKey(Date(h.Date), h.Region)] = h
	}
	return out
}

// IsHoliday reports whether date is a public holiday in region. An empty
// region means the calendar's default region.
func (c *Calendar) IsHoliday(date time.Time, region string) bool {
	_, ok := c.HolidayName(date, region)
	return ok
}

func (c *Calendar) HolidayName(date time.Time, region string) (string, bool) {
	region = c.resolve(region)
	day := Date(date)
	if h, ok := c.extra[extraKey(day, region)]; ok {
		return h.Name, true
	}
	if h, ok := c.extra[extraKey(day, "")]; ok {
		return h.Name, true
	}
	bc, ok := c.calendars[region]
	if !ok {
		return "", false
	}
	actual, _, h := bc.IsHoliday(day)
	if !actual || h == nil {
		return "", false
	}
	return h.Name, true
}

// Holidays lists the public holidays of region in year, sorted by date.
func (c *Calendar) Holidays(year int, region string) []Holiday {
	region = c.resolve(region)
	var out []Holiday
	for _, h := range regionHolidays[region] {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		out = append(out, Holiday{Date: Date(actual), Name: h.Name, Region: region})
	}
	for _, h := range c.extra {
		if h.Date.Year() != year || (h.Region != "" && h.Region != region) {
			continue
		}
		out = append(out, Holiday{ID: h.ID, Date: Date(h.Date), Name: h.Name, Region: h.Region})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// DayFlags are the surcharge-relevant facts about a working day.
type DayFlags struct {
	Sunday  bool `json:"sunday"`
	Holiday bool `json:"holiday"`
}

// Flags classifies date for time-entry creation. A holiday on a rest day is
// not flagged because rest days are never payable.
func (c *Calendar) Flags(date time.Time, region string) DayFlags {
	flags := DayFlags{Sunday: IsSunday(date)}
	if DefaultBusinessWeek.Contains(date.Weekday()) {
		flags.Holiday = c.IsHoliday(date, region)
	}
	return flags
}

func (c *Calendar) resolve(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return c.region
	}
	return region
}

func extraKey(day time.Time, region string) string {
	return day.Format("2006-01-02") + "/" + region
}
