package distribution

import (
	"strings"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
)

const periodLayout = "2006-01"

// Period is a calendar month, keyed as "YYYY-MM"
type Period struct {
	start time.Time
}

// ParsePeriod parses a "YYYY-MM" key
func ParsePeriod(s string) (Period, error) {
	t, err := time.ParseInLocation(periodLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Period{}, shared.NewDomainErrorf(shared.CodeValidation, "period must look like 2025-06, got %q", s)
	}
	return Period{start: t}, nil
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// String returns the "YYYY-MM" key
func (p Period) String() string { return p.start.Format(periodLayout) }

// Start is the first instant of the month (UTC)
func (p Period) Start() time.Time { return p.start }

// End is the first instant of the following month (UTC)
func (p Period) End() time.Time { return p.start.AddDate(0, 1, 0) }

// Window returns the half-open [Start, End) range
func (p Period) Window() shared.TimeRange {
	start, end := p.Start(), p.End()
	return shared.TimeRange{From: &start, To: &end}
}
