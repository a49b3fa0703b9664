package admin

import (
	"fmt"
	"strings"
	"time"

	"frameshop/domain"
)

const dateLayout = "2006-01-02"

// FilterError a dashboard query parameter that could not be parsed.
type FilterError struct {
	Param string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// ParseFilter builds an order filter from dashboard query values. Dates are
// calendar days in UTC and both ends are inclusive.
func ParseFilter(status, query, from, to string) (domain.OrderFilter, error) {
	f := domain.OrderFilter{Query: strings.TrimSpace(query)}

	if status = strings.TrimSpace(status); status != "" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			return domain.OrderFilter{}, &FilterError{Param: "status", Err: err}
		}
		f.Status = st
	}
	if from = strings.TrimSpace(from); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return domain.OrderFilter{}, &FilterError{Param: "from", Err: err}
		}
		f.From = t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return domain.OrderFilter{}, &FilterError{Param: "to", Err: err}
		}
		f.To = t.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return domain.OrderFilter{}, &FilterError{Param: "to", Err: fmt.Errorf("%s is before %s", to, from)}
	}
	return f, nil
}
