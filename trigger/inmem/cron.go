package inmem

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentcore/runtime/apperr"
)

// cronField is a parsed standard 5-field cron field: nil means "*".
type cronField struct {
	values map[int]bool
}

func (f cronField) matches(v int) bool {
	if f.values == nil {
		return true
	}
	return f.values[v]
}

func parseCronField(s string) (cronField, error) {
	if s == "*" {
		return cronField{}, nil
	}
	values := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return cronField{}, apperr.Wrap(apperr.InvalidInput, "trigger: invalid cron field "+s, err)
		}
		values[n] = true
	}
	return cronField{values: values}, nil
}

// cronExpr is a parsed "minute hour day-of-month month day-of-week"
// expression, the same 5-field shape used throughout this codebase's
// own scheduling surfaces.
type cronExpr struct {
	minute, hour, dom, month, dow cronField
}

func parseCron(expr string) (cronExpr, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return cronExpr{}, apperr.Errorf(apperr.InvalidInput, "trigger: cron expression must have 5 fields, got %q", expr)
	}
	var c cronExpr
	var err error
	if c.minute, err = parseCronField(fields[0]); err != nil {
		return cronExpr{}, err
	}
	if c.hour, err = parseCronField(fields[1]); err != nil {
		return cronExpr{}, err
	}
	if c.dom, err = parseCronField(fields[2]); err != nil {
		return cronExpr{}, err
	}
	if c.month, err = parseCronField(fields[3]); err != nil {
		return cronExpr{}, err
	}
	if c.dow, err = parseCronField(fields[4]); err != nil {
		return cronExpr{}, err
	}
	return c, nil
}

// nextCronOccurrence finds the next minute-resolution time strictly
// after 'after' matching expr, searching up to one year ahead.
func nextCronOccurrence(expr string, after time.Time) (time.Time, error) {
	c, err := parseCron(expr)
	if err != nil {
		return time.Time{}, err
	}
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(1, 0, 0)
	for t.Before(limit) {
		if c.minute.matches(t.Minute()) && c.hour.matches(t.Hour()) &&
			c.dom.matches(t.Day()) && c.month.matches(int(t.Month())) &&
			c.dow.matches(int(t.Weekday())) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, apperr.Errorf(apperr.InvalidInput, "trigger: no occurrence of %q found within one year", expr)
}
