// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultDateFormat = "%Y-%m-%d"

// DateKwargs implements date(start, end, date_format): start/end are
// 4-digit years; a uniformly random valid calendar date in
// [start-01-01, end-12-31] is generated and rendered with a
// strftime-style format.
type DateKwargs struct {
	Base
	Start      int    `json:"start"`
	End        int    `json:"end"`
	DateFormat string `json:"date_format,omitempty"`
}

func (k *DateKwargs) Validate() error {
	if k.Start < 1000 || k.Start > 9999 || k.End < 1000 || k.End > 9999 {
		return fmt.Errorf("start/end must be 4-digit years, got start=%d end=%d", k.Start, k.End)
	}
	if k.End < k.Start {
		return fmt.Errorf("end year (%d) must be >= start year (%d)", k.End, k.Start)
	}
	return nil
}

func (k *DateKwargs) Apply(ctx *Context) (string, error) {
	rangeStart := time.Date(k.Start, time.January, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(k.End, time.December, 31, 0, 0, 0, 0, time.UTC)

	spanDays := int(rangeEnd.Sub(rangeStart).Hours() / 24)
	offset := 0
	if spanDays > 0 {
		offset = ctx.State.RNG.IntN(spanDays + 1)
	}
	d := rangeStart.AddDate(0, 0, offset)

	format := k.DateFormat
	if format == "" {
		format = defaultDateFormat
	}
	return strftime(d, format), nil
}

// strftime renders t using a small subset of the classic strftime
// directive set — enough to cover the date_format values this mutation
// is documented to accept.
func strftime(t time.Time, format string) string {
	var b strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i+1 >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			b.WriteString(fmt.Sprintf("%02d", t.Year()%100))
		case 'm':
			b.WriteString(fmt.Sprintf("%02d", int(t.Month())))
		case 'd':
			b.WriteString(fmt.Sprintf("%02d", t.Day()))
		case 'H':
			b.WriteString(fmt.Sprintf("%02d", t.Hour()))
		case 'M':
			b.WriteString(fmt.Sprintf("%02d", t.Minute()))
		case 'S':
			b.WriteString(fmt.Sprintf("%02d", t.Second()))
		case 'B':
			b.WriteString(t.Month().String())
		case 'b':
			b.WriteString(t.Month().String()[:3])
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'a':
			b.WriteString(t.Weekday().String()[:3])
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
