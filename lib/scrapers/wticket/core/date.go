package core

import (
	"fmt"
	"time"
	"wticket-bot/lib/timezone"
)

// WTicket renders every date in the server locale as dd-mm-yyyy,
// optionally followed by a clock time.
const (
	DateLayout           = "02-01-2006"
	DateTimeLayout       = "02-01-2006 15:04"
	DateTimeSecondLayout = "02-01-2006 15:04:05"
)

func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, timezone.Location)
}

func ParseDateTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeSecondLayout, value, timezone.Location)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation(DateTimeLayout, value, timezone.Location)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation(DateLayout, value, timezone.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	return t, nil
}
