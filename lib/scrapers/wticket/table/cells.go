package table

import (
	"fmt"
	"strconv"
	"time"
	"wticket-bot/lib/scrapers/wticket/core"
)

// Cells is the ordered cell text of one row. The server expresses
// optional fields as empty cells; the accessors below apply one
// uniform rule, empty text decodes to an absent value, never to zero
// or the epoch.
type Cells []string

func (c Cells) Text(i int) (string, error) {
	if i < 0 || i >= len(c) {
		return "", fmt.Errorf("row has %d cells, wanted cell %d", len(c), i)
	}
	return c[i], nil
}

func (c Cells) Optional(i int) (string, bool) {
	if i < 0 || i >= len(c) || c[i] == "" {
		return "", false
	}
	return c[i], true
}

func (c Cells) Int(i int) (int64, error) {
	text, err := c.Text(i)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cell %d: %q is not numeric", i, text)
	}
	return value, nil
}

func (c Cells) OptionalInt(i int) (*int64, error) {
	text, present := c.Optional(i)
	if !present {
		return nil, nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cell %d: %q is not numeric", i, text)
	}
	return &value, nil
}

func (c Cells) Date(i int) (time.Time, error) {
	text, err := c.Text(i)
	if err != nil {
		return time.Time{}, err
	}
	value, err := core.ParseDate(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("cell %d: %w", i, err)
	}
	return value, nil
}

func (c Cells) OptionalDate(i int) (*time.Time, error) {
	text, present := c.Optional(i)
	if !present {
		return nil, nil
	}
	value, err := core.ParseDate(text)
	if err != nil {
		return nil, fmt.Errorf("cell %d: %w", i, err)
	}
	return &value, nil
}

func (c Cells) OptionalDateTime(i int) (*time.Time, error) {
	text, present := c.Optional(i)
	if !present {
		return nil, nil
	}
	value, err := core.ParseDateTime(text)
	if err != nil {
		return nil, fmt.Errorf("cell %d: %w", i, err)
	}
	return &value, nil
}
