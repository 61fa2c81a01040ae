// Package ticket exposes workflow tickets ("activiteiten" in WTicket
// terms) on top of the generic table and form protocols.
package ticket

import (
	"context"
	"fmt"
	"strconv"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/scrapers/wticket/table"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/ticket")

type Service struct {
	client *core.Client
}

func NewService(client *core.Client) Service {
	return Service{client: client}
}

// Summary is the row shape of the wf1act listing.
type Summary struct {
	Unid        int64
	Number      int64
	SearchName  string
	Description string
}

// DecodeSummary decodes a wf1act-shaped row. The wf1actlopend listing
// shares the cell layout, so the staff service reuses this decoder.
func DecodeSummary(row table.Row) (Summary, error) {
	unid, err := row.Id()
	if err != nil {
		return Summary{}, err
	}
	number, err := row.Cells.Int(1)
	if err != nil {
		return Summary{}, err
	}
	searchName, err := row.Cells.Text(2)
	if err != nil {
		return Summary{}, err
	}
	description, _ := row.Cells.Optional(3)

	return Summary{
		Unid:        unid,
		Number:      number,
		SearchName:  searchName,
		Description: description,
	}, nil
}

// SearchColumns maps friendly names onto the searchable column indices
// of the wf1act query.
var SearchColumns = map[string]int{
	"id":           2,
	"searchName":   3,
	"description":  4,
	"p":            5,
	"pi":           6,
	"s":            7,
	"as":           8,
	"plannedFrom":  9,
	"plannedUntil": 10,
	"deadline":     11,
	"updatedAt":    12,
	"age":          13,
	"eig":          14,
	"hv":           15,
	"involved":     16,
}

// Get looks a ticket up by its user-facing number.
func (s Service) Get(ctx context.Context, number int64) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("ticket", number))

	summary, err := table.Get(ctx, s.client, table.Spec{
		QueryId: "wf1act",
		Filters: []table.Filter{{
			Column: SearchColumns["id"],
			Op:     table.OpExact,
			Value:  strconv.FormatInt(number, 10),
		}},
	}, DecodeSummary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get ticket")
		return Summary{}, err
	}
	return summary, nil
}

// Search filters the ticket listing on one of the SearchColumns.
func (s Service) Search(ctx context.Context, column string, op table.Operator, value string, limit int) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("column", column),
		attribute.String("value", value),
	)

	index, ok := SearchColumns[column]
	if !ok {
		return nil, fmt.Errorf("unknown search column %q", column)
	}

	summaries, err := table.List(ctx, s.client, table.Spec{
		QueryId: "wf1act",
		Filters: []table.Filter{{Column: index, Op: op, Value: value}},
		Limit:   limit,
	}, DecodeSummary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to search tickets")
		return nil, err
	}
	return summaries, nil
}
