// Package staff lists workflow staff members and the tickets assigned
// to them.
package staff

import (
	"context"
	"strconv"
	"wticket-bot/lib/htmlutil"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/scrapers/wticket/table"
	"wticket-bot/services/ticket"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/staff")

type Service struct {
	client *core.Client
}

func NewService(client *core.Client) Service {
	return Service{client: client}
}

type Member struct {
	Unid      int64
	StaffCode string
	Name      string
	Tasks     int64
}

// Overview is the staff listing plus the total task counter the server
// renders under the table.
type Overview struct {
	TotalTasks int64
	Members    []Member
}

func decodeMember(row table.Row) (Member, error) {
	unid, err := row.Id()
	if err != nil {
		return Member{}, err
	}
	staffCode, err := row.Cells.Text(0)
	if err != nil {
		return Member{}, err
	}
	name, err := row.Cells.Text(1)
	if err != nil {
		return Member{}, err
	}
	tasks, err := row.Cells.Int(2)
	if err != nil {
		return Member{}, err
	}

	return Member{
		Unid:      unid,
		StaffCode: staffCode,
		Name:      name,
		Tasks:     tasks,
	}, nil
}

// List fetches the staff overview. It goes through table.Query rather
// than table.List because the total-task cell (#sc3) lives outside the
// row set, in the summary band of the same document.
func (s Service) List(ctx context.Context) (Overview, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	doc, err := table.Query(ctx, s.client, table.Spec{QueryId: "wf1medewerkers"})
	if err != nil {
		span.SetStatus(codes.Error, "failed to query staff listing")
		return Overview{}, err
	}

	members, err := table.DecodeRows(table.Rows(doc), decodeMember)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode staff rows")
		return Overview{}, err
	}

	totalText := htmlutil.CleanText(doc.Find("#sc3").Text())
	total, err := strconv.ParseInt(totalText, 10, 64)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode total task cell")
		return Overview{}, err
	}

	return Overview{
		TotalTasks: total,
		Members:    members,
	}, nil
}

// ListTickets lists the running tickets a staff member executes,
// scoped through the uitvoerder foreign-unid relationship.
func (s Service) ListTickets(ctx context.Context, staffUnid int64) ([]ticket.Summary, error) {
	ctx, span := tracer.Start(ctx, "ListTickets")
	defer span.End()
	span.SetAttributes(attribute.Int64("staff_unid", staffUnid))

	summaries, err := table.List(ctx, s.client, table.Spec{
		QueryId:      "wf1actlopend",
		ForeignName:  "_<arrayoverlaps>_uitvoerder_gc1mdw_unid",
		ForeignValue: strconv.FormatInt(staffUnid, 10),
	}, ticket.DecodeSummary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list staff tickets")
		return nil, err
	}
	return summaries, nil
}
