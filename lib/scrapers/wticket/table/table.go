package table

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"wticket-bot/lib/htmlutil"
	"wticket-bot/lib/scrapers/wticket/core"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wticket/table")

type Operator string

const (
	OpExact    Operator = "exact"
	OpContains Operator = "contains"
)

type Filter struct {
	Column int
	Op     Operator
	Value  string
}

// Spec selects a predefined server-side query and narrows it down.
// Specs are immutable once built, they translate 1:1 into request
// parameters.
type Spec struct {
	QueryId string
	Filters []Filter
	// maps onto maxrows, 0 means server default
	Limit int
	// relationship-scoped listings, e.g. tickets belonging to a staff
	// member, are keyed by a foreign unid column instead of a filter
	ForeignName  string
	ForeignValue string
}

func keyToken(f Filter) string {
	return fmt.Sprintf("_<%s>_%s", f.Op, f.Value)
}

// Values encodes the spec as query parameters. searchcol and key are
// comma-joined lists of equal length, paired positionally in filter
// order.
func (s Spec) Values() url.Values {
	query := url.Values{}
	query.Set("queryid", s.QueryId)

	if len(s.Filters) > 0 {
		cols := make([]string, len(s.Filters))
		keys := make([]string, len(s.Filters))
		for i, f := range s.Filters {
			cols[i] = strconv.Itoa(f.Column)
			keys[i] = keyToken(f)
		}
		query.Set("searchcol", strings.Join(cols, ","))
		query.Set("key", strings.Join(keys, ","))
	}
	if s.Limit > 0 {
		query.Set("maxrows", strconv.Itoa(s.Limit))
	}
	if s.ForeignName != "" {
		query.Set("foreignUNIDName", s.ForeignName)
		query.Set("foreignUNIDValue", s.ForeignValue)
	}

	return query
}

// Query runs the spec against the generic table endpoint and hands
// back the parsed document. Most callers want List or Get instead;
// this level exists for listings that also read cells outside the row
// set (totals and the like).
func Query(ctx context.Context, client *core.Client, spec Spec) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()
	span.SetAttributes(attribute.String("queryid", spec.QueryId))

	res, err := client.R(ctx).
		SetQueryParamsFromValues(spec.Values()).
		Get("/jsp/atsc/UITableIFrame.jsp")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}
	return doc, nil
}

type Row struct {
	Unid  string
	Cells Cells
}

// Id parses the row's unid attribute, the server's internal entity
// identifier (distinct from user-facing numbers like the ticket
// number).
func (r Row) Id() (int64, error) {
	id, err := strconv.ParseInt(r.Unid, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("row unid %q is not numeric", r.Unid)
	}
	return id, nil
}

func rowFromSelection(tr *goquery.Selection) Row {
	var cells Cells
	tr.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, htmlutil.CleanText(td.Text()))
	})
	return Row{
		Unid:  tr.AttrOr("unid", ""),
		Cells: cells,
	}
}

func isPlaceholder(tr *goquery.Selection) bool {
	return tr.AttrOr("empty", "") == "true"
}

// Rows returns the data rows of a full listing. The first two tr
// elements are structural (header and filter bar) and are dropped even
// when they superficially look like data; placeholder rows flagged
// empty="true" mean "no results" and are dropped as well. Server order
// is preserved.
func Rows(doc *goquery.Document) []Row {
	var rows []Row
	doc.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 || i == 1 {
			return
		}
		if isPlaceholder(tr) {
			return
		}
		rows = append(rows, rowFromSelection(tr))
	})
	return rows
}

// FirstRow finds the first data row of a filtered single-result query.
// Keyed responses may or may not render the structural header and
// filter rows, so position is useless here; data rows are recognized by
// their unid attribute, which structural rows never carry. The
// empty="true" placeholder is excluded as everywhere else.
func FirstRow(doc *goquery.Document) (Row, bool) {
	var row Row
	found := false
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if isPlaceholder(tr) {
			return true
		}
		if _, ok := tr.Attr("unid"); !ok {
			return true
		}
		row = rowFromSelection(tr)
		found = true
		return false
	})
	return row, found
}

// DecodeError marks a row whose cells did not decode. One bad row
// fails the whole listing, silently dropping it would hide data.
type DecodeError struct {
	Unid string
	Err  error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("failed to decode row %s: %s", e.Unid, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// DecodeRows runs a per-entity decoder over each row, fail fast.
func DecodeRows[T any](rows []Row, decode func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		value, err := decode(row)
		if err != nil {
			return nil, DecodeError{Unid: row.Unid, Err: err}
		}
		out = append(out, value)
	}
	return out, nil
}

func List[T any](ctx context.Context, client *core.Client, spec Spec, decode func(Row) (T, error)) ([]T, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	doc, err := Query(ctx, client, spec)
	if err != nil {
		return nil, err
	}
	out, err := DecodeRows(Rows(doc), decode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode rows")
		return nil, err
	}
	return out, nil
}

// Get runs a query expected to match exactly one entity. Zero real
// rows is core.ErrNotFound, a domain condition distinct from transport
// or parse failures.
func Get[T any](ctx context.Context, client *core.Client, spec Spec, decode func(Row) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	var zero T
	doc, err := Query(ctx, client, spec)
	if err != nil {
		return zero, err
	}
	row, found := FirstRow(doc)
	if !found {
		span.SetStatus(codes.Error, core.ErrNotFound.Error())
		return zero, core.ErrNotFound
	}
	value, err := decode(row)
	if err != nil {
		decodeErr := DecodeError{Unid: row.Unid, Err: err}
		span.RecordError(decodeErr)
		span.SetStatus(codes.Error, "failed to decode row")
		return zero, decodeErr
	}
	return value, nil
}
