package core

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"wticket-bot/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

type Status struct {
	Date      time.Time
	Warehouse Warehouse
	User      StatusUser
	Version   int64
}

type Warehouse struct {
	Unid int64
	Code string
	Name string
}

type StatusUser struct {
	Unid  int64
	Id    int64
	Login string
	Code  string
}

// Status fetches and decodes the status-bar fragment. It doubles as a
// liveness probe for the session and as the source of the logged-in
// user's unid for profile lookups.
func (c *Client) Status(ctx context.Context) (Status, error) {
	ctx, span := tracer.Start(ctx, "client:Status")
	defer span.End()

	res, err := c.R(ctx).Get("/jsp/atsc/UIStatusBar.jsp")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch status bar")
		return Status{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse status bar html")
		return Status{}, err
	}

	status, err := decodeStatus(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode status bar")
		return Status{}, err
	}
	return status, nil
}

func decodeStatus(doc *goquery.Document) (Status, error) {
	var status Status

	dateText := htmlutil.CleanText(doc.Find("#statusdate").Text())
	date, err := ParseDate(dateText)
	if err != nil {
		return Status{}, fmt.Errorf("status date: %w", err)
	}
	status.Date = date

	warehouse := doc.Find("#statuswarehouse")
	if warehouse.Length() == 0 {
		return Status{}, fmt.Errorf("status fragment has no warehouse")
	}
	status.Warehouse.Unid, err = strconv.ParseInt(warehouse.AttrOr("unid", ""), 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("warehouse unid: %w", err)
	}
	code, name, ok := strings.Cut(htmlutil.CleanText(warehouse.Text()), " - ")
	if !ok {
		return Status{}, fmt.Errorf("warehouse text %q has no code/name split", warehouse.Text())
	}
	status.Warehouse.Code = code
	status.Warehouse.Name = name

	user := doc.Find("#statususer")
	if user.Length() == 0 {
		return Status{}, fmt.Errorf("status fragment has no user")
	}
	status.User.Unid, err = strconv.ParseInt(user.AttrOr("unid", ""), 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("user unid: %w", err)
	}
	status.User.Login = user.AttrOr("login", "")
	idText, userCode, ok := strings.Cut(htmlutil.CleanText(user.Text()), " - ")
	if !ok {
		return Status{}, fmt.Errorf("user text %q has no id/code split", user.Text())
	}
	status.User.Id, err = strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("user id: %w", err)
	}
	status.User.Code = userCode

	versionText := htmlutil.CleanText(doc.Find("#statusversion").Text())
	status.Version, err = strconv.ParseInt(versionText, 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("status version: %w", err)
	}

	return status, nil
}
