package ticket

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"wticket-bot/lib/htmlutil"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/scrapers/wticket/form"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type MessageType string

const (
	MessageInternal MessageType = "I"
	MessageExternal MessageType = "E"
)

// MessageColor is one of the fixed header colors the WTicket message
// form accepts; the names are the server's own (Dutch) palette.
type MessageColor string

const (
	ColorBlue      MessageColor = "BLAUW"
	ColorDarkGray  MessageColor = "DONKER-GRIJS"
	ColorOrange    MessageColor = "ORANJE"
	ColorYellow    MessageColor = "GEEL"
	ColorGreen     MessageColor = "GROEN"
	ColorPurple    MessageColor = "PAARS"
	ColorRed       MessageColor = "ROOD"
	ColorPink      MessageColor = "ROZE"
	ColorTurquoise MessageColor = "TURQUOISE"
)

type CreateMessage struct {
	// defaults to MessageInternal
	Type  MessageType
	Color MessageColor
	Title string
	Body  string
}

// AddMessage posts a new message onto a ticket's thread.
func (s Service) AddMessage(ctx context.Context, ticketUnid int64, msg CreateMessage) error {
	ctx, span := tracer.Start(ctx, "AddMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("ticket_unid", ticketUnid))

	messageType := msg.Type
	if messageType == "" {
		messageType = MessageInternal
	}

	fields := []form.Field{
		{Id: "messageType", Value: string(messageType)},
		{Id: "actnr_wf1act_unid", Value: strconv.FormatInt(ticketUnid, 10)},
	}
	if msg.Color != "" {
		fields = append(fields, form.Field{Id: "headerclass", Value: string(msg.Color)})
	}
	if msg.Title != "" {
		fields = append(fields, form.Field{Id: "onderwerp", Value: msg.Title})
	}
	if msg.Body != "" {
		fields = append(fields, form.Field{Id: "bericht", Value: msg.Body})
	}

	err := form.Submit(ctx, s.client, form.Submission{
		Id:     "wf1procesinsmsgadd",
		Action: "15",
		Fields: fields,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add message")
		return err
	}
	return nil
}

// PinMessage keeps a message at the top of the thread.
func (s Service) PinMessage(ctx context.Context, messageUnid int64) error {
	ctx, span := tracer.Start(ctx, "PinMessage")
	defer span.End()

	return form.ExecuteAction(ctx, s.client, map[string]string{
		"action":   "101",
		"name":     "wf1procesinsmsg",
		"uniqueid": strconv.FormatInt(messageUnid, 10),
	})
}

func (s Service) UnpinMessage(ctx context.Context, messageUnid int64) error {
	ctx, span := tracer.Start(ctx, "UnpinMessage")
	defer span.End()

	return form.ExecuteAction(ctx, s.client, map[string]string{
		"action":   "102",
		"name":     "wf1procesinsmsg",
		"uniqueid": strconv.FormatInt(messageUnid, 10),
	})
}

type Message struct {
	Unid      int64
	Type      MessageType
	Timestamp time.Time
	Author    string
	Title     string
	// inner html, messages carry markup
	Body string
}

// ListMessages scrapes the expanded comment thread off the ticket's
// form page. This is not a table query, the thread is only rendered on
// the full ticket view.
func (s Service) ListMessages(ctx context.Context, ticketUnid int64) ([]Message, error) {
	ctx, span := tracer.Start(ctx, "ListMessages")
	defer span.End()
	span.SetAttributes(attribute.Int64("ticket_unid", ticketUnid))

	res, err := s.client.R(ctx).
		SetQueryParam("uniqueid", strconv.FormatInt(ticketUnid, 10)).
		Get("/jsp/wf/uiform/uiform_wf1act.jsp")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch ticket page")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse ticket page html")
		return nil, err
	}

	var messages []Message
	var decodeErr error
	doc.Find(".comment.expanded").EachWithBreak(func(_ int, comment *goquery.Selection) bool {
		message, err := decodeMessage(comment)
		if err != nil {
			decodeErr = err
			return false
		}
		messages = append(messages, message)
		return true
	})
	if decodeErr != nil {
		span.RecordError(decodeErr)
		span.SetStatus(codes.Error, "failed to decode message thread")
		return nil, decodeErr
	}

	return messages, nil
}

func decodeMessage(comment *goquery.Selection) (Message, error) {
	rawId := comment.AttrOr("id", "")
	unid, err := strconv.ParseInt(strings.TrimPrefix(rawId, "comment"), 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("comment id %q is not comment<unid>", rawId)
	}

	messageType := MessageExternal
	if comment.Find(".internal").Length() > 0 {
		messageType = MessageInternal
	}

	timestampText := htmlutil.CleanText(comment.Find(".timestamp").Text())
	timestamp, err := core.ParseDateTime(timestampText)
	if err != nil {
		return Message{}, fmt.Errorf("comment %d: %w", unid, err)
	}

	body, err := comment.Find(".message").Html()
	if err != nil {
		return Message{}, fmt.Errorf("comment %d: %w", unid, err)
	}

	return Message{
		Unid:      unid,
		Type:      messageType,
		Timestamp: timestamp,
		Author:    htmlutil.CleanText(comment.Find(".author").Text()),
		Title:     htmlutil.CleanText(comment.Find(".desc").Text()),
		Body:      strings.TrimSpace(body),
	}, nil
}
