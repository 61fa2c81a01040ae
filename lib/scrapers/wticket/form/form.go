// Package form speaks the IOServlet protocol: every business-object
// write in WTicket goes through one endpoint as a small XML envelope
// keyed by form id and numeric action code.
package form

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"wticket-bot/lib/scrapers/wticket/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wticket/form")

type Field struct {
	Id    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type Submission struct {
	XMLName xml.Name `xml:"form"`
	Id      string   `xml:"id,attr"`
	Action  string   `xml:"action,attr"`
	Fields  []Field  `xml:"field"`
}

// ErrNotRecognized means the server did not match the form id against
// any template. It arrives as an *empty* error element under an
// ioservletresponse root; emptiness signals failure on that root, the
// opposite of the message root.
var ErrNotRecognized = errors.New("Form not recognized")

// RejectedError carries a server-side validation or business error
// verbatim.
type RejectedError struct {
	Message string
}

func (e RejectedError) Error() string {
	return e.Message
}

func Submit(ctx context.Context, client *core.Client, submission Submission) error {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("form", submission.Id),
		attribute.String("action", submission.Action),
	)

	body, err := xml.Marshal(submission)
	if err != nil {
		span.SetStatus(codes.Error, "failed to marshal form envelope")
		return err
	}

	res, err := client.R(ctx).
		SetHeader("Content-Type", "text/xml; charset=UTF-8").
		SetBody(body).
		Post("/IOServlet")
	if err != nil {
		span.SetStatus(codes.Error, "failed to post form")
		return err
	}

	err = classifyResponse(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form submission failed")
		return err
	}
	return nil
}

// classifyResponse normalizes the two response shapes into one
// outcome. The shapes must never be confused: an empty error under
// message means success, an empty error under ioservletresponse means
// the form template does not exist.
func classifyResponse(body []byte) error {
	var envelope struct {
		XMLName xml.Name
		Error   string `xml:"error"`
	}
	err := xml.Unmarshal(body, &envelope)
	if err != nil {
		return fmt.Errorf("unparseable form response: %w", err)
	}

	switch envelope.XMLName.Local {
	case "ioservletresponse":
		if envelope.Error == "" {
			return ErrNotRecognized
		}
		return RejectedError{Message: envelope.Error}
	case "message":
		if envelope.Error == "" {
			return nil
		}
		return RejectedError{Message: envelope.Error}
	default:
		return fmt.Errorf("unexpected form response root <%s>", envelope.XMLName.Local)
	}
}

// ExecuteAction fires a stateless parameterized command (pin, unpin)
// against the form endpoint, no body, no structured response. Success
// is the absence of a transport error.
func ExecuteAction(ctx context.Context, client *core.Client, params map[string]string) error {
	ctx, span := tracer.Start(ctx, "ExecuteAction")
	defer span.End()

	_, err := client.R(ctx).
		SetQueryParams(params).
		Post("/IOServlet")
	if err != nil {
		span.SetStatus(codes.Error, "failed to post action")
		return err
	}
	return nil
}
