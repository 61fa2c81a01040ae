// Package profile reads the authenticated user's identity and their
// per-workstation preference sets.
package profile

import (
	"context"
	"strconv"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/scrapers/wticket/table"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/profile")

type Service struct {
	client *core.Client
}

func NewService(client *core.Client) Service {
	return Service{client: client}
}

// Status reports the server's current date, the active warehouse and
// the authenticated user. Also serves as a cheap liveness probe for
// the session.
func (s Service) Status(ctx context.Context) (core.Status, error) {
	return s.client.Status(ctx)
}

// PreferenceFlags lists the flag columns of the sysusrpref query in
// server column order, after the user and workstation cells. The short
// codes are WTicket's own, their meanings range from "restore tabs on
// a new session" (ht) to "quality inspection" (qi).
var PreferenceFlags = []string{
	"ht", "as", "w", "p", "vc", "s",
	"pd", "fd", "pw", "fw", "pm", "fm",
	"st", "et", "eh", "es", "eq", "im",
	"aed", "lz", "cr", "qi",
}

type Preferences struct {
	Unid int64
	// search name of the user the set belongs to
	User string
	// empty when the set is workstation independent
	Workstation string
	// keyed by PreferenceFlags; an empty cell means the flag is unset
	Flags map[string]bool
}

func decodePreferences(row table.Row) (Preferences, error) {
	unid, err := row.Id()
	if err != nil {
		return Preferences{}, err
	}
	user, err := row.Cells.Text(0)
	if err != nil {
		return Preferences{}, err
	}
	workstation, _ := row.Cells.Optional(1)

	flags := make(map[string]bool, len(PreferenceFlags))
	for i, flag := range PreferenceFlags {
		_, set := row.Cells.Optional(2 + i)
		flags[flag] = set
	}

	return Preferences{
		Unid:        unid,
		User:        user,
		Workstation: workstation,
		Flags:       flags,
	}, nil
}

// Preferences lists the preference sets of one user, usually one per
// workstation.
func (s Service) Preferences(ctx context.Context, userUnid int64) ([]Preferences, error) {
	ctx, span := tracer.Start(ctx, "Preferences")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_unid", userUnid))

	preferences, err := table.List(ctx, s.client, table.Spec{
		QueryId:      "sysusrpref",
		ForeignName:  "_<arrayoverlaps>_user_sysaut_unid",
		ForeignValue: strconv.FormatInt(userUnid, 10),
	}, decodePreferences)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list preferences")
		return nil, err
	}
	return preferences, nil
}

// CurrentPreferences resolves the logged-in user through the status
// fragment and lists their preference sets.
func (s Service) CurrentPreferences(ctx context.Context) ([]Preferences, error) {
	ctx, span := tracer.Start(ctx, "CurrentPreferences")
	defer span.End()

	status, err := s.Status(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch status")
		return nil, err
	}
	return s.Preferences(ctx, status.User.Unid)
}
