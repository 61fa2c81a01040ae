package ticket

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"
	"wticket-bot/lib/scrapers/wticket/form"
	"wticket-bot/lib/telemetry"
	"wticket-bot/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestAddMessage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	var body []byte
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/IOServlet", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.Write([]byte(`<message><error></error></message>`))
	})

	err := service.AddMessage(context.Background(), 9001, CreateMessage{
		Type:  MessageExternal,
		Color: ColorGreen,
		Title: "Storing verholpen",
		Body:  "Zie bijlage",
	})
	require.NoError(t, err)

	require.Equal(t,
		`<form id="wf1procesinsmsgadd" action="15">`+
			`<field id="messageType">E</field>`+
			`<field id="actnr_wf1act_unid">9001</field>`+
			`<field id="headerclass">GROEN</field>`+
			`<field id="onderwerp">Storing verholpen</field>`+
			`<field id="bericht">Zie bijlage</field>`+
			`</form>`,
		string(body))
}

func TestAddMessageDefaultsInternal(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	var body []byte
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.Write([]byte(`<message><error></error></message>`))
	})

	err := service.AddMessage(context.Background(), 9001, CreateMessage{Body: "Zie bijlage"})
	require.NoError(t, err)

	require.Equal(t,
		`<form id="wf1procesinsmsgadd" action="15">`+
			`<field id="messageType">I</field>`+
			`<field id="actnr_wf1act_unid">9001</field>`+
			`<field id="bericht">Zie bijlage</field>`+
			`</form>`,
		string(body))
}

func TestAddMessageRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<message><error>Activiteit is afgesloten</error></message>`))
	})

	err := service.AddMessage(context.Background(), 9001, CreateMessage{Body: "Zie bijlage"})
	var rejected form.RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "Activiteit is afgesloten", rejected.Message)
}

func TestPinUnpinMessage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	var actions []string
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/IOServlet", r.URL.Path)
		require.Equal(t, "wf1procesinsmsg", r.URL.Query().Get("name"))
		require.Equal(t, "301", r.URL.Query().Get("uniqueid"))
		actions = append(actions, r.URL.Query().Get("action"))
	})

	require.NoError(t, service.PinMessage(context.Background(), 301))
	require.NoError(t, service.UnpinMessage(context.Background(), 301))
	require.Equal(t, []string{"101", "102"}, actions)
}

const threadFixture = `
<html><body>
<div class="comment expanded" id="comment301">
	<span class="internal"></span>
	<span class="timestamp">24-09-2025 14:30</span>
	<span class="author">J. de Vries</span>
	<span class="desc">Storing gemeld</span>
	<div class="message"><p>Pomp maakt <b>lawaai</b></p></div>
</div>
<div class="comment expanded" id="comment302">
	<span class="timestamp">25-09-2025 09:05</span>
	<span class="author">A. de Boer</span>
	<span class="desc"></span>
	<div class="message">Monteur ingepland</div>
</div>
<div class="comment" id="comment303">
	<span class="timestamp">25-09-2025 11:00</span>
</div>
</body></html>`

func TestListMessages(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsp/wf/uiform/uiform_wf1act.jsp", r.URL.Path)
		require.Equal(t, "9001", r.URL.Query().Get("uniqueid"))
		w.Write([]byte(threadFixture))
	})

	messages, err := service.ListMessages(context.Background(), 9001)
	require.NoError(t, err)

	// comment303 is collapsed and must not appear
	require.Equal(t, []Message{
		{
			Unid:      301,
			Type:      MessageInternal,
			Timestamp: time.Date(2025, 9, 24, 14, 30, 0, 0, timezone.Location),
			Author:    "J. de Vries",
			Title:     "Storing gemeld",
			Body:      "<p>Pomp maakt <b>lawaai</b></p>",
		},
		{
			Unid:      302,
			Type:      MessageExternal,
			Timestamp: time.Date(2025, 9, 25, 9, 5, 0, 0, timezone.Location),
			Author:    "A. de Boer",
			Body:      "Monteur ingepland",
		},
	}, messages)
}

func TestListMessagesBadComment(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/ticket")
	defer cleanup()

	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="comment expanded" id="nonsense"></div>`))
	})

	_, err := service.ListMessages(context.Background(), 9001)
	require.ErrorContains(t, err, `comment id "nonsense"`)
}
