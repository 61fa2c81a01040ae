package table

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/telemetry"

	"github.com/stretchr/testify/require"
)

var keyTokenRegex = regexp.MustCompile(`^_<([a-z]+)>_(.*)$`)

// decodeFilters reverses Values() for the round-trip check below.
func decodeFilters(t *testing.T, searchcol, key string) []Filter {
	cols := strings.Split(searchcol, ",")
	keys := strings.Split(key, ",")
	require.Equal(t, len(cols), len(keys))

	filters := make([]Filter, len(cols))
	for i := range cols {
		column, err := strconv.Atoi(cols[i])
		require.NoError(t, err)
		groups := keyTokenRegex.FindStringSubmatch(keys[i])
		require.Len(t, groups, 3)
		filters[i] = Filter{
			Column: column,
			Op:     Operator(groups[1]),
			Value:  groups[2],
		}
	}
	return filters
}

func TestSpecValuesRoundTrip(t *testing.T) {
	testCases := [][]Filter{
		{{Column: 2, Op: OpExact, Value: "4281"}},
		{
			{Column: 3, Op: OpContains, Value: "pomp"},
			{Column: 2, Op: OpExact, Value: "4281"},
		},
		{
			{Column: 11, Op: OpExact, Value: "24-09-2025"},
			{Column: 4, Op: OpContains, Value: "storing"},
			{Column: 14, Op: OpExact, Value: ""},
		},
	}

	for _, filters := range testCases {
		values := Spec{QueryId: "wf1act", Filters: filters}.Values()

		require.Equal(t, "wf1act", values.Get("queryid"))
		decoded := decodeFilters(t, values.Get("searchcol"), values.Get("key"))
		require.Equal(t, filters, decoded)
	}
}

func TestSpecValues(t *testing.T) {
	values := Spec{QueryId: "wf1medewerkers"}.Values()
	require.Equal(t, "wf1medewerkers", values.Get("queryid"))
	require.False(t, values.Has("searchcol"))
	require.False(t, values.Has("key"))
	require.False(t, values.Has("maxrows"))

	values = Spec{QueryId: "wf1act", Limit: 25}.Values()
	require.Equal(t, "25", values.Get("maxrows"))

	values = Spec{
		QueryId:      "wf1actlopend",
		ForeignName:  "_<arrayoverlaps>_uitvoerder_gc1mdw_unid",
		ForeignValue: "17",
	}.Values()
	require.Equal(t, "_<arrayoverlaps>_uitvoerder_gc1mdw_unid", values.Get("foreignUNIDName"))
	require.Equal(t, "17", values.Get("foreignUNIDValue"))
}

const listingFixture = `
<table>
	<tr><td>Code</td><td>Naam</td><td>Taken</td></tr>
	<tr><td><input type="text"/></td><td><input type="text"/></td><td></td></tr>
	<tr unid="101"><td>AB</td><td>A. de Boer</td><td>4</td></tr>
	<tr unid="0" empty="true"><td>Geen resultaten</td><td></td><td></td></tr>
	<tr unid="102"><td>CD</td><td>C. Dijkstra</td><td></td></tr>
</table>`

const emptyListingFixture = `
<table>
	<tr><td>Code</td><td>Naam</td><td>Taken</td></tr>
	<tr><td><input type="text"/></td><td></td><td></td></tr>
	<tr unid="0" empty="true"><td>Geen resultaten</td><td></td><td></td></tr>
</table>`

func serveFixture(t *testing.T, fixture string, assertQuery func(*http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsp/atsc/UITableIFrame.jsp", r.URL.Path)
		if assertQuery != nil {
			assertQuery(r)
		}
		w.Write([]byte(fixture))
	}))
}

func newTestClient(t *testing.T, server *httptest.Server) *core.Client {
	client, err := core.NewClient(core.ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	client.SetToken("TEST")
	return client
}

func TestRowsExcludeStructuralAndPlaceholder(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	server := serveFixture(t, listingFixture, nil)
	defer server.Close()
	client := newTestClient(t, server)

	doc, err := Query(context.Background(), client, Spec{QueryId: "wf1medewerkers"})
	require.NoError(t, err)

	rows := Rows(doc)
	require.Len(t, rows, 2)
	require.Equal(t, "101", rows[0].Unid)
	require.Equal(t, Cells{"AB", "A. de Boer", "4"}, rows[0].Cells)
	require.Equal(t, "102", rows[1].Unid)
	require.Equal(t, Cells{"CD", "C. Dijkstra", ""}, rows[1].Cells)
}

func TestRowsExcludePlaceholderWithLimit(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	server := serveFixture(t, listingFixture, func(r *http.Request) {
		require.Equal(t, "5", r.URL.Query().Get("maxrows"))
	})
	defer server.Close()
	client := newTestClient(t, server)

	type member struct{ Unid string }
	members, err := List(context.Background(), client, Spec{QueryId: "wf1medewerkers", Limit: 5},
		func(row Row) (member, error) {
			return member{Unid: row.Unid}, nil
		})
	require.NoError(t, err)
	require.Equal(t, []member{{Unid: "101"}, {Unid: "102"}}, members)
}

func TestListDecodeFailureFailsWholeCall(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	server := serveFixture(t, listingFixture, nil)
	defer server.Close()
	client := newTestClient(t, server)

	_, err := List(context.Background(), client, Spec{QueryId: "wf1medewerkers"},
		func(row Row) (int64, error) {
			return row.Cells.Int(2)
		})
	require.Error(t, err)

	var decodeErr DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "102", decodeErr.Unid)
}

func TestGet(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	// single-result fragments come without the structural rows
	fixture := `<table>
		<tr unid="0" empty="true"><td>Geen resultaten</td></tr>
		<tr unid="4281"><td></td><td>930</td><td>Pomp kapot</td></tr>
	</table>`

	server := serveFixture(t, fixture, func(r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("searchcol"))
		require.Equal(t, "_<exact>_930", r.URL.Query().Get("key"))
	})
	defer server.Close()
	client := newTestClient(t, server)

	unid, err := Get(context.Background(), client, Spec{
		QueryId: "wf1act",
		Filters: []Filter{{Column: 2, Op: OpExact, Value: "930"}},
	}, func(row Row) (int64, error) {
		return row.Id()
	})
	require.NoError(t, err)
	require.Equal(t, int64(4281), unid)
}

func TestGetSkipsStructuralRows(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	// keyed responses sometimes keep the header and filter rows; only
	// the unid attribute marks a real data row
	fixture := `<table>
		<tr><td>Id</td><td>Zoeknaam</td></tr>
		<tr><td><input type="text"/></td><td></td></tr>
		<tr unid="4281"><td></td><td>930</td><td>Pomp kapot</td></tr>
	</table>`

	server := serveFixture(t, fixture, nil)
	defer server.Close()
	client := newTestClient(t, server)

	unid, err := Get(context.Background(), client, Spec{
		QueryId: "wf1act",
		Filters: []Filter{{Column: 2, Op: OpExact, Value: "930"}},
	}, func(row Row) (int64, error) {
		return row.Id()
	})
	require.NoError(t, err)
	require.Equal(t, int64(4281), unid)
}

func TestGetNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	server := serveFixture(t, emptyListingFixture, nil)
	defer server.Close()
	client := newTestClient(t, server)

	_, err := Get(context.Background(), client, Spec{
		QueryId: "wf1act",
		Filters: []Filter{{Column: 2, Op: OpExact, Value: "999999"}},
	}, func(row Row) (Row, error) {
		return row, nil
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetDecodeFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/table")
	defer cleanup()

	fixture := `<table><tr unid="4281"><td>niet-numeriek</td></tr></table>`
	server := serveFixture(t, fixture, nil)
	defer server.Close()
	client := newTestClient(t, server)

	_, err := Get(context.Background(), client, Spec{QueryId: "wf1act"},
		func(row Row) (int64, error) {
			return row.Cells.Int(0)
		})

	var decodeErr DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "4281", decodeErr.Unid)
	require.NotErrorIs(t, err, core.ErrNotFound)
}

func TestRowId(t *testing.T) {
	row := Row{Unid: "4281"}
	id, err := row.Id()
	require.NoError(t, err)
	require.Equal(t, int64(4281), id)

	row = Row{Unid: "x"}
	_, err = row.Id()
	require.Error(t, err)
	require.Equal(t, fmt.Sprintf("row unid %q is not numeric", "x"), err.Error())
}
