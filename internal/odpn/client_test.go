package odpn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"odpn-automation/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Path        string
	ContentType string
	Requested   string
	Cookie      string
	Body        []byte
	Form        map[string]string
}

type fakePortal struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
}

func (p *fakePortal) handler(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Requested:   r.Header.Get("X-Requested-With"),
	}
	if c, err := r.Cookie("ASP.NET_SessionId"); err == nil {
		call.Cookie = c.Value
	}
	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		r.ParseForm()
		call.Form = map[string]string{}
		for k := range r.PostForm {
			call.Form[k] = r.PostForm.Get(k)
		}
	} else {
		call.Body, _ = io.ReadAll(r.Body)
	}

	p.mu.Lock()
	p.calls = append(p.calls, call)
	status := p.status
	p.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write([]byte(`{"d":{"success":true}}`))
}

func newTestClient(t *testing.T, portal *fakePortal) (*Client, *telemetry.Recorder) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(portal.handler))
	t.Cleanup(server.Close)

	rec := telemetry.NewRecorder()
	client, err := NewClient(ClientOptions{
		BaseURL: server.URL,
		Cookies: []*http.Cookie{
			{Name: "ASP.NET_SessionId", Value: "abc123", Domain: "odpn.example.pl", Path: "/ODPN"},
		},
		UserAgent: "odpn-test",
	}, rec)
	require.NoError(t, err)
	return client, rec
}

func testSession() Session {
	return Session{
		SzkID:       Raw(1204),
		Rok:         Raw(2024),
		Miesiac:     Raw(9),
		Rozdzial:    Raw("80120"),
		DokumentID:  Raw(90112),
		WydrukID:    Raw(48213),
		StoreFields: json.RawMessage(`[{"name":"_5","allowBlank":false}]`),
		GroupField:  Raw("NumerPola"),
		Sort:        Raw("Id"),
		Dir:         Raw("DESC"),
	}
}

func TestSubmitForm(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	payload := NewPayload(testSession(), Position{NumerPola: 13, ID: -1}, map[string]any{"_5": "FV 1"})
	err := client.SubmitForm(context.Background(), payload)
	require.NoError(t, err)

	require.Len(t, portal.calls, 1)
	call := portal.calls[0]
	require.Equal(t, pathSubmitForm, call.Path)
	require.Equal(t, "application/json", call.ContentType)
	require.Equal(t, "abc123", call.Cookie)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(call.Body, &body))
	require.Equal(t, "-1", body.Data["Id"])
	require.Equal(t, "13", body.Data["NumerPola"])
	require.Equal(t, "FV 1", body.Data["_5"])
	require.Equal(t, "80120", body.Data["ID_rozdzial"])
}

func TestSubmitFormStatusError(t *testing.T) {
	portal := &fakePortal{status: http.StatusInternalServerError}
	client, rec := newTestClient(t, portal)

	err := client.SubmitForm(context.Background(), Payload{"Id": "-1"})
	require.Error(t, err)

	var statusErr StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.Status)
	require.Contains(t, statusErr.Body, "success")
	require.Len(t, rec.Find(telemetry.LevelBroken, report_client_submit_form), 1)
}

func TestDeleteDocument(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	err := client.DeleteDocument(context.Background(), testSession(), 28677)
	require.NoError(t, err)

	require.Len(t, portal.calls, 1)
	call := portal.calls[0]
	require.Equal(t, pathDeleteRow, call.Path)
	require.Equal(t, "application/json; charset=UTF-8", call.ContentType)
	require.Equal(t, "XMLHttpRequest", call.Requested)
	require.JSONEq(t, `{"data": {
		"groupDir": "ASC",
		"wydrukId": 48213,
		"IdDokumentu": 90112,
		"szkid": 1204,
		"rok": 2024,
		"miesiac": 9,
		"rozdzial": "80120",
		"v_store_filters": [],
		"v_store_filters_autoRemoteSearch": null,
		"v_store_filters_addInfo": [],
		"v_store_fields": [{"name":"_5","allowBlank":false}],
		"v_store_groupField": "NumerPola",
		"v_store_groupDir": null,
		"sort": "Id",
		"dir": "DESC",
		"jsonData": [28677]
	}}`, string(call.Body))
}

func TestDeleteDocumentReplaysStoreParameters(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	session := testSession()
	session.AutoRemoteSearch = Raw(true)
	session.GroupDir = Raw("DESC")
	session.Sort = json.RawMessage("null")
	session.StoreFields = nil

	err := client.DeleteDocument(context.Background(), session, 7)
	require.NoError(t, err)

	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(portal.calls[0].Body, &body))
	require.JSONEq(t, `true`, string(body.Data["v_store_filters_autoRemoteSearch"]))
	require.JSONEq(t, `"DESC"`, string(body.Data["v_store_groupDir"]))
	require.JSONEq(t, `null`, string(body.Data["sort"]))
	require.JSONEq(t, `null`, string(body.Data["v_store_fields"]))
	require.JSONEq(t, `"ASC"`, string(body.Data["groupDir"]))
}

func TestDeleteDocumentStatusError(t *testing.T) {
	portal := &fakePortal{status: http.StatusForbidden}
	client, rec := newTestClient(t, portal)

	err := client.DeleteDocument(context.Background(), testSession(), 1)
	var statusErr StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.Status)
	require.Len(t, rec.Find(telemetry.LevelBroken, report_client_delete), 1)
}

func TestChangeSchool(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	err := client.ChangeSchool(context.Background(), 4711)
	require.NoError(t, err)

	require.Len(t, portal.calls, 1)
	call := portal.calls[0]
	require.Equal(t, pathChangeSchool, call.Path)
	require.Equal(t, map[string]string{"task": "ZmianaPlacowki", "szk_id": "4711"}, call.Form)
	require.Equal(t, "abc123", call.Cookie)
}

func TestClientRespectsCancelledContext(t *testing.T) {
	portal := &fakePortal{}
	server := httptest.NewServer(http.HandlerFunc(portal.handler))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, RequestsPerSecond: 0.001}, telemetry.NewRecorder())
	require.NoError(t, err)

	// the first request consumes the only token
	require.NoError(t, client.ChangeSchool(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.ChangeSchool(ctx, 2)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, portal.calls, 1)
}
