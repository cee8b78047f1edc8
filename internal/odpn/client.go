package odpn

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"odpn-automation/internal/components/assert"
	"odpn-automation/internal/components/telemetry"
	"odpn-automation/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	report_client_submit_form   = "client.submit-form"
	report_client_delete        = "client.delete-document"
	report_client_change_school = "client.change-school"
)

const (
	documentService  = "/ODPN/Szkoly/RozliczenieDotacji/Kontrolki/Taby/Dokument/Dokument.asmx"
	pathSubmitForm   = documentService + "/SubmitForm"
	pathDeleteRow    = documentService + "/GridDeleteRow"
	pathChangeSchool = "/Common/ZmianaPlacowki/ZmianaPlacowki_Resp.aspx"
)

var tracer = otel.Tracer("odpn-automation/internal/odpn")

// StatusError is returned for every non-2xx answer of the portal.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type ClientOptions struct {
	// BaseURL is scheme + host of the portal, ex. https://odpn.example.pl
	BaseURL string
	// Cookies are the browser session cookies, they are sent to every path
	// of the host regardless of the domain and path they were set for.
	Cookies   []*http.Cookie
	UserAgent string
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
	// Output receives full HTTP dumps in verbose mode, it can be nil.
	Output restyutil.InstrumentOutput
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	tel     telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotEmptyStr(opts.BaseURL)
	assert.NotNil(tel)

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	cookies := make([]*http.Cookie, 0, len(opts.Cookies))
	for _, c := range opts.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}, cookies)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetCookieJar(jar)
	client.SetBaseURL(fmt.Sprintf("%s://%s", base.Scheme, base.Host))
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept", "application/json, text/javascript, */*; q=0.01")
	restyutil.InstrumentClient(client, tracer, opts.Output)

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 && !math.IsInf(opts.RequestsPerSecond, 1) {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
		tel:     tel,
	}, nil
}

func (c *Client) post(ctx context.Context, op, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx)
	prepare(req)
	res, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.IsError() {
		return res, StatusError{
			Op:     op,
			Status: res.StatusCode(),
			Body:   truncate(res.String(), 500),
		}
	}
	return res, nil
}

// SubmitForm creates one expense record from a payload built by NewPayload.
func (c *Client) SubmitForm(ctx context.Context, payload Payload) error {
	ctx, span := tracer.Start(ctx, "SubmitForm")
	defer span.End()

	_, err := c.post(ctx, "submit form", pathSubmitForm, func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{"data": payload})
	})
	if err != nil {
		c.tel.ReportBroken(report_client_submit_form, err)
		span.RecordError(err)
		return err
	}
	c.tel.ReportDebug("form submitted", payload["NumerPola"], payload["Id"])
	return nil
}

// replay sends a captured store parameter back as it was, null when the grid
// did not send it.
func replay(raw json.RawMessage) any {
	if present(raw) {
		return raw
	}
	return nil
}

// DeleteDocument removes a document from the current month by replaying the
// grid's own delete request.
func (c *Client) DeleteDocument(ctx context.Context, s Session, id int64) error {
	ctx, span := tracer.Start(ctx, "DeleteDocument")
	defer span.End()

	body := map[string]any{
		"data": map[string]any{
			"groupDir":                         "ASC",
			"wydrukId":                         s.WydrukID,
			"IdDokumentu":                      s.DokumentID,
			"szkid":                            s.SzkID,
			"rok":                              s.Rok,
			"miesiac":                          s.Miesiac,
			"rozdzial":                         s.Rozdzial,
			"v_store_filters":                  []any{},
			"v_store_filters_autoRemoteSearch": replay(s.AutoRemoteSearch),
			"v_store_filters_addInfo":          []any{},
			"v_store_fields":                   replay(s.StoreFields),
			"v_store_groupField":               replay(s.GroupField),
			"v_store_groupDir":                 replay(s.GroupDir),
			"sort":                             replay(s.Sort),
			"dir":                              replay(s.Dir),
			"jsonData":                         []int64{id},
		},
	}

	_, err := c.post(ctx, "delete document", pathDeleteRow, func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json; charset=UTF-8").
			SetHeader("X-Requested-With", "XMLHttpRequest").
			SetBody(body)
	})
	if err != nil {
		c.tel.ReportBroken(report_client_delete, err, id)
		span.RecordError(err)
		return err
	}
	c.tel.ReportDebug("document deleted", id)
	return nil
}

// ChangeSchool switches the school the session works on. The browser has to
// be reloaded afterwards for the UI to pick it up.
func (c *Client) ChangeSchool(ctx context.Context, schoolID int) error {
	ctx, span := tracer.Start(ctx, "ChangeSchool")
	defer span.End()

	_, err := c.post(ctx, "change school", pathChangeSchool, func(req *resty.Request) {
		req.SetFormData(map[string]string{
			"task":   "ZmianaPlacowki",
			"szk_id": strconv.Itoa(schoolID),
		})
	})
	if err != nil {
		c.tel.ReportBroken(report_client_change_school, err, schoolID)
		span.RecordError(err)
		return err
	}
	c.tel.ReportDebug("school changed", schoolID)
	return nil
}
