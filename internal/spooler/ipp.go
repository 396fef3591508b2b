package spooler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OpenPrinting/goipp"
)

const (
	defaultIPPServer  = "localhost:631"
	defaultIPPPort    = "631"
	defaultIPPTimeout = 5 * time.Second
)

// lastSuccessStatus is the top of the IPP successful-ok status class
// (0x0000-0x00ff).
const lastSuccessStatus goipp.Status = 0x00ff

var errNoDefaultPrinter = errors.New("no default printer")

// IPPOpener talks to a CUPS server or an IPP printer directly.
type IPPOpener struct {
	server     string
	printerURI string
	username   string
	charset    string
	language   string
	http       *http.Client
}

var _ Opener = (*IPPOpener)(nil)

// NewIPP builds an opener for the given CUPS server (host:port or URL). When
// printerURI is empty the server is asked for its default destination.
func NewIPP(server, printerURI string, timeout time.Duration) *IPPOpener {
	if strings.TrimSpace(server) == "" {
		server = defaultIPPServer
	}
	if timeout <= 0 {
		timeout = defaultIPPTimeout
	}
	return &IPPOpener{
		server:     strings.TrimSpace(server),
		printerURI: strings.TrimSpace(printerURI),
		username:   "spoolview",
		charset:    "utf-8",
		language:   "en-US",
		http: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{},
		},
	}
}

// OpenDefault resolves the default printer and confirms it answers
// Get-Printer-Attributes.
func (o *IPPOpener) OpenDefault(ctx context.Context) (Queue, error) {
	uri := o.printerURI
	if uri == "" {
		resolved, err := o.defaultPrinterURI(ctx)
		if err != nil {
			return nil, err
		}
		uri = resolved
	}

	in := o.newRequest(goipp.OpGetPrinterAttributes, uri)
	requested := goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String("printer-name"))
	requested.Values.Add(goipp.TagKeyword, goipp.String("printer-state"))
	in.Operation.Add(requested)

	out, err := o.send(ctx, o.endpoint(uri), in)
	if err != nil {
		return nil, fmt.Errorf("printer %s: %w", uri, err)
	}

	queue := &ippQueue{opener: o, uri: uri, name: uri}
	for _, attr := range out.Printer {
		if len(attr.Values) == 0 {
			continue
		}
		switch attr.Name {
		case "printer-name":
			queue.name = attr.Values[0].V.String()
		case "printer-state":
			if v, ok := attr.Values[0].V.(goipp.Integer); ok {
				queue.state = PrinterState(v)
			}
		}
	}
	return queue, nil
}

func (o *IPPOpener) defaultPrinterURI(ctx context.Context) (string, error) {
	in := goipp.NewRequest(goipp.DefaultVersion, goipp.OpCupsGetDefault, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(o.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(o.language)))
	requested := goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String("printer-uri-supported"))
	requested.Values.Add(goipp.TagKeyword, goipp.String("printer-name"))
	in.Operation.Add(requested)

	endpoint, err := o.serverURL()
	if err != nil {
		return "", err
	}
	out, err := o.send(ctx, endpoint, in)
	if err != nil {
		return "", fmt.Errorf("query default printer: %w", err)
	}
	for _, attr := range out.Printer {
		if attr.Name == "printer-uri-supported" && len(attr.Values) > 0 {
			return attr.Values[0].V.String(), nil
		}
	}
	return "", errNoDefaultPrinter
}

func (o *IPPOpener) newRequest(op goipp.Op, printerURI string) *goipp.Message {
	in := goipp.NewRequest(goipp.DefaultVersion, op, 1)
	in.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String(o.charset)))
	in.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String(o.language)))
	in.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(printerURI)))
	in.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(o.username)))
	return in
}

func (o *IPPOpener) serverURL() (string, error) {
	raw := o.server
	if !strings.Contains(raw, "://") {
		raw = "ipp://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse server %q: %w", o.server, err)
	}
	u.Path = "/"
	return o.endpoint(u.String()), nil
}

// endpoint maps ipp/ipps URIs onto the HTTP transport they run over.
func (o *IPPOpener) endpoint(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	switch u.Scheme {
	case "ipp":
		u.Scheme = "http"
		if u.Port() == "" {
			u.Host = net.JoinHostPort(u.Hostname(), defaultIPPPort)
		}
	case "ipps":
		u.Scheme = "https"
		if u.Port() == "" {
			u.Host = net.JoinHostPort(u.Hostname(), defaultIPPPort)
		}
	}
	return u.String()
}

func (o *IPPOpener) send(ctx context.Context, endpoint string, in *goipp.Message) (*goipp.Message, error) {
	message, err := in.EncodeBytes()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(message))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if u, err := url.Parse(endpoint); err == nil && u.User != nil {
		pwd, _ := u.User.Password()
		req.SetBasicAuth(u.User.Username(), pwd)
	}
	req.Header.Set("Content-Type", goipp.ContentType)
	req.Header.Set("Accept", goipp.ContentType)

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("request failed: status code %d", resp.StatusCode)
	}

	out := goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	status := goipp.Status(out.Code)
	if status == goipp.StatusErrorNotFound && goipp.Op(in.Code) == goipp.OpCupsGetDefault {
		return nil, errNoDefaultPrinter
	}
	if status > lastSuccessStatus {
		return nil, errors.New(status.String())
	}
	return &out, nil
}

type ippQueue struct {
	opener *IPPOpener
	uri    string
	name   string
	state  PrinterState
}

func (q *ippQueue) Name() string        { return q.name }
func (q *ippQueue) State() PrinterState { return q.state }

// Probe asks the printer for queued-job-count.
func (q *ippQueue) Probe(ctx context.Context) (int, error) {
	in := q.opener.newRequest(goipp.OpGetPrinterAttributes, q.uri)
	in.Operation.Add(goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String("queued-job-count")))

	out, err := q.opener.send(ctx, q.opener.endpoint(q.uri), in)
	if err != nil {
		return 0, err
	}
	for _, attr := range out.Printer {
		if attr.Name != "queued-job-count" || len(attr.Values) == 0 {
			continue
		}
		count, ok := attr.Values[0].V.(goipp.Integer)
		if !ok {
			return 0, fmt.Errorf("queued-job-count has type %s", attr.Values[0].T)
		}
		return int(count), nil
	}
	return 0, errors.New("printer did not report queued-job-count")
}

// Fill issues Get-Jobs limited to len(buf) pending jobs.
func (q *ippQueue) Fill(ctx context.Context, buf []Job) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	in := q.opener.newRequest(goipp.OpGetJobs, q.uri)
	in.Operation.Add(goipp.MakeAttribute("which-jobs", goipp.TagKeyword, goipp.String("not-completed")))
	in.Operation.Add(goipp.MakeAttribute("limit", goipp.TagInteger, goipp.Integer(len(buf))))
	requested := goipp.MakeAttribute("requested-attributes", goipp.TagKeyword, goipp.String("job-id"))
	requested.Values.Add(goipp.TagKeyword, goipp.String("job-name"))
	in.Operation.Add(requested)

	out, err := q.opener.send(ctx, q.opener.endpoint(q.uri), in)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, group := range out.Groups {
		if group.Tag != goipp.TagJobGroup {
			continue
		}
		if n == len(buf) {
			break
		}
		buf[n] = jobFromAttrs(group.Attrs)
		n++
	}
	return n, nil
}

func (q *ippQueue) Close() error {
	q.opener.http.CloseIdleConnections()
	return nil
}

func jobFromAttrs(attrs goipp.Attributes) Job {
	var job Job
	for _, attr := range attrs {
		if len(attr.Values) == 0 {
			continue
		}
		switch attr.Name {
		case "job-id":
			if v, ok := attr.Values[0].V.(goipp.Integer); ok && v >= 0 {
				job.ID = uint32(v)
			}
		case "job-name":
			job.Document = attr.Values[0].V.String()
		}
	}
	return job
}
