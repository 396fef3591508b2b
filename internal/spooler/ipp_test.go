package spooler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenPrinting/goipp"
)

type ippServer struct {
	t *testing.T

	hasDefault  bool
	printerName string
	state       PrinterState
	queued      int
	jobs        []Job
	attrsStatus goipp.Status
	jobsStatus  goipp.Status
	okStatus    goipp.Status // success code for every answered request; zero means successful-ok
	omitQueued  bool

	mu        sync.Mutex
	ops       []goipp.Op
	lastLimit int
	printer   string
}

func newIPPServer(t *testing.T, s *ippServer) *httptest.Server {
	t.Helper()
	s.t = t
	srv := httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(srv.Close)
	s.printer = "ipp://" + strings.TrimPrefix(srv.URL, "http://") + "/printers/office"
	return srv
}

func (s *ippServer) handle(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != goipp.ContentType {
		s.t.Errorf("Content-Type = %q, want %q", ct, goipp.ContentType)
	}
	var req goipp.Message
	if err := req.Decode(r.Body); err != nil {
		s.t.Errorf("decode request: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	op := goipp.Op(req.Code)

	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()

	var resp *goipp.Message
	switch op {
	case goipp.OpCupsGetDefault:
		if !s.hasDefault {
			resp = s.response(&req, goipp.StatusErrorNotFound)
			break
		}
		resp = s.response(&req, s.ok())
		resp.Printer.Add(goipp.MakeAttribute("printer-uri-supported", goipp.TagURI, goipp.String(s.printer)))
		resp.Printer.Add(goipp.MakeAttribute("printer-name", goipp.TagName, goipp.String(s.printerName)))

	case goipp.OpGetPrinterAttributes:
		status := s.attrsStatus
		if status == 0 {
			status = s.ok()
		}
		resp = s.response(&req, status)
		if status > lastSuccessStatus {
			break
		}
		resp.Printer.Add(goipp.MakeAttribute("printer-name", goipp.TagName, goipp.String(s.printerName)))
		resp.Printer.Add(goipp.MakeAttribute("printer-state", goipp.TagEnum, goipp.Integer(s.state)))
		if !s.omitQueued {
			resp.Printer.Add(goipp.MakeAttribute("queued-job-count", goipp.TagInteger, goipp.Integer(s.queued)))
		}

	case goipp.OpGetJobs:
		status := s.jobsStatus
		if status == 0 {
			status = s.ok()
		}
		resp = s.response(&req, status)
		if status > lastSuccessStatus {
			break
		}
		limit := len(s.jobs)
		for _, attr := range req.Operation {
			if attr.Name == "limit" && len(attr.Values) > 0 {
				limit = int(attr.Values[0].V.(goipp.Integer))
			}
		}
		s.mu.Lock()
		s.lastLimit = limit
		s.mu.Unlock()

		resp.Groups = goipp.Groups{{Tag: goipp.TagOperationGroup, Attrs: resp.Operation}}
		for i, job := range s.jobs {
			if i == limit {
				break
			}
			var attrs goipp.Attributes
			attrs.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(job.ID)))
			attrs.Add(goipp.MakeAttribute("job-name", goipp.TagName, goipp.String(job.Document)))
			resp.Groups = append(resp.Groups, goipp.Group{Tag: goipp.TagJobGroup, Attrs: attrs})
		}

	default:
		resp = s.response(&req, goipp.StatusErrorOperationNotSupported)
	}

	w.Header().Set("Content-Type", goipp.ContentType)
	if err := resp.Encode(w); err != nil {
		s.t.Errorf("encode response: %v", err)
	}
}

func (s *ippServer) response(req *goipp.Message, status goipp.Status) *goipp.Message {
	resp := goipp.NewResponse(goipp.DefaultVersion, status, req.RequestID)
	resp.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	resp.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	return resp
}

func (s *ippServer) ok() goipp.Status {
	if s.okStatus != 0 {
		return s.okStatus
	}
	return goipp.StatusOk
}

func (s *ippServer) seenOps() []goipp.Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]goipp.Op(nil), s.ops...)
}

func TestIPP_FetchUsesCupsDefaultPrinter(t *testing.T) {
	s := &ippServer{
		hasDefault:  true,
		printerName: "office",
		state:       PrinterIdle,
		queued:      2,
		jobs:        []Job{{ID: 5, Document: "report.docx"}, {ID: 6, Document: "invoice.pdf"}},
	}
	srv := newIPPServer(t, s)

	opener := NewIPP(strings.TrimPrefix(srv.URL, "http://"), "", time.Second)
	listing, err := Fetch(context.Background(), opener)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if listing.Printer != "office" {
		t.Fatalf("Printer = %q, want office", listing.Printer)
	}
	if listing.State != PrinterIdle {
		t.Fatalf("State = %v, want idle", listing.State)
	}
	if len(listing.Jobs) != 2 {
		t.Fatalf("Jobs = %#v, want 2 jobs", listing.Jobs)
	}
	if listing.Jobs[0] != (Job{ID: 5, Document: "report.docx"}) || listing.Jobs[1] != (Job{ID: 6, Document: "invoice.pdf"}) {
		t.Fatalf("Jobs = %#v, want report.docx then invoice.pdf", listing.Jobs)
	}

	wantOps := []goipp.Op{goipp.OpCupsGetDefault, goipp.OpGetPrinterAttributes, goipp.OpGetPrinterAttributes, goipp.OpGetJobs}
	ops := s.seenOps()
	if len(ops) != len(wantOps) {
		t.Fatalf("ops = %v, want %v", ops, wantOps)
	}
	for i := range wantOps {
		if ops[i] != wantOps[i] {
			t.Fatalf("ops = %v, want %v", ops, wantOps)
		}
	}
	s.mu.Lock()
	limit := s.lastLimit
	s.mu.Unlock()
	if limit != 2 {
		t.Fatalf("Get-Jobs limit = %d, want 2", limit)
	}
}

func TestIPP_SuccessfulStatusClassIsSuccess(t *testing.T) {
	statuses := []goipp.Status{
		goipp.StatusOk,
		goipp.StatusOkIgnoredOrSubstituted,
		goipp.StatusOkConflicting,
	}
	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			s := &ippServer{
				hasDefault:  true,
				printerName: "office",
				queued:      1,
				jobs:        []Job{{ID: 5, Document: "report.docx"}},
				okStatus:    status,
			}
			srv := newIPPServer(t, s)

			jobs, err := FetchJobs(context.Background(), NewIPP(srv.URL, "", time.Second))
			if err != nil {
				t.Fatalf("FetchJobs returned error: %v", err)
			}
			if len(jobs) != 1 || jobs[0] != (Job{ID: 5, Document: "report.docx"}) {
				t.Fatalf("jobs = %#v, want report.docx", jobs)
			}
		})
	}
}

func TestIPP_MissingQueuedJobCountIsEnumerationFailure(t *testing.T) {
	s := &ippServer{printerName: "office", jobs: []Job{{ID: 1, Document: "a"}}, omitQueued: true}
	newIPPServer(t, s)

	_, err := FetchJobs(context.Background(), NewIPP("", s.printer, time.Second))
	if !errors.Is(err, ErrEnumeration) {
		t.Fatalf("FetchJobs error = %v, want ErrEnumeration", err)
	}
	if !strings.Contains(err.Error(), "queued-job-count") {
		t.Fatalf("FetchJobs error = %q, want it to name the missing attribute", err.Error())
	}
}

func TestIPP_ConfiguredPrinterSkipsDefaultLookup(t *testing.T) {
	s := &ippServer{printerName: "lab", queued: 0}
	newIPPServer(t, s)

	opener := NewIPP("unused:631", s.printer, time.Second)
	jobs, err := FetchJobs(context.Background(), opener)
	if err != nil {
		t.Fatalf("FetchJobs returned error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("jobs = %#v, want none", jobs)
	}
	for _, op := range s.seenOps() {
		if op == goipp.OpCupsGetDefault || op == goipp.OpGetJobs {
			t.Fatalf("unexpected op %v with configured printer and empty queue", op)
		}
	}
}

func TestIPP_NoDefaultPrinterIsOpenFailure(t *testing.T) {
	s := &ippServer{hasDefault: false}
	srv := newIPPServer(t, s)

	opener := NewIPP(srv.URL, "", time.Second)
	_, err := FetchJobs(context.Background(), opener)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("FetchJobs error = %v, want ErrOpen", err)
	}
	if !errors.Is(err, errNoDefaultPrinter) {
		t.Fatalf("FetchJobs error = %v, want it to wrap errNoDefaultPrinter", err)
	}
}

func TestIPP_AccessDeniedIsOpenFailure(t *testing.T) {
	s := &ippServer{attrsStatus: goipp.StatusErrorForbidden}
	newIPPServer(t, s)

	_, err := FetchJobs(context.Background(), NewIPP("", s.printer, time.Second))
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("FetchJobs error = %v, want ErrOpen", err)
	}
}

func TestIPP_GetJobsFailureIsEnumerationFailure(t *testing.T) {
	s := &ippServer{printerName: "office", queued: 1, jobs: []Job{{ID: 1}}, jobsStatus: goipp.StatusErrorInternal}
	newIPPServer(t, s)

	_, err := FetchJobs(context.Background(), NewIPP("", s.printer, time.Second))
	if !errors.Is(err, ErrEnumeration) {
		t.Fatalf("FetchJobs error = %v, want ErrEnumeration", err)
	}
}

func TestIPP_HTTPErrorIsOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := FetchJobs(context.Background(), NewIPP(srv.URL, "", time.Second))
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("FetchJobs error = %v, want ErrOpen", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("FetchJobs error = %q, want it to mention the status code", err.Error())
	}
}

func TestIPPEndpoint(t *testing.T) {
	o := NewIPP("", "", 0)
	cases := map[string]string{
		"ipp://printer.local/ipp/print":       "http://printer.local:631/ipp/print",
		"ipps://printer.local:443/ipp/print":  "https://printer.local:443/ipp/print",
		"http://localhost:631/printers/lab":   "http://localhost:631/printers/lab",
		"ipp://localhost:8631/printers/queue": "http://localhost:8631/printers/queue",
	}
	for in, want := range cases {
		if got := o.endpoint(in); got != want {
			t.Fatalf("endpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
