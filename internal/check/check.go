// Package check verifies that every local asset referenced by the entry
// document is actually served, either straight from a Site or over HTTP
// from a running server.
package check

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"smssync-site/internal/page"
	"smssync-site/internal/site"
)

// Result is the outcome for one reference.
type Result struct {
	Ref    string
	Kind   page.Kind
	Path   string
	Status int
	Size   int
	Err    error
}

// OK reports whether the reference was served with content.
func (r Result) OK() bool {
	return r.Status == http.StatusOK && r.Size > 0 && r.Err == nil
}

// Report is the outcome of a whole check.
type Report struct {
	Target   string
	Title    string
	Results  []Result
	External []page.AssetRef
}

// OK reports whether every reference was served.
func (r *Report) OK() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Local checks a Site without going through HTTP.
func Local(s *site.Site) (*Report, error) {
	doc, err := s.Serve("/")
	if err != nil {
		return nil, errors.Wrap(err, "serve document")
	}
	parsed, err := page.Parse(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, err
	}

	report := &Report{
		Target:   s.Document(),
		Title:    parsed.Title,
		External: parsed.ExternalRefs(),
	}
	for _, ref := range parsed.LocalRefs() {
		res := Result{Ref: ref.Ref, Kind: ref.Kind}
		p, ok := s.Resolve(ref.Ref)
		if !ok {
			res.Status = http.StatusNotFound
			res.Err = errors.Errorf("cannot resolve %q", ref.Ref)
			report.Results = append(report.Results, res)
			continue
		}
		res.Path = p

		content, err := s.Serve(p)
		switch {
		case err == nil:
			res.Status = http.StatusOK
			res.Size = len(content.Data)
		case errors.Is(err, site.ErrNotFound):
			res.Status = http.StatusNotFound
			res.Err = err
		default:
			res.Status = http.StatusInternalServerError
			res.Err = err
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// RemoteOptions configures Remote.
type RemoteOptions struct {
	// RateLimit is the number of requests per second; 0 means 5.
	RateLimit float64
	// Timeout bounds each request; 0 means 10s.
	Timeout time.Duration
	// Progress, when set, receives a progress bar.
	Progress io.Writer
	Client   *http.Client
}

// Remote fetches the document from baseURL and then every local reference.
func Remote(ctx context.Context, baseURL string, opts RemoteOptions) (*Report, error) {
	if opts.RateLimit == 0 {
		opts.RateLimit = 5
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", baseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	status, body, err := fetch(ctx, client, base.String())
	if err != nil {
		return nil, errors.Wrap(err, "fetch document")
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("fetch document: status %d", status)
	}

	parsed, err := page.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	refs := parsed.LocalRefs()
	report := &Report{
		Target:   base.String(),
		Title:    parsed.Title,
		External: parsed.ExternalRefs(),
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(refs),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("Checking assets"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, ref := range refs {
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		target, err := base.Parse(strings.TrimSpace(ref.Ref))
		res := Result{Ref: ref.Ref, Kind: ref.Kind}
		if err != nil {
			res.Err = err
		} else {
			res.Path = target.Path
			res.Status, body, res.Err = fetch(ctx, client, target.String())
			res.Size = len(body)
		}

		logrus.WithFields(logrus.Fields{
			"ref":    ref.Ref,
			"path":   res.Path,
			"status": res.Status,
			"size":   res.Size,
		}).Debug("Checked asset")

		report.Results = append(report.Results, res)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	return report, nil
}

func fetch(ctx context.Context, client *http.Client, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
