package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/api/types/tasks"
)

// Client of the orchestration API.
type Client interface {
	// SubmitTask posts a task to the application.
	//
	// # Args
	//
	// - context.Context
	//
	// - tasks.TaskRequest: task to be submitted. Application should not be empty.
	//
	// # Returns
	//
	// - tasks.TaskRef: reference to the submitted task.
	//
	// - error
	SubmitTask(ctx context.Context, req tasks.TaskRequest) (tasks.TaskRef, error)

	// GetTask gets the current snapshot of the task.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: id of the task
	//
	// # Returns
	//
	// - tasks.Task
	//
	// - error
	GetTask(ctx context.Context, taskId string) (tasks.Task, error)

	// GetExecutions gets pipeline executions of the application.
	GetExecutions(ctx context.Context, application string) ([]executions.Execution, error)
}

var ErrInvalidApiRoot = errors.New("api root is invalid")

type client struct {
	httpclient *http.Client
	api        string
}

type ClientOption func(*clientConfig) error

type clientConfig struct {
	httpclient *http.Client
	cacerts    []string
	token      string
}

// WithCA makes the client trust the CA certificate.
//
// cert should be base64 encoded PEM.
func WithCA(cert string) ClientOption {
	return func(cc *clientConfig) error {
		if cert != "" {
			cc.cacerts = append(cc.cacerts, cert)
		}
		return nil
	}
}

// WithToken makes the client send requests with "Authorization: Bearer <token>".
func WithToken(token string) ClientOption {
	return func(cc *clientConfig) error {
		cc.token = token
		return nil
	}
}

// WithHTTPClient replaces base http.Client. It is not modified by the client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(cc *clientConfig) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		cc.httpclient = hc
		return nil
	}
}

// NewClient creates a new client for the orchestration API at apiRoot.
//
// # Returns
//
// - Client
//
// - error: ErrInvalidApiRoot if apiRoot is not an absolute http(s) url,
// or the error of options.
func NewClient(apiRoot string, options ...ClientOption) (Client, error) {
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidApiRoot, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidApiRoot, apiRoot)
	}

	cc := &clientConfig{httpclient: new(http.Client)}
	for _, opt := range options {
		if err := opt(cc); err != nil {
			return nil, err
		}
	}

	hc := *cc.httpclient
	if err := trustCa(&hc, cc.cacerts); err != nil {
		return nil, err
	}
	if cc.token != "" {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = &bearer{base: base, token: cc.token}
	}

	return &client{
		httpclient: &hc,
		api:        strings.TrimSuffix(apiRoot, "/"),
	}, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	elems := []string{c.api}
	for _, p := range path {
		elems = append(elems, url.PathEscape(strings.Trim(p, "/")))
	}
	return strings.Join(elems, "/")
}

type bearer struct {
	base  http.RoundTripper
	token string
}

func (b *bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}

func trustCa(hc *http.Client, cacerts []string) error {
	if len(cacerts) <= 0 {
		return nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return fmt.Errorf("failed to add ca cert: unsupported transport %T", hc.Transport)
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return fmt.Errorf("ca cert is not base64 encoded: %w", err)
		}
		if !rootcas.AppendCertsFromPEM(bin) {
			return fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return nil
}
