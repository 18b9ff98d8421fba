package api

import (
	"io"
	"net/url"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// MockResponseBody is a ReadCloser that returns one chunk per Read call and
// then either io.EOF or the configured error
type MockResponseBody struct {
	chunks [][]byte
	err    error
	closed bool
}

// NewMockResponseBody creates a body that yields data in a single chunk
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{chunks: [][]byte{data}}
}

// NewChunkedResponseBody creates a body that yields each chunk on its own Read
func NewChunkedResponseBody(err error, chunks ...string) *MockResponseBody {
	b := &MockResponseBody{err: err}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	for len(m.chunks) > 0 && len(m.chunks[0]) == 0 {
		m.chunks = m.chunks[1:]
	}
	if len(m.chunks) == 0 {
		if m.err != nil {
			return 0, m.err
		}
		return 0, io.EOF
	}
	n = copy(p, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockHttpClient is a mock implementation of tls_client.HttpClient for testing.
// Responses are served per request path; Requests records what was sent.
type MockHttpClient struct {
	mu        sync.Mutex
	Responses map[string]*fhttp.Response
	Errs      map[string]error
	Requests  []*fhttp.Request
	Bodies    []string
}

// GetCookies implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetCookies(u *url.URL) []*fhttp.Cookie {
	return nil
}

// SetCookies implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie) {}

// SetCookieJar implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetCookieJar(jar fhttp.CookieJar) {}

// GetCookieJar implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetCookieJar() fhttp.CookieJar {
	return nil
}

// SetProxy implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetProxy(proxyUrl string) error {
	return nil
}

// GetProxy implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetProxy() string {
	return ""
}

// SetFollowRedirect implements the tls_client.HttpClient interface
func (m *MockHttpClient) SetFollowRedirect(followRedirect bool) {}

// GetFollowRedirect implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetFollowRedirect() bool {
	return false
}

// CloseIdleConnections implements the tls_client.HttpClient interface
func (m *MockHttpClient) CloseIdleConnections() {}

// Do implements the tls_client.HttpClient interface
func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.Bodies = append(m.Bodies, string(data))
	} else {
		m.Bodies = append(m.Bodies, "")
	}

	if err, ok := m.Errs[req.URL.Path]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[req.URL.Path]; ok {
		return resp, nil
	}
	return &fhttp.Response{
		StatusCode: 404,
		Body:       NewMockResponseBody([]byte("not found")),
		Header:     make(fhttp.Header),
	}, nil
}

// Get implements the tls_client.HttpClient interface
func (m *MockHttpClient) Get(url string) (*fhttp.Response, error) {
	return nil, io.ErrUnexpectedEOF
}

// Head implements the tls_client.HttpClient interface
func (m *MockHttpClient) Head(url string) (*fhttp.Response, error) {
	return nil, io.ErrUnexpectedEOF
}

// Post implements the tls_client.HttpClient interface
func (m *MockHttpClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	return nil, io.ErrUnexpectedEOF
}

// GetBandwidthTracker implements the tls_client.HttpClient interface
func (m *MockHttpClient) GetBandwidthTracker() bandwidth.BandwidthTracker {
	return nil
}

// RequestCount returns how many requests hit path
func (m *MockHttpClient) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.Requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

// newMockResponse builds a response with the given status and body
func newMockResponse(statusCode int, body io.ReadCloser) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: statusCode,
		Body:       body,
		Header:     make(fhttp.Header),
	}
}

// newTestClient wires an AgentClient to a MockHttpClient
func newTestClient(mock *MockHttpClient) *AgentClient {
	client, err := NewClient("http://localhost:8001", WithHTTPClient(mock))
	if err != nil {
		panic(err)
	}
	return client
}
