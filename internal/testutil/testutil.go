// Package testutil contains common utility functions for unit tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// FakeClient returns an HTTP client that replies to all requests to the given
// address with the provided body text.
func FakeClient(url string, body []byte) *http.Client {
	return FakeSite(map[string][]byte{url: body}, nil)
}

// FakeSite returns an HTTP client serving the documents in pages, keyed
// by URL, and replying 404 to everything else. If hits is not nil, it
// is incremented on every request.
func FakeSite(pages map[string][]byte, hits *int64) *http.Client {
	return &http.Client{
		Transport: mockRoundTrip{pages: pages, hits: hits},
	}
}

type mockRoundTrip struct {
	pages map[string][]byte
	hits  *int64
}

func (r mockRoundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	var rsp http.Response
	rsp.Header = make(http.Header)
	rsp.Request = req
	if r.hits != nil {
		atomic.AddInt64(r.hits, 1)
	}

	if body, ok := r.pages[req.URL.String()]; ok {
		rsp.StatusCode = 200
		rsp.Body = io.NopCloser(bytes.NewReader(body))
	} else {
		rsp.StatusCode = 404
		rsp.Body = io.NopCloser(strings.NewReader("404 not found"))
	}
	return &rsp, nil
}
