package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunInfo_Success(t *testing.T) {
	body := "<html><head><title>Acme</title></head><body><p>" +
		strings.Repeat("plenty of readable text ", 10) + "</p></body></html>"
	srv := serveHTML(t, body)

	infoURL = srv.URL
	infoUseBrowser = false

	require.NoError(t, runInfo(nil, nil))
}

func TestRunInfo_FetchErrorNamed(t *testing.T) {
	srv := serveHTML(t, "")
	srv.Close()

	infoURL = srv.URL
	infoUseBrowser = false

	err := runInfo(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch website info: ")
	assert.NotEqual(t, "failed to fetch website info: ", err.Error(), "error must name the cause")
}

func TestRunInfo_ShortTextReported(t *testing.T) {
	srv := serveHTML(t, "<html><head><title>Stub</title></head><body><p>hi</p></body></html>")

	infoURL = srv.URL
	infoUseBrowser = false

	err := runInfo(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too little readable text")
	assert.NotContains(t, err.Error(), "failed to fetch")
}
