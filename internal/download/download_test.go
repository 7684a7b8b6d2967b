// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakePDFContent = "%PDF-1.4 fake"

func TestDownload_SavesByIndex(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, fakePDFContent)
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "pdfs")
	d := New(ts.Client(), dir)

	path, err := d.Download(context.Background(), ts.URL+"/paper.pdf", 17)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "17.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fakePDFContent, string(data))
	assert.NotEqual(t, "Innocent Browser", gotUA)
}

func TestDownload_HTTPErrorLeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	dir := t.TempDir()
	_, err := New(ts.Client(), dir).Download(context.Background(), ts.URL, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := New(nil, t.TempDir()).Download(context.Background(), url, 1)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "42.pdf"), New(nil, "out").Path(42))
}
