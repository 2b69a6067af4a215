package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitLab_ListReleases_ParsesAssetLinksAndSendsToken(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		assert.Equal(t, "/api/v4/projects/seaofvoices%2Fdarklua/releases", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"tag_name": "v0.8.0", "assets": {"links": [
				{"name": "darklua-linux-x86_64", "url": "https://example.com/darklua"}
			]}}
		]`))
	}))
	defer server.Close()

	gl := NewGitLab(server.URL, "sekret")
	releases, err := gl.ListReleases(context.Background(), "seaofvoices/darklua")
	require.NoError(t, err)

	require.Len(t, releases, 1)
	assert.Equal(t, "v0.8.0", releases[0].Tag)
	require.Len(t, releases[0].Assets, 1)
	assert.Equal(t, "darklua-linux-x86_64", releases[0].Assets[0].Name)
	assert.Equal(t, "sekret", gotToken)
}

func TestGitLab_ListReleases_4xxIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gl := NewGitLab(server.URL, "")
	_, err := gl.ListReleases(context.Background(), "group/project")
	require.Error(t, err)
}
