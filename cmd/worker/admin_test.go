package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
	storememory "github.com/imageflow/imagemeta/pkg/imagemeta/store/memory"
)

func newTestAdmin(t *testing.T) (*httptest.Server, *storememory.Store) {
	t.Helper()

	records := storememory.New()
	svc, err := imagemeta.New(imagemeta.WithRecordStore(records))
	require.NoError(t, err)

	server := httptest.NewServer(newAdminServer(svc).Routes())
	t.Cleanup(server.Close)
	return server, records
}

func TestHealthz(t *testing.T) {
	server, _ := newTestAdmin(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetRecord(t *testing.T) {
	server, records := newTestAdmin(t)
	require.NoError(t, records.Put(context.Background(), imagemeta.ImageRecord{
		ImageName: "sunset.png", FileSize: 2048, FileExtension: "png",
	}))

	resp, err := http.Get(server.URL + "/records/sunset.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var record imagemeta.ImageRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, "sunset.png", record.ImageName)
	assert.Equal(t, int64(2048), record.FileSize)
}

func TestGetRecordMissing(t *testing.T) {
	server, _ := newTestAdmin(t)

	resp, err := http.Get(server.URL + "/records/ghost.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
