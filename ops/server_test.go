package ops

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tonebot/contract"
	"tonebot/domain"
)

type staticArchive struct {
	count    int
	countErr error
}

func (a *staticArchive) Store(domain.ChatID, domain.HistoryEntry) error { return nil }
func (a *staticArchive) Recent(domain.ChatID, int) ([]domain.HistoryEntry, error) {
	return nil, nil
}
func (a *staticArchive) Search(context.Context, string, int) ([]contract.ArchivedHit, error) {
	return nil, nil
}
func (a *staticArchive) Count() (int, error) { return a.count, a.countErr }

func TestServer_Root(t *testing.T) {
	req := require.New(t)
	s := NewServer(slog.Default(), 0, func() contract.ConnectionState { return contract.ConnectionOpen }, nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Equal("WhatsApp Bot is running!", string(body))
}

func TestServer_Status(t *testing.T) {
	req := require.New(t)
	archive := &staticArchive{count: 42}
	s := NewServer(slog.Default(), 0, func() contract.ConnectionState { return contract.ConnectionOpen }, archive)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var payload map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&payload))
	req.Equal("open", payload["connection"])
	req.EqualValues(42, payload["archived_messages"])
	req.Contains(payload, "uptime_seconds")
	req.Contains(payload, "pid")
}

func TestServer_StatusWithoutArchive(t *testing.T) {
	req := require.New(t)
	s := NewServer(slog.Default(), 0, func() contract.ConnectionState { return contract.ConnectionClosed }, nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	req.NoError(err)
	defer resp.Body.Close()

	var payload map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&payload))
	req.Equal("closed", payload["connection"])
	req.NotContains(payload, "archived_messages")
}
