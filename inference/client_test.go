package inference

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, wantPath string, wantBody map[string]string, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, wantPath, r.URL.Path)

		if wantBody != nil {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, wantBody, body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Joke(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t, "/joke", nil, `{"joke":"a funny one"}`)

	client := NewClient(server.URL, slog.Default())
	joke, err := client.Joke(context.Background())
	req.NoError(err)
	req.Equal("a funny one", joke)
}

func TestClient_ToneReply(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t, "/tone-aware-reply",
		map[string]string{"context": "hello\nworld"},
		`{"reply":"hi there"}`)

	client := NewClient(server.URL, slog.Default())
	reply, err := client.ToneReply(context.Background(), "hello\nworld")
	req.NoError(err)
	req.Equal("hi there", reply)
}

func TestClient_AnalyzeMood(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t, "/analyze-mood",
		map[string]string{"text": "haha lol"},
		`{"mood":"funny","roman_urdu_phrase":"sab maze mein hain"}`)

	client := NewClient(server.URL, slog.Default())
	mood, err := client.AnalyzeMood(context.Background(), "haha lol")
	req.NoError(err)
	req.Equal("funny", mood.Mood)
	req.Equal("sab maze mein hain", mood.Phrase)
}

func TestClient_Quote(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t, "/quote",
		map[string]string{"type": "motivational"},
		`{"quote":"keep going"}`)

	client := NewClient(server.URL, slog.Default())
	quote, err := client.Quote(context.Background(), "motivational")
	req.NoError(err)
	req.Equal("keep going", quote)
}

func TestClient_ErrorStatus(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, slog.Default())
	_, err := client.Fact(context.Background())
	req.Error(err)
	req.Contains(err.Error(), "status 500")
}

func TestClient_Unreachable(t *testing.T) {
	req := require.New(t)
	client := NewClient("http://127.0.0.1:1", slog.Default())
	_, err := client.Roast(context.Background())
	req.Error(err)
}
