package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tonebot/inference"
)

// SmokeSuite probes a running deployment. It is skipped unless the
// E2E_* environment variables point at live services.
type SmokeSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

func TestSmokeSuite(t *testing.T) {
	suite.Run(t, &SmokeSuite{})
}

func (s *SmokeSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	s.Config = cfg
	s.client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
}

func (s *SmokeSuite) TestOpsLiveness() {
	if s.Config.OpsURL == "" {
		s.T().Skip("E2E_OPS_URL not set")
	}

	resp, err := s.client.Get(s.Config.OpsURL + "/")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal("WhatsApp Bot is running!", string(body))
}

func (s *SmokeSuite) TestOpsStatus() {
	if s.Config.OpsURL == "" {
		s.T().Skip("E2E_OPS_URL not set")
	}

	resp, err := s.client.Get(s.Config.OpsURL + "/status")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var payload map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	s.Require().Contains(payload, "connection")
	s.Require().Contains(payload, "uptime_seconds")
}

func (s *SmokeSuite) TestInferenceCollaborator() {
	if s.Config.InferenceURL == "" {
		s.T().Skip("E2E_INFERENCE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.Config.TimeoutSeconds)*time.Second)
	defer cancel()

	client := inference.NewClient(s.Config.InferenceURL, slog.Default())
	joke, err := client.Joke(ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(joke)
}
