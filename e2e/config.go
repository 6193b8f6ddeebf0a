package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_OPS_URL points at a running agent's ops server, e.g. http://localhost:3000
	OpsURL string `envconfig:"E2E_OPS_URL"`
	// E2E_INFERENCE_URL points at the inference collaborator to probe directly
	InferenceURL string `envconfig:"E2E_INFERENCE_URL"`
	// E2E_TIMEOUT bounds each probe in seconds
	TimeoutSeconds int `envconfig:"E2E_TIMEOUT" default:"10"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
