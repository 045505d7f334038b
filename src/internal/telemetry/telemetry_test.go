package telemetry

import (
	"context"
	"testing"

	"mentoring-svc/src/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(&config.Configuration{App: config.Application{Name: "test"}})
	assert.NoError(t, shutdown(context.Background()))
}
