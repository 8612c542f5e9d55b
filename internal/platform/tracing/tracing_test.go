package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/platform/config"
)

func TestSetup(t *testing.T) {
	t.Run("disabled installs a noop provider", func(t *testing.T) {
		p, err := Setup(context.Background(), config.Tracing{})
		require.NoError(t, err)
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("enabled without exporter", func(t *testing.T) {
		p, err := Setup(context.Background(), config.Tracing{Enabled: true, Exporter: "none", ServiceName: "test"})
		require.NoError(t, err)
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("rejects unknown exporter", func(t *testing.T) {
		_, err := Setup(context.Background(), config.Tracing{Enabled: true, Exporter: "zipkin"})
		assert.Error(t, err)
	})
}
