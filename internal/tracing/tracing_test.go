package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())

	_, span := p.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderFileExporter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "traces", "spans.jsonl")

	p, err := NewProvider(ctx, Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(ctx, "project.Create")
	span.End()
	require.NoError(t, p.Shutdown(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "project.Create")
}

func TestNewProviderErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)

	_, err = NewProvider(ctx, Config{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter")
}

func TestNewProviderNoExporter(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "x")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}
