package observability

import (
	"context"
	"os"
	"testing"

	"github.com/annel0/roadmap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMain(m *testing.M) {
	logging.GetLoggerManager().DisableFiles()
	os.Exit(m.Run())
}

func TestInstall_RecordsSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()

	shutdown, err := install(ctx, "roadmap-test", sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer func() { _ = shutdown(ctx) }()

	_, span := Tracer("test").Start(ctx, "scan")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "scan", ended[0].Name())
}
