package context_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	mctx "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/storage"
	kvc "github.com/yeisme/moments/pkg/internal/storage/kv"
)

func TestManagerGetters(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, mctx.GetManager(ctx))
	assert.Nil(t, mctx.GetKVClient(ctx))
	assert.Nil(t, mctx.GetDBClient(ctx))
	assert.Nil(t, mctx.GetMQClient(ctx))
	assert.Nil(t, mctx.GetBlobClient(ctx))

	store, err := kvc.NewMemoryKV(ctx, nil)
	assert.NoError(t, err)

	mgr := &storage.Manager{KV: &kvc.Client{KVStore: store, Type: kvc.KVTypeMemory}}
	ctx = mctx.WithStorageManager(ctx, mgr)

	assert.Same(t, mgr, mctx.GetManager(ctx))
	assert.Same(t, mgr.KV, mctx.GetKVClient(ctx))
	assert.Nil(t, mctx.GetDBClient(ctx))
}

func TestWithTraceContext(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	mctx.WithTraceContext(context.Background(), logger).Info().Msg("plain")
	assert.NotContains(t, buf.String(), "trace_id")

	buf.Reset()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	mctx.WithTraceContext(ctx, logger).Info().Msg("traced")
	assert.Contains(t, buf.String(), `"trace_id":"01020300000000000000000000000000"`)
	assert.Contains(t, buf.String(), `"span_id":"0405060000000000"`)
}
