package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestStartSpan_WithoutSentry(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "AliasService.Generate", SpanAttributes{
		Handle:    "rivers/Ока.md",
		Mode:      "title",
		Operation: "generate",
	})
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	_, child := StartSpan(ctx, "openai.Complete", SpanAttributes{Model: "gpt-4o-mini"})

	assert.NotPanics(t, func() {
		child.SetData("strategy", "json")
		child.SetError(errors.New("boom"))
		child.End()
		span.End()
	})
}

func TestSpan_NilInner(t *testing.T) {
	var s Span
	assert.NotPanics(t, func() {
		s.End()
		s.SetData("k", "v")
		s.SetError(errors.New("x"))
	})
	assert.NotNil(t, s.Context())
}
