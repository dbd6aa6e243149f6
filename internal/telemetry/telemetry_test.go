package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{ServiceName: "hospitalops", Version: "test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNoopInstrumentsAreUsable(t *testing.T) {
	counter, err := Meter("hospitalops/test").Int64Counter("test.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	_, span := Tracer("hospitalops/test").Start(context.Background(), "op")
	span.End()
}
