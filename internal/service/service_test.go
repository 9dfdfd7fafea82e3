package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Emitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "layout:changed", map[string]string{"route": "home"})
	m.Emit(ctx, "routes:changed", nil)
	m.Emit(ctx, "layout:changed", nil)

	require.Len(t, m.Events, 3)
	assert.Len(t, m.Named("layout:changed"), 2)
	assert.Equal(t, "routes:changed", m.Events[1].Event)
}

func TestEmitters_Broadcast(t *testing.T) {
	a, b := &service.MockEmitter{}, &service.MockEmitter{}
	service.Emitters{a, service.NopEmitter{}, b}.Emit(context.Background(), "x", 1)

	assert.Len(t, a.Events, 1)
	assert.Len(t, b.Events, 1)
}
