package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitebuilder/internal/domain"
)

// Runs against a live server when SITEBUILDER_TEST_MONGO_URI is set.
func TestMongoRouteStore(t *testing.T) {
	uri := os.Getenv("SITEBUILDER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SITEBUILDER_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, MongoConfig{
		URI:        uri,
		Database:   "sitebuilder_test",
		Collection: fmt.Sprintf("jsons_%d", time.Now().UnixNano()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.coll.Drop(context.Background())
		s.Close()
	})

	_, err = s.CreateRoute(ctx, "shop", "about")
	require.NoError(t, err)
	_, err = s.CreateRoute(ctx, "shop", "about")
	assert.ErrorIs(t, err, domain.ErrRouteExists)

	l := domain.EmptyLayout()
	l.Sections.Children.Sections = []domain.Section{{Type: "Banner-1", Blocks: map[string]any{"heading": "hi"}}}
	l.Sections.Children.Order = []string{"Banner-1"}
	require.NoError(t, s.SaveLayout(ctx, "shop", "about", domain.ModeSmall, l))
	require.NoError(t, s.SaveLayout(ctx, "shop", "home", domain.ModeLarge, l))

	doc, err := s.GetRoute(ctx, "shop", "about")
	require.NoError(t, err)
	assert.Equal(t, []string{"Banner-1"}, doc.SmContent.Sections.Children.Order)
	assert.Equal(t, "about", doc.LgContent.Sections.Children.Type)

	routes, err := s.ListRoutes(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "home"}, routes)

	require.NoError(t, s.DeleteRoute(ctx, "shop", "about"))
	assert.ErrorIs(t, s.DeleteRoute(ctx, "shop", "about"), domain.ErrNotFound)
}
