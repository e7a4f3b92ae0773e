package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductSearchNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var q ProductSearch
		require.NoError(t, q.Normalize())
		assert.Equal(t, SortNewest, q.SortBy)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, DefaultPageSize, q.PageSize)
	})

	t.Run("bad sort", func(t *testing.T) {
		q := ProductSearch{SortBy: "cheapest"}
		require.ErrorIs(t, q.Normalize(), ErrInvalidInput)
	})

	t.Run("bad page", func(t *testing.T) {
		q := ProductSearch{Page: -1}
		require.ErrorIs(t, q.Normalize(), ErrInvalidInput)
	})

	t.Run("page size over cap", func(t *testing.T) {
		q := ProductSearch{PageSize: MaxPageSize + 1}
		require.ErrorIs(t, q.Normalize(), ErrInvalidInput)
	})

	t.Run("negative price bounds", func(t *testing.T) {
		bad := int64(-1)
		q := ProductSearch{MinPrice: &bad}
		require.ErrorIs(t, q.Normalize(), ErrInvalidInput)
	})
}
