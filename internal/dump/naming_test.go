package dump

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyTableSchema(t *testing.T) {
	c := classify("shop.orders-schema.sql")
	require.Equal(t, kindTableSchema, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "orders", c.table)
}

func TestClassifyTableSchemaGzip(t *testing.T) {
	c := classify("shop.orders-schema.sql.gz")
	require.Equal(t, kindTableSchema, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "orders", c.table)
}

func TestClassifyDatabaseSchema(t *testing.T) {
	c := classify("shop-schema-create.sql")
	require.Equal(t, kindDatabaseSchema, c.kind)
	require.Equal(t, "shop", c.database)
}

func TestClassifySchemaPost(t *testing.T) {
	c := classify("shop-schema-post.sql")
	require.Equal(t, kindSchemaPost, c.kind)
	require.Equal(t, "shop", c.database)
}

func TestClassifySchemaView(t *testing.T) {
	c := classify("shop.order_totals-schema-view.sql")
	require.Equal(t, kindSchemaView, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "order_totals", c.table)
}

func TestClassifySchemaTriggers(t *testing.T) {
	c := classify("shop.orders-schema-triggers.sql")
	require.Equal(t, kindSchemaTriggers, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "orders", c.table)
}

func TestClassifyMetadata(t *testing.T) {
	c := classify("shop.orders.metadata")
	require.Equal(t, kindMetadata, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "orders", c.table)
}

func TestClassifyDataChunk(t *testing.T) {
	c := classify("shop.orders.00001.sql")
	require.Equal(t, kindData, c.kind)
	require.Equal(t, "shop", c.database)
	require.Equal(t, "orders", c.table)
	require.Equal(t, uint64(1), c.part)
}

func TestClassifyDataChunkGzip(t *testing.T) {
	c := classify("shop.orders.2.sql.gz")
	require.Equal(t, kindData, c.kind)
	require.Equal(t, uint64(2), c.part)
}

func TestClassifySentinel(t *testing.T) {
	c := classify("metadata")
	require.Equal(t, kindSentinel, c.kind)
}

func TestClassifyUnknown(t *testing.T) {
	c := classify("README.txt")
	require.Equal(t, kindUnknown, c.kind)
}
