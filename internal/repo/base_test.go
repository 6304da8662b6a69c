package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID     uint64 `gorm:"primaryKey"`
	Name   string
	PartID *uint64
	Part   *part
}

type part struct {
	ID    uint64 `gorm:"primaryKey"`
	Label string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&part{}, &widget{}))
	return conn
}

type ctxKey struct{}

func TestDBCarriesContext(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	assert.Equal(t, ctx, base.DB(ctx).Statement.Context)
	assert.Same(t, conn, base.DB(nil))
}

func TestBindKeepsReceiver(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	assert.Same(t, conn, base.Bind(nil).conn)

	tx := conn.Session(&gorm.Session{NewDB: true})
	bound := base.Bind(tx)
	assert.Same(t, tx, bound.conn)
	assert.Same(t, conn, base.conn)
}

func TestByIDPreloads(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)
	ctx := context.Background()

	p := part{Label: "bolt"}
	require.NoError(t, conn.Create(&p).Error)
	w := widget{Name: "frame", PartID: &p.ID}
	require.NoError(t, conn.Create(&w).Error)

	var got widget
	require.NoError(t, base.ByID(ctx, &got, w.ID, "Part"))
	assert.Equal(t, "frame", got.Name)
	require.NotNil(t, got.Part)
	assert.Equal(t, "bolt", got.Part.Label)

	var missing widget
	err := base.ByID(ctx, &missing, w.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
