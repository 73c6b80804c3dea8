package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fill_the_blank"),
		postgres.WithUsername("ftb"),
		postgres.WithPassword("ftb"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := Open(dsn, Pool{MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return conn
}

func TestLoadCardsIntegration(t *testing.T) {
	conn := openTestDB(t)

	path := filepath.Join(t.TempDir(), "cards.csv")
	csv := "kind,text,pick,deck\nprompt,Why am I sticky? ____,,base\nresponse,A bag of wet sand.,,base\nresponse,Glitter.,,party\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	inserted, err := LoadCards(conn, path)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = LoadCards(conn, path)
	require.NoError(t, err)
	assert.Zero(t, inserted, "loading the same file twice adds nothing")

	require.NoError(t, conn.Model(&Card{}).Where("text = ?", "Glitter.").Update("status", "pending").Error)
	base, err := ApprovedCards(conn, "base")
	require.NoError(t, err)
	assert.Len(t, base, 2)
	all, err := ApprovedCards(conn, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEventVersionIsUnique(t *testing.T) {
	conn := openTestDB(t)

	event := Event{RoomID: "r1", Version: 1, Type: "player_joined", Payload: datatypes.JSON(`{}`)}
	require.NoError(t, conn.Create(&event).Error)
	dup := Event{RoomID: "r1", Version: 1, Type: "player_joined", Payload: datatypes.JSON(`{}`)}
	err := conn.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	other := Event{RoomID: "r2", Version: 1, Type: "player_joined", Payload: datatypes.JSON(`{}`)}
	assert.NoError(t, conn.Create(&other).Error)
}
