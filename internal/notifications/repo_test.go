package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/models"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

func TestRepositoryListMarkReadFlow(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, conn, enums.UserRoleSales)
	other := dbtest.SeedUser(t, conn, enums.UserRoleSales)

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID:    owner.ID,
			Type:      enums.NotificationTypeSystem,
			Title:     "hello",
			Message:   "world",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: other.ID, Type: enums.NotificationTypeSystem, Title: "x", Message: "y"}))

	page, next, err := repo.List(ctx, listNotificationsParams{UserID: owner.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	require.NotNil(t, next)

	rest, last, err := repo.List(ctx, listNotificationsParams{UserID: owner.ID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)
	assert.Nil(t, last)

	mark, err := repo.MarkRead(ctx, owner.ID, ids[0], time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found && mark.Updated)

	mark, err = repo.MarkRead(ctx, other.ID, ids[1], time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, mark.Found, "other users cannot read someone else's notification")

	unread, err := repo.CountUnread(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	updated, err := repo.MarkAllRead(ctx, owner.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	unreadOnly, _, err := repo.List(ctx, listNotificationsParams{UserID: owner.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unreadOnly)
}

func TestWriterCreatesRowsInTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	writer, err := NewWriter(repo, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, enums.UserRoleSales)

	err = db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		if err := writer.QuoteDecided(ctx, tx, QuoteDecision{
			QuoteID:      uuid.New(),
			Number:       "Q-000001",
			CustomerName: "Acme",
			RecipientID:  owner.ID,
			Status:       enums.QuoteStatusAccepted,
		}); err != nil {
			return err
		}
		return writer.OrderStatusChanged(ctx, tx, OrderStatusChange{
			OrderID:     uuid.New(),
			Number:      "O-000001",
			RecipientID: owner.ID,
			Status:      enums.OrderStatusConfirmed,
		})
	})
	require.NoError(t, err)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: owner.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	types := map[enums.NotificationType]string{}
	for _, row := range rows {
		types[row.Type] = row.Title
	}
	assert.Equal(t, "Quote Q-000001 accepted", types[enums.NotificationTypeQuoteAccepted])
	assert.Equal(t, "Order O-000001 confirmed", types[enums.NotificationTypeOrderStatus])

	assert.Error(t, writer.QuoteDecided(ctx, nil, QuoteDecision{Status: enums.QuoteStatusRejected}))
}
