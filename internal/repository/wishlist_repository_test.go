package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invitame/wedding-invitation-service/internal/model"
)

func wishMockDB(t *testing.T) (*WishListRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWishListRepo(db), mock
}

// wishRows builds a result set of unpriced items owned by user 7.
func wishRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "price", "icon",
		"paid", "payment_status", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, 7, fmt.Sprintf("item %d", id), nil, "gift",
			false, "", time.Now(), time.Now())
	}
	return rows
}

func TestWishListSaveAllUnchangedResubmitReusesRows(t *testing.T) {
	repo, mock := wishMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM wish_list_items WHERE user_id = \? ORDER BY id`).
		WithArgs(uint64(7)).WillReturnRows(wishRows(1, 2))
	mock.ExpectExec(`UPDATE wish_list_items SET name = \?, price = \?, icon = \?`).
		WithArgs("item 1", nil, "gift", uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE wish_list_items SET name = \?, price = \?, icon = \?`).
		WithArgs("item 2", nil, "gift", uint64(2), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// saving the same two items again updates in place; an unexpected
	// INSERT or DELETE would fail the mock
	items := []model.WishListItem{
		{ID: 1, Name: "item 1", Icon: "gift"},
		{ID: 2, Name: "item 2", Icon: "gift"},
	}
	require.NoError(t, repo.SaveAll(context.Background(), 7, items))
	assert.Equal(t, uint64(1), items[0].ID)
	assert.Equal(t, uint64(2), items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishListSaveAllInsertsNewAndDeletesDropped(t *testing.T) {
	repo, mock := wishMockDB(t)
	price := decimal.NewFromInt(1200)
	mock.ExpectQuery(`FROM wish_list_items WHERE user_id = \? ORDER BY id`).
		WithArgs(uint64(7)).WillReturnRows(wishRows(1, 2))
	mock.ExpectExec(`UPDATE wish_list_items SET name = \?, price = \?, icon = \?`).
		WithArgs("item 1", nil, "gift", uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wish_list_items \(user_id, name, price, icon, paid, payment_status\)`).
		WithArgs(uint64(7), "cafetera", price, "coffee").
		WillReturnResult(sqlmock.NewResult(3, 1))
	// only the row dropped from the submission goes; the freshly
	// inserted id 3 must never reach the delete phase
	mock.ExpectExec(`DELETE FROM wish_list_items WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(2), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	items := []model.WishListItem{
		{ID: 1, Name: "item 1", Icon: "gift"},
		{Name: "cafetera", Price: &price, Icon: "coffee"},
	}
	require.NoError(t, repo.SaveAll(context.Background(), 7, items))
	assert.Equal(t, uint64(3), items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishListSaveAllReinsertsStaleID(t *testing.T) {
	repo, mock := wishMockDB(t)
	mock.ExpectQuery(`FROM wish_list_items WHERE user_id = \? ORDER BY id`).
		WithArgs(uint64(7)).WillReturnRows(wishRows(1))
	// id 99 matches no persisted row (deleted from another tab), so the
	// item comes back as an insert instead of a lost update
	mock.ExpectExec(`INSERT INTO wish_list_items \(user_id, name, price, icon, paid, payment_status\)`).
		WithArgs(uint64(7), "vajilla", nil, "plate").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(`DELETE FROM wish_list_items WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	items := []model.WishListItem{{ID: 99, Name: "vajilla", Icon: "plate"}}
	require.NoError(t, repo.SaveAll(context.Background(), 7, items))
	assert.Equal(t, uint64(9), items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
