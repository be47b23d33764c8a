package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invitame/wedding-invitation-service/internal/repository"
)

func tableMockHandler(t *testing.T) (*TableHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTableHandler(repository.NewTableRepo(db), repository.NewGuestRepo(db), nil), mock
}

func deleteTableCtx(t *testing.T, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/tables/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("user_id", uint64(7))
	return c, rec
}

func seatedGuestRows(tableID int64, ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "email", "phone",
		"rsvp_status", "dietary_restrictions", "has_plus_one", "plus_one_name",
		"plus_one_dietary_restrictions", "plus_one_rsvp_status", "table_id",
		"invitation_token", "created_at", "updated_at"})
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(id, 7, "Guest", "g@example.com", "", "confirmed", "",
			false, nil, nil, nil, tableID, "tok", now, now)
	}
	return rows
}

func TestTableDeleteUnseatsEveryGuest(t *testing.T) {
	h, mock := tableMockHandler(t)
	now := time.Now()
	mock.ExpectQuery(`FROM tables WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "capacity",
			"created_at", "updated_at"}).AddRow(5, 7, "Mesa Familia", 8, now, now))
	mock.ExpectQuery(`FROM guests WHERE table_id = \? ORDER BY name`).
		WithArgs(uint64(5)).WillReturnRows(seatedGuestRows(5, 11, 12, 13))
	// every seated guest loses the table before the row itself goes
	for _, gid := range []uint64{11, 12, 13} {
		mock.ExpectExec(`UPDATE guests SET table_id = \? WHERE id = \? AND user_id = \?`).
			WithArgs(nil, gid, uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`DELETE FROM tables WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := deleteTableCtx(t, "5")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableDeleteUnknownTableIs404(t *testing.T) {
	h, mock := tableMockHandler(t)
	mock.ExpectQuery(`FROM tables WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "capacity",
			"created_at", "updated_at"}))

	c, rec := deleteTableCtx(t, "5")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
