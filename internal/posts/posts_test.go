package posts

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"wall/internal/models"
	"wall/internal/platform"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

type recordingPublisher struct {
	events []platform.ChangeEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev platform.ChangeEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func TestRepository_Create_Unauthenticated(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{}
	repo := NewRepository(db, pub)

	post, err := repo.Create(context.Background(), "", "hello", nil)

	assert.Nil(t, post)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_ERROR", appErr.Code)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{}
	repo := NewRepository(db, pub)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	post, err := repo.Create(context.Background(), "3f1c0e5a-0000-0000-0000-000000000001", "hello wall", nil)

	require.NoError(t, err)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, "hello wall", post.Content)
	assert.False(t, post.CreatedAt.IsZero())

	require.Len(t, pub.events, 1)
	assert.Equal(t, platform.ChangeEvent{Table: "posts", Type: platform.ChangeInsert, RowID: 42}, pub.events[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_PublishFailureIsBestEffort(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{err: errors.New("redis down")}
	repo := NewRepository(db, pub)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	post, err := repo.Create(context.Background(), "3f1c0e5a-0000-0000-0000-000000000001", "still works", nil)

	require.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db, nil)

	authorID := "3f1c0e5a-0000-0000-0000-000000000001"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(DefaultLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content"}).
			AddRow(2, authorID, "newer").
			AddRow(1, authorID, "older"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name"}).
			AddRow(authorID, "alice", "Alice Example"))

	page, err := repo.List(context.Background(), 0, 0)

	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "newer", page[0].Content)
	assert.Equal(t, "older", page[1].Content)
	assert.Equal(t, "alice", page[0].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_CapsLimit(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" ORDER BY created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(100, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content"}))

	page, err := repo.List(context.Background(), 500, 10)

	require.NoError(t, err)
	assert.Empty(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{}
	repo := NewRepository(db, pub)

	authorID := "3f1c0e5a-0000-0000-0000-000000000001"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "content"}).
			AddRow(7, authorID, "edited"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(authorID, "alice"))

	post, err := repo.Update(context.Background(), 7, "edited")

	require.NoError(t, err)
	assert.Equal(t, "edited", post.Content)
	require.Len(t, pub.events, 1)
	assert.Equal(t, platform.ChangeUpdate, pub.events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{}
	repo := NewRepository(db, pub)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	post, err := repo.Update(context.Background(), 99, "edited")

	assert.Nil(t, post)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &recordingPublisher{}
	repo := NewRepository(db, pub)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, platform.ChangeEvent{Table: "posts", Type: platform.ChangeDelete, RowID: 7}, pub.events[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
