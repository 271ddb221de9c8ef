package xsetting

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	raw []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	p, ok := dest[0].(*[]byte)
	if !ok {
		return errors.New("unexpected scan target")
	}
	*p = r.raw
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	execErr  error
	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), q.execErr
}

func TestNewPostgresStore_NilQuerier(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.ErrorIs(t, err, ErrNilQuerier)
}

func TestPostgresStore_Get(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{raw: []byte(`"!"`)}}
	s, err := NewPostgresStore(q)
	require.NoError(t, err)

	raw, err := s.Get(context.Background(), 42, KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, `"!"`, string(raw))
	assert.Equal(t, selectSettingSQL, q.lastSQL)
	assert.Equal(t, []any{int64(42), "prefix"}, q.lastArgs)
}

func TestPostgresStore_GetNoRows(t *testing.T) {
	s, err := NewPostgresStore(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})
	require.NoError(t, err)

	_, err = s.Get(context.Background(), 42, KeyPrefix)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_GetError(t *testing.T) {
	boom := errors.New("conn reset")
	s, err := NewPostgresStore(&fakeQuerier{row: fakeRow{err: boom}})
	require.NoError(t, err)

	_, err = s.Get(context.Background(), 42, KeyPrefix)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Set(t *testing.T) {
	q := &fakeQuerier{}
	s, err := NewPostgresStore(q)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), 42, KeyPrefix, []byte(`"?"`)))
	assert.Equal(t, upsertSettingSQL, q.lastSQL)
	assert.Equal(t, []any{int64(42), "prefix", []byte(`"?"`)}, q.lastArgs)

	q.execErr = errors.New("constraint")
	assert.Error(t, s.Set(context.Background(), 42, KeyPrefix, []byte(`"?"`)))
}
