package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTodo(title string) Todo {
	return Todo{
		Title:  title,
		Due:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status: StatusOpen,
	}
}

func TestMemoryInsertAssignsUniqueIDs(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	first, err := m.Insert(ctx, newTodo("write tests"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := m.Insert(ctx, newTodo("review code"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMemoryFindByID(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	created, err := m.Insert(ctx, newTodo("write tests"))
	require.NoError(t, err)

	found, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *found)

	_, err = m.FindByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindAllPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		_, err := m.Insert(ctx, newTodo(title))
		require.NoError(t, err)
	}

	todos, err := m.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, todos, len(titles))
	for i, title := range titles {
		assert.Equal(t, title, todos[i].Title)
	}
}

func TestMemoryUpdate(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	created, err := m.Insert(ctx, newTodo("write tests"))
	require.NoError(t, err)

	replacement := newTodo("write better tests")
	replacement.Status = StatusInProgress

	updated, err := m.Update(ctx, created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "update must not change the id")
	assert.Equal(t, "write better tests", updated.Title)
	assert.Equal(t, StatusInProgress, updated.Status)

	_, err = m.Update(ctx, "no-such-id", replacement)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	created, err := m.Insert(ctx, newTodo("write tests"))
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, created.ID))

	// Removal is final: the id stays gone.
	_, err = m.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, created.ID), ErrNotFound)

	todos, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestTodoValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		todo    Todo
		wantErr bool
	}{
		{name: "valid", todo: Todo{Title: "abc", Status: StatusOpen}},
		{name: "valid done", todo: Todo{Title: "longer title", Status: StatusDone}},
		{name: "title too short", todo: Todo{Title: "ab"}, wantErr: true},
		{name: "title only whitespace", todo: Todo{Title: "   a   "}, wantErr: true},
		{name: "empty title", todo: Todo{Title: ""}, wantErr: true},
		{name: "status below range", todo: Todo{Title: "abc", Status: -1}, wantErr: true},
		{name: "status above range", todo: Todo{Title: "abc", Status: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.todo.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTodoValidateTrimsTitle(t *testing.T) {
	t.Parallel()

	todo := Todo{Title: "  buy milk  "}
	require.NoError(t, todo.Validate())
	assert.Equal(t, "buy milk", todo.Title)
}
