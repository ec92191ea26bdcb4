package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	owner := uuid.New()
	color := "#3b82f6"

	p, err := NewProject(owner, " Sample Project ", nil, &color)
	require.NoError(t, err)
	assert.Equal(t, "Sample Project", p.Name)
	assert.Equal(t, owner, p.OwnerID)
	assert.False(t, p.IsDeleted())

	_, err = NewProject(owner, "", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyProjectName)

	_, err = NewProject(uuid.Nil, "x", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyProjectOwnerID)

	bad := "blue"
	_, err = NewProject(owner, "x", nil, &bad)
	assert.ErrorIs(t, err, ErrInvalidProjectColor)
}
