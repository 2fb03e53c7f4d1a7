package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
)

type stubCommentRepo struct {
	byEmail map[string][]models.StudentResponse
	deleted []string
}

func (r *stubCommentRepo) ListActiveCommentsByEmail(_ context.Context, email string) ([]models.StudentResponse, error) {
	return r.byEmail[email], nil
}

func (r *stubCommentRepo) MarkCommentDeleted(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type stubAuditWriter struct {
	logs []*models.AuditLog
}

func (w *stubAuditWriter) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	w.logs = append(w.logs, log)
	return nil
}

func TestDeleteCommentTombstonesAllMatches(t *testing.T) {
	repo := &stubCommentRepo{byEmail: map[string][]models.StudentResponse{
		"a@example.com": {
			{ID: "resp-1", Email: "a@example.com", Comments: strPtr("too fast ")},
			{ID: "resp-2", Email: "a@example.com", Comments: strPtr("too fast")},
			{ID: "resp-3", Email: "a@example.com", Comments: strPtr("different")},
		},
	}}
	audit := &stubAuditWriter{}
	svc := NewCommentService(repo, audit, nil, zap.NewNop())

	deleted, err := svc.Delete(context.Background(), "user-1", " A@Example.COM ", " too fast ")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{"resp-1", "resp-2"}, repo.deleted)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, models.AuditActionCommentDelete, audit.logs[0].Action)
}

func TestDeleteCommentNotFound(t *testing.T) {
	repo := &stubCommentRepo{byEmail: map[string][]models.StudentResponse{}}
	svc := NewCommentService(repo, nil, nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), "user-1", "a@example.com", "missing")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestDeleteCommentValidatesInput(t *testing.T) {
	svc := NewCommentService(&stubCommentRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), "user-1", "", "text")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)

	_, err = svc.Delete(context.Background(), "user-1", "a@example.com", "   ")
	assert.Error(t, err)
}
