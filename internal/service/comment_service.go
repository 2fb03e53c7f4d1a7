package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
)

// CommentResponseRepository describes the persistence required by CommentService.
type CommentResponseRepository interface {
	ListActiveCommentsByEmail(ctx context.Context, email string) ([]models.StudentResponse, error)
	MarkCommentDeleted(ctx context.Context, id string) error
}

// CommentService curates free-text comments. Deletion is a permanent
// tombstone: the record survives, the comment never reappears, not
// even after a re-sync.
type CommentService struct {
	repo   CommentResponseRepository
	audit  AuditWriter
	cache  *CacheService
	logger *zap.Logger
}

// NewCommentService constructs a comment service.
func NewCommentService(repo CommentResponseRepository, audit AuditWriter, cache *CacheService, logger *zap.Logger) *CommentService {
	return &CommentService{repo: repo, audit: audit, cache: cache, logger: logger}
}

// Delete tombstones every active comment of the given author whose
// text matches after trimming. Returns the number of tombstoned
// records; zero matches is a not-found condition.
func (s *CommentService) Delete(ctx context.Context, userID, email, commentText string) (int, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	normalizedText := strings.TrimSpace(commentText)
	if normalizedEmail == "" || normalizedText == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "email and comment text are required")
	}

	records, err := s.repo.ListActiveCommentsByEmail(ctx, normalizedEmail)
	if err != nil {
		return 0, fmt.Errorf("list comments: %w", err)
	}

	deleted := 0
	for _, record := range records {
		if record.Comments == nil || strings.TrimSpace(*record.Comments) != normalizedText {
			continue
		}
		if err := s.repo.MarkCommentDeleted(ctx, record.ID); err != nil {
			return deleted, fmt.Errorf("mark comment deleted: %w", err)
		}
		s.recordAudit(ctx, userID, record)
		deleted++
	}

	if deleted == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}

	s.logger.Info("comments tombstoned",
		zap.String("email", normalizedEmail),
		zap.Int("count", deleted))
	s.invalidateReports(ctx)
	return deleted, nil
}

func (s *CommentService) recordAudit(ctx context.Context, userID string, record models.StudentResponse) {
	if s.audit == nil {
		return
	}
	oldValue := record.CommentText()
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionCommentDelete,
		Resource:   "student_responses",
		ResourceID: &record.ID,
		OldValues:  []byte(fmt.Sprintf("%q", oldValue)),
		NewValues:  []byte(`"[DELETED]"`),
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("record comment audit log", zap.Error(err))
	}
}

func (s *CommentService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("invalidate report cache after comment deletion", zap.Error(err))
	}
}
