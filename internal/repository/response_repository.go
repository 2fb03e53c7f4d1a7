package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evalboard/evalboard-api/internal/models"
)

const responseColumns = `id, email, module, edition, timestamp,
objective_clarity, module_articulation, platform_use, knowledge_contribution, overall_course_rating,
lesson_structure, content_delivery, content_mastery, punctuality, support_availability, participation_stimulus, overall_teacher_rating,
executive_support, course_organization, facilities_equipment,
comments, comments_deleted, last_synced_at, created_at`

// ResponseRepository handles persistence of student responses.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// FindByIdentity returns the response for the natural key
// (email, module, edition). sql.ErrNoRows is returned untouched when
// absent so callers can branch on it.
func (r *ResponseRepository) FindByIdentity(ctx context.Context, email, module, edition string) (*models.StudentResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_responses WHERE email = $1 AND module = $2 AND edition = $3 LIMIT 1`, responseColumns)
	var response models.StudentResponse
	if err := r.db.GetContext(ctx, &response, query, email, module, edition); err != nil {
		return nil, err
	}
	return &response, nil
}

// Insert persists a new response record.
func (r *ResponseRepository) Insert(ctx context.Context, response *models.StudentResponse) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_responses (id, email, module, edition, timestamp,
        objective_clarity, module_articulation, platform_use, knowledge_contribution, overall_course_rating,
        lesson_structure, content_delivery, content_mastery, punctuality, support_availability, participation_stimulus, overall_teacher_rating,
        executive_support, course_organization, facilities_equipment,
        comments, comments_deleted, last_synced_at, created_at)
        VALUES (:id, :email, :module, :edition, :timestamp,
        :objective_clarity, :module_articulation, :platform_use, :knowledge_contribution, :overall_course_rating,
        :lesson_structure, :content_delivery, :content_mastery, :punctuality, :support_availability, :participation_stimulus, :overall_teacher_rating,
        :executive_support, :course_organization, :facilities_equipment,
        :comments, :comments_deleted, :last_synced_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, response); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// Update overwrites the sync-owned fields of an existing record,
// matched by natural key. The comment column is only touched when
// includeComments is true: the caller decides based on the tombstone.
func (r *ResponseRepository) Update(ctx context.Context, response *models.StudentResponse, includeComments bool) error {
	const base = `UPDATE student_responses SET timestamp = :timestamp,
        objective_clarity = :objective_clarity, module_articulation = :module_articulation,
        platform_use = :platform_use, knowledge_contribution = :knowledge_contribution,
        overall_course_rating = :overall_course_rating, lesson_structure = :lesson_structure,
        content_delivery = :content_delivery, content_mastery = :content_mastery,
        punctuality = :punctuality, support_availability = :support_availability,
        participation_stimulus = :participation_stimulus, overall_teacher_rating = :overall_teacher_rating,
        executive_support = :executive_support, course_organization = :course_organization,
        facilities_equipment = :facilities_equipment, last_synced_at = :last_synced_at`
	query := base
	if includeComments {
		query += `, comments = :comments`
	}
	query += ` WHERE email = :email AND module = :module AND edition = :edition`
	if _, err := r.db.NamedExecContext(ctx, query, response); err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	return nil
}

// ListAll returns every response, newest submission first. Tombstoned
// records are included; the flag only affects comment rendering.
func (r *ResponseRepository) ListAll(ctx context.Context) ([]models.StudentResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_responses ORDER BY timestamp DESC`, responseColumns)
	var responses []models.StudentResponse
	if err := r.db.SelectContext(ctx, &responses, query); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// DistinctModules returns the module codes present in the data.
func (r *ResponseRepository) DistinctModules(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT module FROM student_responses WHERE module <> ''`
	var modules []string
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list distinct modules: %w", err)
	}
	return modules, nil
}

// DistinctEditions returns the edition codes present in the data.
func (r *ResponseRepository) DistinctEditions(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT edition FROM student_responses WHERE edition <> ''`
	var editions []string
	if err := r.db.SelectContext(ctx, &editions, query); err != nil {
		return nil, fmt.Errorf("list distinct editions: %w", err)
	}
	return editions, nil
}

// ListActiveCommentsByEmail returns the records for an email whose
// comment is present and not yet tombstoned.
func (r *ResponseRepository) ListActiveCommentsByEmail(ctx context.Context, email string) ([]models.StudentResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_responses
        WHERE email = $1 AND comments IS NOT NULL AND comments_deleted = FALSE`, responseColumns)
	var responses []models.StudentResponse
	if err := r.db.SelectContext(ctx, &responses, query, email); err != nil {
		return nil, fmt.Errorf("list comments for email: %w", err)
	}
	return responses, nil
}

// MarkCommentDeleted sets the permanent tombstone on a record.
func (r *ResponseRepository) MarkCommentDeleted(ctx context.Context, id string) error {
	const query = `UPDATE student_responses SET comments_deleted = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark comment deleted: %w", err)
	}
	return nil
}

// CombinationCount is one row of the coverage grid query.
type CombinationCount struct {
	Module  string `db:"module"`
	Edition string `db:"edition"`
	Count   int    `db:"count"`
}

// CountByCombination returns response counts grouped by module and
// edition, for the diagnostics grid.
func (r *ResponseRepository) CountByCombination(ctx context.Context) ([]CombinationCount, error) {
	const query = `SELECT module, edition, COUNT(*) AS count FROM student_responses GROUP BY module, edition`
	var counts []CombinationCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count responses by combination: %w", err)
	}
	return counts, nil
}
