package models

import "time"

// CodeAll is the wildcard sentinel matching every module or edition.
const CodeAll = "ALL"

// KnownModules lists the module codes of the programme: nine taught
// modules followed by the two project modules.
var KnownModules = []string{"M1", "M2", "M3", "M4", "M5", "M6", "M7", "M8", "M9", "P1", "P2"}

// KnownEditions lists the edition codes currently offered.
var KnownEditions = []string{"Ed1", "Ed2"}

// StudentResponse is one student's evaluation of one module in one
// edition. The natural key is (email, module, edition): a student
// answers at most once per module per edition.
type StudentResponse struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Module    string    `db:"module" json:"module"`
	Edition   string    `db:"edition" json:"edition"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// Course evaluation items (1-7, 0 means no valid answer).
	ObjectiveClarity      int `db:"objective_clarity" json:"objective_clarity"`
	ModuleArticulation    int `db:"module_articulation" json:"module_articulation"`
	PlatformUse           int `db:"platform_use" json:"platform_use"`
	KnowledgeContribution int `db:"knowledge_contribution" json:"knowledge_contribution"`
	OverallCourseRating   int `db:"overall_course_rating" json:"overall_course_rating"`

	// Teaching evaluation items.
	LessonStructure       int `db:"lesson_structure" json:"lesson_structure"`
	ContentDelivery       int `db:"content_delivery" json:"content_delivery"`
	ContentMastery        int `db:"content_mastery" json:"content_mastery"`
	Punctuality           int `db:"punctuality" json:"punctuality"`
	SupportAvailability   int `db:"support_availability" json:"support_availability"`
	ParticipationStimulus int `db:"participation_stimulus" json:"participation_stimulus"`
	OverallTeacherRating  int `db:"overall_teacher_rating" json:"overall_teacher_rating"`

	// Organization evaluation items.
	ExecutiveSupport    int `db:"executive_support" json:"executive_support"`
	CourseOrganization  int `db:"course_organization" json:"course_organization"`
	FacilitiesEquipment int `db:"facilities_equipment" json:"facilities_equipment"`

	Comments *string `db:"comments" json:"comments,omitempty"`
	// CommentsDeleted is a permanent tombstone: once set, no sync may
	// write the comment field again.
	CommentsDeleted bool      `db:"comments_deleted" json:"comments_deleted"`
	LastSyncedAt    time.Time `db:"last_synced_at" json:"last_synced_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// CommentText returns the comment or "" when unset.
func (r *StudentResponse) CommentText() string {
	if r.Comments == nil {
		return ""
	}
	return *r.Comments
}
