package models

import "time"

// RatingMin and RatingMax bound the valid answer domain. Anything
// outside (including the 0 "no answer" sentinel) is excluded from
// statistics.
const (
	RatingMin = 1
	RatingMax = 7
)

// ItemStatistics summarises one rating item over a filtered
// population. Distribution always carries the buckets "1".."7", zero
// when unobserved.
type ItemStatistics struct {
	N            int            `json:"n"`
	Mean         float64        `json:"mean"`
	StdDev       float64        `json:"std_dev"`
	Distribution map[string]int `json:"distribution"`
}

// CourseStatistics groups the course evaluation items.
type CourseStatistics struct {
	ObjectiveClarity      ItemStatistics `json:"objective_clarity"`
	ModuleArticulation    ItemStatistics `json:"module_articulation"`
	PlatformUse           ItemStatistics `json:"platform_use"`
	KnowledgeContribution ItemStatistics `json:"knowledge_contribution"`
	OverallCourseRating   ItemStatistics `json:"overall_course_rating"`
}

// TeachingStatistics groups the teaching evaluation items.
type TeachingStatistics struct {
	LessonStructure       ItemStatistics `json:"lesson_structure"`
	ContentDelivery       ItemStatistics `json:"content_delivery"`
	ContentMastery        ItemStatistics `json:"content_mastery"`
	Punctuality           ItemStatistics `json:"punctuality"`
	SupportAvailability   ItemStatistics `json:"support_availability"`
	ParticipationStimulus ItemStatistics `json:"participation_stimulus"`
	OverallTeacherRating  ItemStatistics `json:"overall_teacher_rating"`
}

// OrganizationStatistics groups the organization evaluation items.
type OrganizationStatistics struct {
	ExecutiveSupport    ItemStatistics `json:"executive_support"`
	CourseOrganization  ItemStatistics `json:"course_organization"`
	FacilitiesEquipment ItemStatistics `json:"facilities_equipment"`
}

// ReportComment carries enough metadata for a later deletion request
// to re-identify the underlying response.
type ReportComment struct {
	Text      string    `json:"text"`
	Email     string    `json:"email"`
	Module    string    `json:"module"`
	Edition   string    `json:"edition"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportData is the full aggregate for one (module, edition) filter,
// recomputed on every request.
type ReportData struct {
	Module         string                 `json:"module"`
	Edition        string                 `json:"edition"`
	TotalStudents  int                    `json:"total_students"`
	TotalResponses int                    `json:"total_responses"`
	ResponseRate   int                    `json:"response_rate"`
	Course         CourseStatistics       `json:"course"`
	Teaching       TeachingStatistics     `json:"teaching"`
	Organization   OrganizationStatistics `json:"organization"`
	Comments       []ReportComment        `json:"comments"`
}
