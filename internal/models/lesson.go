package models

import "time"

// LessonType represents the instructional type of a lesson
type LessonType string

const (
	LessonTypeTeaching LessonType = "teaching"
	LessonTypePractice LessonType = "practice"
	LessonTypeQuiz     LessonType = "quiz"
	LessonTypeCustom   LessonType = "custom"
)

// ValidLessonTypes lists the accepted lesson types
var ValidLessonTypes = map[LessonType]bool{
	LessonTypeTeaching: true,
	LessonTypePractice: true,
	LessonTypeQuiz:     true,
	LessonTypeCustom:   true,
}

// Lesson represents a unit of educational content
type Lesson struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	SubjectID     int        `json:"subjectId"`
	GradeLevel    int        `json:"gradeLevel"`
	Level         int        `json:"level"` // difficulty 1-5
	LessonType    LessonType `json:"lessonType"`
	Content       string     `json:"content,omitempty"`
	FilePath      string     `json:"-"` // storage key, not exposed
	XPValue       int        `json:"xpValue"`
	EstimatedTime int        `json:"estimatedTime"` // minutes
	Tags          []string   `json:"tags,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// LessonListItem represents a lesson in list responses, with the caller's
// completion status joined in
type LessonListItem struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	SubjectID  int        `json:"subjectId"`
	GradeLevel int        `json:"gradeLevel"`
	Level      int        `json:"level"`
	LessonType LessonType `json:"lessonType"`
	XPValue    int        `json:"xpValue"`
	Status     string     `json:"status"` // progress status, not_started when no row
}

// UpdateLessonRequest represents a request to update a lesson (partial update)
type UpdateLessonRequest struct {
	Title         string     `json:"title,omitempty"`
	SubjectID     *int       `json:"subjectId,omitempty"`
	GradeLevel    *int       `json:"gradeLevel,omitempty"`
	Level         *int       `json:"level,omitempty"`
	LessonType    LessonType `json:"lessonType,omitempty"`
	Content       string     `json:"content,omitempty"`
	EstimatedTime *int       `json:"estimatedTime,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	IsActive      *bool      `json:"isActive,omitempty"`
}

// LessonFilter holds list filters for lessons
type LessonFilter struct {
	SubjectID  *int
	GradeLevel *int
	LessonType LessonType
}

// CalculateXPValue computes the XP a lesson is worth from its grade level
// and difficulty level.
func CalculateXPValue(gradeLevel, level int) int {
	const baseXP = 10
	return baseXP + gradeLevel*2 + level*3
}
