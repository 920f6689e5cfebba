package models

// SubjectCategory represents the curriculum category of a subject
type SubjectCategory string

const (
	SubjectCategoryCore      SubjectCategory = "core"
	SubjectCategorySpecials  SubjectCategory = "specials"
	SubjectCategoryElectives SubjectCategory = "electives"
	SubjectCategoryOptional  SubjectCategory = "optional"
)

// ValidSubjectCategories lists the accepted subject categories
var ValidSubjectCategories = map[SubjectCategory]bool{
	SubjectCategoryCore:      true,
	SubjectCategorySpecials:  true,
	SubjectCategoryElectives: true,
	SubjectCategoryOptional:  true,
}

// Subject represents a school subject for a grade level
type Subject struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    SubjectCategory `json:"category"`
	GradeLevel  int             `json:"gradeLevel"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"isActive"`
}

// CreateSubjectRequest represents a request to create a subject
type CreateSubjectRequest struct {
	Name        string          `json:"name"`
	Category    SubjectCategory `json:"category"`
	GradeLevel  int             `json:"gradeLevel"`
	Description string          `json:"description,omitempty"`
}

// UpdateSubjectRequest represents a request to update a subject (partial update)
type UpdateSubjectRequest struct {
	Name        string          `json:"name,omitempty"`
	Category    SubjectCategory `json:"category,omitempty"`
	GradeLevel  *int            `json:"gradeLevel,omitempty"`
	Description string          `json:"description,omitempty"`
	IsActive    *bool           `json:"isActive,omitempty"`
}
