package model

import "time"

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Custom field type tags, a reduced subset of the question types.
const (
	FieldText   = "text"
	FieldNumber = "number"
	FieldDate   = "date"
	FieldSelect = "select"
)

func ValidFieldType(t string) bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldSelect:
		return true
	}
	return false
}

type CustomField struct {
	ID        int      `json:"id,omitempty"`
	Name      string   `json:"name" validate:"required"`
	FieldType string   `json:"fieldType" validate:"required"`
	Required  bool     `json:"required"`
	Order     int      `json:"order"`
	Options   []string `json:"options,omitempty"`
}

type DeviationType struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name" validate:"required"`
	FieldIDs []int  `json:"fieldIds,omitempty"`
}

type Deviation struct {
	ID           int        `json:"id,omitempty"`
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	TypeID       *int       `json:"typeId,omitempty"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	AssignedTo   *int       `json:"assignedTo,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	CustomValues AnswerMap  `json:"customValues,omitempty"`
	CreatedBy    *int       `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

type DeviationLog struct {
	ID          int       `json:"id,omitempty"`
	DeviationID int       `json:"deviationId"`
	Message     string    `json:"message"`
	CreatedBy   *int      `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type DeviationComment struct {
	ID          int       `json:"id,omitempty"`
	DeviationID int       `json:"deviationId"`
	UserID      int       `json:"userId"`
	Body        string    `json:"body" validate:"required"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}
