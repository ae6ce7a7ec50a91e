package model

import "time"

// Question type tags. Closed set: unknown types are rejected at save time.
const (
	QuestionText        = "text"
	QuestionLongText    = "long_text"
	QuestionNumber      = "number"
	QuestionYesNo       = "yes_no"
	QuestionSelect      = "select"
	QuestionMultiSelect = "multi_select"
	QuestionStar        = "star"
	QuestionMood        = "mood"
	QuestionDate        = "date"
	QuestionCheckbox    = "checkbox"
)

func ValidQuestionType(t string) bool {
	switch t {
	case QuestionText, QuestionLongText, QuestionNumber, QuestionYesNo,
		QuestionSelect, QuestionMultiSelect, QuestionStar, QuestionMood,
		QuestionDate, QuestionCheckbox:
		return true
	}
	return false
}

// Dashboard display hints.
const (
	DisplayAverage  = "average"
	DisplayChart    = "chart"
	DisplayProgress = "progress-bar"
	DisplayCount    = "count"
)

func ValidDashboardDisplay(d string) bool {
	switch d {
	case DisplayAverage, DisplayChart, DisplayProgress, DisplayCount:
		return true
	}
	return false
}

type Checklist struct {
	ID                  int    `json:"id,omitempty"`
	Name                string `json:"name" validate:"required"`
	Description         string `json:"description"`
	Icon                string `json:"icon"`
	Order               int    `json:"order"`
	Active              bool   `json:"active"`
	ShowInMenu          bool   `json:"showInMenu"`
	HasDashboard        bool   `json:"hasDashboard"`
	IncludeWorkTasks    bool   `json:"includeWorkTasks"`
	IncludeWorkStations bool   `json:"includeWorkStations"`
	IncludeShifts       bool   `json:"includeShifts"`
}

type Category struct {
	ID          int    `json:"id,omitempty"`
	ChecklistID int    `json:"checklistId"`
	Name        string `json:"name" validate:"required"`
	Order       int    `json:"order"`
}

type Question struct {
	ID               int      `json:"id,omitempty"`
	CategoryID       int      `json:"categoryId"`
	Label            string   `json:"label" validate:"required"`
	Type             string   `json:"type" validate:"required"`
	Required         bool     `json:"required"`
	HideInView       bool     `json:"hideInView"`
	ValidationMax    *float64 `json:"validationMax,omitempty"`
	DashboardDisplay *string  `json:"dashboardDisplay,omitempty"`
	Options          []string `json:"options,omitempty"`
	Order            int      `json:"order"`
	// Empty means the question applies to every work task.
	WorkTaskIDs []int `json:"workTaskIds,omitempty"`
}

// Max is the upper bound used for dashboard ratios: the declared validation
// max when present, otherwise 5 for star/mood questions and 100 for numeric.
func (q Question) Max() float64 {
	if q.ValidationMax != nil && *q.ValidationMax > 0 {
		return *q.ValidationMax
	}
	switch q.Type {
	case QuestionStar, QuestionMood:
		return 5
	default:
		return 100
	}
}

// AppliesTo reports whether the question is shown for the given work task
// selection. A question with no associations applies everywhere.
func (q Question) AppliesTo(workTaskID *int) bool {
	if len(q.WorkTaskIDs) == 0 {
		return true
	}
	if workTaskID == nil {
		return false
	}
	for _, id := range q.WorkTaskIDs {
		if id == *workTaskID {
			return true
		}
	}
	return false
}

type WorkTask struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

type WorkStation struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name" validate:"required"`
	WorkTaskID *int   `json:"workTaskId,omitempty"`
}

type Shift struct {
	ID        int    `json:"id,omitempty"`
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ChecklistResponse struct {
	ID            int       `json:"id,omitempty"`
	ChecklistID   int       `json:"checklistId"`
	Operator      string    `json:"operator"`
	ShiftID       *int      `json:"shiftId,omitempty"`
	WorkTaskID    *int      `json:"workTaskId,omitempty"`
	WorkStationID *int      `json:"workStationId,omitempty"`
	Answers       AnswerMap `json:"responses"`
	IsCompleted   bool      `json:"isCompleted"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}
