// Package forms turns a tenant's checklist schema into an ordered wizard:
// an identification step followed by one step per question category, with
// questions filtered by the selected work task. It is pure; controllers
// feed it schema rows and it never touches the database.
package forms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bouvin87/SystemBySelections-sub001/model"
)

const (
	StepIdentification = "identification"
	StepCategory       = "category"
)

// Selection holds the identification choices made on step 0.
type Selection struct {
	ShiftID       *int `json:"shiftId,omitempty"`
	WorkTaskID    *int `json:"workTaskId,omitempty"`
	WorkStationID *int `json:"workStationId,omitempty"`
}

type Step struct {
	Index      int              `json:"index"`
	Kind       string           `json:"kind"`
	Title      string           `json:"title"`
	CategoryID int              `json:"categoryId,omitempty"`
	Questions  []model.Question `json:"questions,omitempty"`

	// identification step only
	RequireShift       bool `json:"requireShift,omitempty"`
	RequireWorkTask    bool `json:"requireWorkTask,omitempty"`
	RequireWorkStation bool `json:"requireWorkStation,omitempty"`
}

// Compose builds the wizard steps for a checklist. Categories are ordered by
// (order, id); within a step questions are ordered the same way and filtered
// to those applicable to the selected work task. The result is recomputed on
// every call; late results for an abandoned selection are simply discarded by
// the caller.
func Compose(cl model.Checklist, categories []model.Category, questions []model.Question, sel Selection) []Step {
	steps := []Step{{
		Index:              0,
		Kind:               StepIdentification,
		Title:              cl.Name,
		RequireShift:       cl.IncludeShifts,
		RequireWorkTask:    cl.IncludeWorkTasks,
		RequireWorkStation: cl.IncludeWorkStations,
	}}

	cats := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.ChecklistID == cl.ID {
			cats = append(cats, c)
		}
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].ID < cats[j].ID
	})

	for _, c := range cats {
		qs := make([]model.Question, 0)
		for _, q := range questions {
			if q.CategoryID == c.ID && q.AppliesTo(sel.WorkTaskID) {
				qs = append(qs, q)
			}
		}
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Order != qs[j].Order {
				return qs[i].Order < qs[j].Order
			}
			return qs[i].ID < qs[j].ID
		})

		steps = append(steps, Step{
			Index:      len(steps),
			Kind:       StepCategory,
			Title:      c.Name,
			CategoryID: c.ID,
			Questions:  qs,
		})
	}

	return steps
}

// FilterStations narrows work station options to those whose work task
// membership matches the selected work task. Stations not bound to any work
// task are always offered, as is everything when no work task is selected.
func FilterStations(stations []model.WorkStation, workTaskID *int) []model.WorkStation {
	if workTaskID == nil {
		return stations
	}
	out := make([]model.WorkStation, 0, len(stations))
	for _, s := range stations {
		if s.WorkTaskID == nil || *s.WorkTaskID == *workTaskID {
			out = append(out, s)
		}
	}
	return out
}

// ValidateStep returns the display labels of required questions in the step
// that have no non-empty answer. Questions filtered out of the step by work
// task mismatch never reach here and are therefore exempt.
func ValidateStep(step Step, answers map[int]model.Answer) []string {
	var missing []string
	for _, q := range step.Questions {
		if !q.Required {
			continue
		}
		if a, ok := answers[q.ID]; !ok || a.Empty() {
			missing = append(missing, truncateLabel(q.Label))
		}
	}
	return missing
}

// ValidationError lists everything wrong with a submitted response.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Validate checks a response document against its checklist schema:
// identification fields required by the checklist flags, answer keys that
// belong to the checklist and apply to the selected work task, answer kinds
// matching the declared question types, and required questions answered.
func Validate(cl model.Checklist, categories []model.Category, questions []model.Question, resp model.ChecklistResponse) error {
	verr := &ValidationError{}

	sel := Selection{ShiftID: resp.ShiftID, WorkTaskID: resp.WorkTaskID, WorkStationID: resp.WorkStationID}
	if cl.IncludeShifts && resp.ShiftID == nil {
		verr.Missing = append(verr.Missing, "shift")
	}
	if cl.IncludeWorkTasks && resp.WorkTaskID == nil {
		verr.Missing = append(verr.Missing, "work task")
	}
	if cl.IncludeWorkStations && resp.WorkStationID == nil {
		verr.Missing = append(verr.Missing, "work station")
	}

	answers, err := resp.Answers.ByQuestion()
	if err != nil {
		verr.Invalid = append(verr.Invalid, err.Error())
		return verr
	}

	byID := make(map[int]model.Question, len(questions))
	catOfChecklist := make(map[int]bool, len(categories))
	for _, c := range categories {
		if c.ChecklistID == cl.ID {
			catOfChecklist[c.ID] = true
		}
	}
	for _, q := range questions {
		if catOfChecklist[q.CategoryID] {
			byID[q.ID] = q
		}
	}

	for id, a := range answers {
		q, ok := byID[id]
		if !ok {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("question %d does not belong to this checklist", id))
			continue
		}
		if !q.AppliesTo(sel.WorkTaskID) {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("question %d does not apply to the selected work task", id))
			continue
		}
		if !a.MatchesType(q.Type) {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("question %d: value does not match type %s", id, q.Type))
		}
	}

	for _, step := range Compose(cl, categories, questions, sel) {
		verr.Missing = append(verr.Missing, ValidateStep(step, answers)...)
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

const maxLabelLen = 40

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelLen {
		return label
	}
	return string(runes[:maxLabelLen]) + "…"
}
