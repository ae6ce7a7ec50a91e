package forms

import (
	"testing"

	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testChecklist() model.Checklist {
	return model.Checklist{
		ID:               1,
		Name:             "Morning inspection",
		IncludeWorkTasks: true,
	}
}

func testSchema() ([]model.Category, []model.Question) {
	categories := []model.Category{
		{ID: 10, ChecklistID: 1, Name: "Safety", Order: 1},
		{ID: 11, ChecklistID: 1, Name: "Machine", Order: 2},
		{ID: 99, ChecklistID: 2, Name: "Other checklist", Order: 1},
	}
	questions := []model.Question{
		{ID: 100, CategoryID: 10, Label: "Floor clear?", Type: model.QuestionYesNo, Required: true},
		{ID: 101, CategoryID: 10, Label: "Pressure", Type: model.QuestionNumber, WorkTaskIDs: []int{5}},
		{ID: 102, CategoryID: 11, Label: "Oil level", Type: model.QuestionStar, Order: 2},
		{ID: 103, CategoryID: 11, Label: "Notes", Type: model.QuestionText, Order: 1},
	}
	return categories, questions
}

func TestComposeOrdersStepsByCategoryOrder(t *testing.T) {
	categories, questions := testSchema()
	steps := Compose(testChecklist(), categories, questions, Selection{})

	require.Len(t, steps, 3)
	assert.Equal(t, StepIdentification, steps[0].Kind)
	assert.Equal(t, "Safety", steps[1].Title)
	assert.Equal(t, "Machine", steps[2].Title)

	// within a step, questions are ordered by (order, id)
	require.Len(t, steps[2].Questions, 2)
	assert.Equal(t, 103, steps[2].Questions[0].ID)
	assert.Equal(t, 102, steps[2].Questions[1].ID)
}

func TestComposeBreaksOrderTiesById(t *testing.T) {
	categories := []model.Category{
		{ID: 21, ChecklistID: 1, Name: "B", Order: 1},
		{ID: 20, ChecklistID: 1, Name: "A", Order: 1},
	}
	steps := Compose(testChecklist(), categories, nil, Selection{})

	require.Len(t, steps, 3)
	assert.Equal(t, 20, steps[1].CategoryID)
	assert.Equal(t, 21, steps[2].CategoryID)
}

func TestComposeSkipsOtherChecklistsCategories(t *testing.T) {
	categories, questions := testSchema()
	steps := Compose(testChecklist(), categories, questions, Selection{})

	for _, step := range steps {
		assert.NotEqual(t, 99, step.CategoryID)
	}
}

func TestIdentificationRequirementsFollowChecklistFlags(t *testing.T) {
	cl := testChecklist()
	cl.IncludeShifts = false
	cl.IncludeWorkStations = true

	steps := Compose(cl, nil, nil, Selection{})
	require.NotEmpty(t, steps)
	assert.False(t, steps[0].RequireShift)
	assert.True(t, steps[0].RequireWorkTask)
	assert.True(t, steps[0].RequireWorkStation)
}

func TestUnassociatedQuestionAppearsForEveryWorkTask(t *testing.T) {
	categories, questions := testSchema()

	for _, sel := range []Selection{
		{},
		{WorkTaskID: intPtr(5)},
		{WorkTaskID: intPtr(42)},
	} {
		steps := Compose(testChecklist(), categories, questions, sel)
		var ids []int
		for _, q := range steps[1].Questions {
			ids = append(ids, q.ID)
		}
		assert.Contains(t, ids, 100, "question without work task associations must always render")
	}
}

func TestAssociatedQuestionFilteredByWorkTask(t *testing.T) {
	categories, questions := testSchema()

	steps := Compose(testChecklist(), categories, questions, Selection{WorkTaskID: intPtr(5)})
	require.Len(t, steps[1].Questions, 2)

	steps = Compose(testChecklist(), categories, questions, Selection{WorkTaskID: intPtr(42)})
	require.Len(t, steps[1].Questions, 1)
	assert.Equal(t, 100, steps[1].Questions[0].ID)
}

func TestValidateStepReportsMissingRequired(t *testing.T) {
	categories, questions := testSchema()
	steps := Compose(testChecklist(), categories, questions, Selection{})

	missing := ValidateStep(steps[1], map[int]model.Answer{})
	assert.Equal(t, []string{"Floor clear?"}, missing)

	missing = ValidateStep(steps[1], map[int]model.Answer{100: model.BoolAnswer(true)})
	assert.Empty(t, missing)
}

func TestValidateStepTreatsEmptyValueAsMissing(t *testing.T) {
	step := Step{Questions: []model.Question{
		{ID: 1, Label: "Comment", Type: model.QuestionText, Required: true},
	}}
	missing := ValidateStep(step, map[int]model.Answer{1: model.TextAnswer("")})
	assert.Equal(t, []string{"Comment"}, missing)
}

func TestValidateStepTruncatesLongLabels(t *testing.T) {
	long := "This label is far too long to display in a step error message"
	step := Step{Questions: []model.Question{
		{ID: 1, Label: long, Type: model.QuestionText, Required: true},
	}}
	missing := ValidateStep(step, nil)
	require.Len(t, missing, 1)
	assert.Equal(t, string([]rune(long)[:40])+"…", missing[0])
}

func TestFilterStations(t *testing.T) {
	stations := []model.WorkStation{
		{ID: 1, Name: "Press", WorkTaskID: intPtr(5)},
		{ID: 2, Name: "Lathe", WorkTaskID: intPtr(6)},
		{ID: 3, Name: "Bench"},
	}

	assert.Len(t, FilterStations(stations, nil), 3)

	filtered := FilterStations(stations, intPtr(5))
	require.Len(t, filtered, 2)
	assert.Equal(t, 1, filtered[0].ID)
	assert.Equal(t, 3, filtered[1].ID)
}

func TestValidateRequiresIdentificationPerFlags(t *testing.T) {
	cl := testChecklist()
	cl.IncludeShifts = true

	err := Validate(cl, nil, nil, model.ChecklistResponse{ChecklistID: 1})
	require.Error(t, err)
	verr := err.(*ValidationError)
	assert.Contains(t, verr.Missing, "shift")
	assert.Contains(t, verr.Missing, "work task")
}

func TestValidateRejectsForeignAndMismatchedAnswers(t *testing.T) {
	categories, questions := testSchema()

	resp := model.ChecklistResponse{
		ChecklistID: 1,
		WorkTaskID:  intPtr(42),
		Answers: model.AnswerMap{
			"100": model.BoolAnswer(true),
			"101": model.NumberAnswer(3), // not applicable to work task 42
			"999": model.TextAnswer("no such question"),
		},
	}
	err := Validate(testChecklist(), categories, questions, resp)
	require.Error(t, err)
	verr := err.(*ValidationError)
	assert.Len(t, verr.Invalid, 2)
}

func TestValidateRejectsTypeMismatch(t *testing.T) {
	categories, questions := testSchema()

	resp := model.ChecklistResponse{
		ChecklistID: 1,
		WorkTaskID:  intPtr(5),
		Answers: model.AnswerMap{
			"100": model.TextAnswer("yes"), // yes_no question wants a bool
		},
	}
	err := Validate(testChecklist(), categories, questions, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match type yes_no")
}

func TestTwoCategoryScenario(t *testing.T) {
	cl := model.Checklist{ID: 1, Name: "Audit"}
	categories := []model.Category{
		{ID: 1, ChecklistID: 1, Name: "A", Order: 1},
		{ID: 2, ChecklistID: 1, Name: "B", Order: 2},
	}
	questions := []model.Question{
		{ID: 10, CategoryID: 1, Label: "Describe the state", Type: model.QuestionText, Required: true},
		{ID: 11, CategoryID: 2, Label: "Reading", Type: model.QuestionNumber},
	}

	// leaving the required text question empty blocks with an error naming it
	resp := model.ChecklistResponse{ChecklistID: 1, Answers: model.AnswerMap{}}
	err := Validate(cl, categories, questions, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Describe the state")

	// filling it allows submission; the optional number may stay unanswered
	resp.Answers = model.AnswerMap{"10": model.TextAnswer("all good")}
	assert.NoError(t, Validate(cl, categories, questions, resp))
}
