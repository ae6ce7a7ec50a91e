package dashboard

import (
	"strconv"
	"testing"
	"time"

	"github.com/bouvin87/SystemBySelections-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func starQuestion(display string) model.Question {
	return model.Question{
		ID:               7,
		Label:            "Workplace tidiness",
		Type:             model.QuestionStar,
		DashboardDisplay: &display,
	}
}

func responsesWith(questionID int, answers ...model.Answer) []model.ChecklistResponse {
	key := strconv.Itoa(questionID)
	out := make([]model.ChecklistResponse, len(answers))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, a := range answers {
		out[i] = model.ChecklistResponse{
			ID:        i + 1,
			Answers:   model.AnswerMap{key: a},
			CreatedAt: base.AddDate(0, 0, i),
		}
	}
	return out
}

func TestAverageCard(t *testing.T) {
	responses := responsesWith(7,
		model.NumberAnswer(3), model.NumberAnswer(4), model.NumberAnswer(5))

	cards := BuildCards([]model.Question{starQuestion(model.DisplayAverage)}, responses)
	require.Len(t, cards, 1)

	assert.Equal(t, "4.0", cards[0].Average)
	assert.InDelta(t, 80, cards[0].Percent, 0.001)
	assert.Equal(t, 5.0, cards[0].Max)
}

func TestProgressCardUsesDeclaredMax(t *testing.T) {
	max := 10.0
	q := model.Question{
		ID:               3,
		Label:            "Units produced",
		Type:             model.QuestionNumber,
		ValidationMax:    &max,
		DashboardDisplay: strPtr(model.DisplayProgress),
	}
	responses := responsesWith(3, model.NumberAnswer(2), model.NumberAnswer(4))

	cards := BuildCards([]model.Question{q}, responses)
	require.Len(t, cards, 1)
	assert.Equal(t, "3.0", cards[0].Average)
	assert.InDelta(t, 30, cards[0].Percent, 0.001)
}

func TestNumericDefaultMaxIs100(t *testing.T) {
	q := model.Question{
		ID:               3,
		Label:            "Temperature",
		Type:             model.QuestionNumber,
		DashboardDisplay: strPtr(model.DisplayAverage),
	}
	cards := BuildCards([]model.Question{q}, responsesWith(3, model.NumberAnswer(50)))
	require.Len(t, cards, 1)
	assert.InDelta(t, 50, cards[0].Percent, 0.001)
}

func TestChartKeepsSevenMostRecentDaysAscending(t *testing.T) {
	var responses []model.ChecklistResponse
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for day := 0; day < 10; day++ {
		responses = append(responses, model.ChecklistResponse{
			Answers:   model.AnswerMap{"7": model.NumberAnswer(float64(day + 1))},
			CreatedAt: base.AddDate(0, 0, day),
		})
	}

	cards := BuildCards([]model.Question{starQuestion(model.DisplayChart)}, responses)
	require.Len(t, cards, 1)
	points := cards[0].Points
	require.Len(t, points, 7)

	assert.Equal(t, "2025-03-04", points[0].Day)
	assert.Equal(t, "2025-03-10", points[6].Day)
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i-1].Day, points[i].Day)
	}
}

func TestChartAveragesWithinDay(t *testing.T) {
	day := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	responses := []model.ChecklistResponse{
		{Answers: model.AnswerMap{"7": model.NumberAnswer(2)}, CreatedAt: day.Add(6 * time.Hour)},
		{Answers: model.AnswerMap{"7": model.NumberAnswer(4)}, CreatedAt: day.Add(14 * time.Hour)},
	}

	cards := BuildCards([]model.Question{starQuestion(model.DisplayChart)}, responses)
	require.Len(t, cards, 1)
	require.Len(t, cards[0].Points, 1)
	assert.InDelta(t, 3, cards[0].Points[0].Value, 0.001)
}

func TestCountCardSplitsBooleans(t *testing.T) {
	q := model.Question{
		ID:               9,
		Label:            "Deviation found",
		Type:             model.QuestionYesNo,
		DashboardDisplay: strPtr(model.DisplayCount),
	}
	responses := responsesWith(9,
		model.BoolAnswer(true), model.BoolAnswer(false), model.BoolAnswer(true))

	cards := BuildCards([]model.Question{q}, responses)
	require.Len(t, cards, 1)
	assert.Equal(t, 2, cards[0].CountTrue)
	assert.Equal(t, 1, cards[0].CountFalse)
}

func TestCountCardTotalsNumerics(t *testing.T) {
	cards := BuildCards(
		[]model.Question{starQuestion(model.DisplayCount)},
		responsesWith(7, model.NumberAnswer(1), model.NumberAnswer(2)))
	require.Len(t, cards, 1)
	assert.Equal(t, 2, cards[0].CountTotal)
}

func TestNoCardWithoutDisplayHintOrValues(t *testing.T) {
	plain := model.Question{ID: 1, Label: "Notes", Type: model.QuestionText}
	cards := BuildCards([]model.Question{plain}, responsesWith(1, model.TextAnswer("hello")))
	assert.Empty(t, cards)

	// hinted question but every answer empty
	cards = BuildCards(
		[]model.Question{starQuestion(model.DisplayAverage)},
		responsesWith(7, model.TextAnswer("")))
	assert.Empty(t, cards)
}

func TestBuildCardsIsIdempotent(t *testing.T) {
	questions := []model.Question{starQuestion(model.DisplayAverage)}
	responses := responsesWith(7, model.NumberAnswer(3), model.NumberAnswer(5))

	first := BuildCards(questions, responses)
	second := BuildCards(questions, responses)
	assert.Equal(t, first, second)
}

func TestRenderAnswer(t *testing.T) {
	hidden := model.Question{Type: model.QuestionText, HideInView: true}
	assert.Equal(t, "redacted", RenderAnswer(hidden, model.TextAnswer("secret")).Kind)

	yes := RenderAnswer(model.Question{Type: model.QuestionYesNo}, model.BoolAnswer(true))
	assert.Equal(t, "Yes", yes.Display)
	no := RenderAnswer(model.Question{Type: model.QuestionCheckbox}, model.BoolAnswer(false))
	assert.Equal(t, "No", no.Display)

	star := RenderAnswer(model.Question{Type: model.QuestionStar}, model.NumberAnswer(4))
	assert.Equal(t, "4/5", star.Display)

	date := RenderAnswer(model.Question{Type: model.QuestionDate}, model.TextAnswer("2025-03-05"))
	assert.Equal(t, "05 Mar 2025", date.Display)

	multi := RenderAnswer(model.Question{Type: model.QuestionMultiSelect},
		model.ListAnswer([]string{"oil", "coolant"}))
	assert.Equal(t, []string{"oil", "coolant"}, multi.Badges)

	empty := RenderAnswer(model.Question{Type: model.QuestionText}, model.TextAnswer(""))
	assert.Equal(t, "empty", empty.Kind)
}
