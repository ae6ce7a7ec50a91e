// Package dashboard computes read-side projections over submitted checklist
// responses: per-question roll-up cards and human-readable answer views.
// Everything here is a pure function of the schema and response snapshots,
// safe to recompute at any time.
package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bouvin87/SystemBySelections-sub001/model"
)

type ChartPoint struct {
	Day   string  `json:"day"`
	Value float64 `json:"value"`
}

// Card is one dashboard tile for a question with a display hint.
type Card struct {
	QuestionID int    `json:"questionId"`
	Label      string `json:"label"`
	Display    string `json:"display"`

	Average string  `json:"average,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Percent float64 `json:"percent,omitempty"`

	CountTrue  int `json:"countTrue,omitempty"`
	CountFalse int `json:"countFalse,omitempty"`
	CountTotal int `json:"countTotal,omitempty"`

	Points []ChartPoint `json:"points,omitempty"`
}

// chart cards keep only the most recent distinct days
const chartDays = 7

// BuildCards computes one card per question carrying a dashboard display
// hint. A question with no non-empty answers in the response set yields no
// card.
func BuildCards(questions []model.Question, responses []model.ChecklistResponse) []Card {
	var cards []Card
	for _, q := range questions {
		if q.DashboardDisplay == nil {
			continue
		}
		card, ok := buildCard(q, *q.DashboardDisplay, responses)
		if ok {
			cards = append(cards, card)
		}
	}
	return cards
}

func buildCard(q model.Question, display string, responses []model.ChecklistResponse) (Card, bool) {
	card := Card{QuestionID: q.ID, Label: q.Label, Display: display}
	key := strconv.Itoa(q.ID)

	answered := 0
	for _, r := range responses {
		if a, ok := r.Answers[key]; ok && !a.Empty() {
			answered++
		}
	}
	if answered == 0 {
		return card, false
	}

	switch display {
	case model.DisplayAverage, model.DisplayProgress:
		avg, n := average(q, key, responses)
		if n == 0 {
			return card, false
		}
		card.Average = fmt.Sprintf("%.1f", avg)
		card.Max = q.Max()
		card.Percent = avg / q.Max() * 100

	case model.DisplayChart:
		card.Points = chartPoints(q, key, responses)
		if len(card.Points) == 0 {
			return card, false
		}

	case model.DisplayCount:
		switch q.Type {
		case model.QuestionYesNo, model.QuestionCheckbox:
			for _, r := range responses {
				a, ok := r.Answers[key]
				if !ok || a.Kind != model.AnswerBool {
					continue
				}
				if a.Bool {
					card.CountTrue++
				} else {
					card.CountFalse++
				}
			}
		default:
			card.CountTotal = answered
		}

	default:
		return card, false
	}

	return card, true
}

// average returns the mean of parseable numeric answers and how many there
// were.
func average(q model.Question, key string, responses []model.ChecklistResponse) (float64, int) {
	var sum float64
	var n int
	for _, r := range responses {
		a, ok := r.Answers[key]
		if !ok {
			continue
		}
		if v, ok := numericValue(a); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// chartPoints groups numeric answers by calendar day, averages within each
// day, sorts ascending by date, and keeps the most recent days only.
func chartPoints(q model.Question, key string, responses []model.ChecklistResponse) []ChartPoint {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range responses {
		a, ok := r.Answers[key]
		if !ok {
			continue
		}
		v, ok := numericValue(a)
		if !ok {
			continue
		}
		day := r.CreatedAt.Format("2006-01-02")
		sums[day] += v
		counts[day]++
	}

	points := make([]ChartPoint, 0, len(sums))
	for day, sum := range sums {
		points = append(points, ChartPoint{Day: day, Value: sum / float64(counts[day])})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day < points[j].Day })

	if len(points) > chartDays {
		points = points[len(points)-chartDays:]
	}
	return points
}

func numericValue(a model.Answer) (float64, bool) {
	switch a.Kind {
	case model.AnswerNumber:
		return a.Number, true
	case model.AnswerText:
		v, err := strconv.ParseFloat(a.Text, 64)
		return v, err == nil
	}
	return 0, false
}

// AnswerView is the presentation of one stored answer.
type AnswerView struct {
	Kind    string   `json:"kind"`
	Display string   `json:"display"`
	Badges  []string `json:"badges,omitempty"`
}

// RenderAnswer maps (question type, stored value) to a presentation. A
// question flagged hideInView always renders redacted regardless of type.
func RenderAnswer(q model.Question, a model.Answer) AnswerView {
	if q.HideInView {
		return AnswerView{Kind: "redacted", Display: "•••"}
	}
	if a.Empty() {
		return AnswerView{Kind: "empty", Display: "—"}
	}

	switch q.Type {
	case model.QuestionYesNo, model.QuestionCheckbox:
		if a.Bool {
			return AnswerView{Kind: "badge", Display: "Yes"}
		}
		return AnswerView{Kind: "badge", Display: "No"}

	case model.QuestionStar, model.QuestionMood:
		return AnswerView{Kind: "scale", Display: fmt.Sprintf("%d/5", int(a.Number))}

	case model.QuestionDate:
		if t, err := time.Parse("2006-01-02", a.Text); err == nil {
			return AnswerView{Kind: "date", Display: t.Format("02 Jan 2006")}
		}
		return AnswerView{Kind: "date", Display: a.Text}

	case model.QuestionSelect:
		return AnswerView{Kind: "badge", Display: a.Text, Badges: []string{a.Text}}

	case model.QuestionMultiSelect:
		display := ""
		for i, v := range a.List {
			if i > 0 {
				display += ", "
			}
			display += v
		}
		return AnswerView{Kind: "badge", Display: display, Badges: a.List}

	case model.QuestionNumber:
		return AnswerView{Kind: "number", Display: strconv.FormatFloat(a.Number, 'f', -1, 64)}
	}

	return AnswerView{Kind: "text", Display: a.Text}
}
