package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMapRoundTrip(t *testing.T) {
	in := []byte(`{"12":true,"15":4}`)

	var m AnswerMap
	require.NoError(t, json.Unmarshal(in, &m))

	assert.Equal(t, AnswerBool, m["12"].Kind)
	assert.True(t, m["12"].Bool)
	assert.Equal(t, AnswerNumber, m["15"].Kind)
	assert.Equal(t, 4.0, m["15"].Number)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	// values must come back unchanged in type and value
	var a, b map[string]any
	require.NoError(t, json.Unmarshal(in, &a))
	require.NoError(t, json.Unmarshal(out, &b))
	assert.Equal(t, a, b)
}

func TestAnswerKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind AnswerKind
	}{
		{`true`, AnswerBool},
		{`3.5`, AnswerNumber},
		{`"hello"`, AnswerText},
		{`""`, AnswerEmpty},
		{`["a","b"]`, AnswerList},
		{`null`, AnswerEmpty},
	}
	for _, c := range cases {
		var a Answer
		require.NoError(t, json.Unmarshal([]byte(c.raw), &a), c.raw)
		assert.Equal(t, c.kind, a.Kind, c.raw)
	}

	var a Answer
	assert.Error(t, json.Unmarshal([]byte(`{"nested":"object"}`), &a))
}

func TestAnswerEmpty(t *testing.T) {
	assert.True(t, TextAnswer("").Empty())
	assert.True(t, ListAnswer(nil).Empty())
	assert.False(t, BoolAnswer(false).Empty())
	assert.False(t, NumberAnswer(0).Empty())
	assert.False(t, ListAnswer([]string{"x"}).Empty())
}

func TestAnswerMatchesType(t *testing.T) {
	assert.True(t, BoolAnswer(true).MatchesType(QuestionYesNo))
	assert.True(t, BoolAnswer(false).MatchesType(QuestionCheckbox))
	assert.True(t, NumberAnswer(3).MatchesType(QuestionStar))
	assert.True(t, NumberAnswer(3).MatchesType(QuestionMood))
	assert.True(t, NumberAnswer(3).MatchesType(QuestionNumber))
	assert.True(t, TextAnswer("x").MatchesType(QuestionText))
	assert.True(t, TextAnswer("2025-01-01").MatchesType(QuestionDate))
	assert.True(t, TextAnswer("a").MatchesType(QuestionSelect))
	assert.True(t, ListAnswer([]string{"a"}).MatchesType(QuestionMultiSelect))

	assert.False(t, TextAnswer("yes").MatchesType(QuestionYesNo))
	assert.False(t, BoolAnswer(true).MatchesType(QuestionNumber))
	assert.False(t, NumberAnswer(1).MatchesType(QuestionMultiSelect))

	// empty answers never fail the type check; required-ness is separate
	assert.True(t, TextAnswer("").MatchesType(QuestionNumber))
}

func TestAnswerMapByQuestion(t *testing.T) {
	m := AnswerMap{"12": BoolAnswer(true)}
	byID, err := m.ByQuestion()
	require.NoError(t, err)
	assert.True(t, byID[12].Bool)

	_, err = AnswerMap{"abc": BoolAnswer(true)}.ByQuestion()
	assert.Error(t, err)
}

func TestQuestionMax(t *testing.T) {
	max := 10.0
	assert.Equal(t, 10.0, Question{Type: QuestionNumber, ValidationMax: &max}.Max())
	assert.Equal(t, 5.0, Question{Type: QuestionStar}.Max())
	assert.Equal(t, 5.0, Question{Type: QuestionMood}.Max())
	assert.Equal(t, 100.0, Question{Type: QuestionNumber}.Max())
}

func TestQuestionAppliesTo(t *testing.T) {
	five := 5
	other := 42

	unassociated := Question{}
	assert.True(t, unassociated.AppliesTo(nil))
	assert.True(t, unassociated.AppliesTo(&five))

	scoped := Question{WorkTaskIDs: []int{5}}
	assert.True(t, scoped.AppliesTo(&five))
	assert.False(t, scoped.AppliesTo(&other))
	assert.False(t, scoped.AppliesTo(nil))
}

func TestIconResolution(t *testing.T) {
	assert.True(t, ValidIcon("clipboard"))
	assert.False(t, ValidIcon("sparkles"))

	assert.Equal(t, "wrench", ResolveIcon("wrench"))
	assert.Equal(t, IconFallback, ResolveIcon("sparkles"))
}
