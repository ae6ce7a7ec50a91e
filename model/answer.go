package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type AnswerKind int

const (
	AnswerEmpty AnswerKind = iota
	AnswerBool
	AnswerNumber
	AnswerText
	AnswerList
)

// Answer is one question's value. The wire format is the raw JSON value as
// submitted (bool, number, string or array of strings); the decoded kind is
// checked against the question's declared type before a response is accepted.
type Answer struct {
	raw    json.RawMessage
	Kind   AnswerKind
	Bool   bool
	Number float64
	Text   string
	List   []string
}

func BoolAnswer(v bool) Answer {
	raw, _ := json.Marshal(v)
	return Answer{raw: raw, Kind: AnswerBool, Bool: v}
}

func NumberAnswer(v float64) Answer {
	raw, _ := json.Marshal(v)
	return Answer{raw: raw, Kind: AnswerNumber, Number: v}
}

func TextAnswer(v string) Answer {
	raw, _ := json.Marshal(v)
	if v == "" {
		return Answer{raw: raw, Kind: AnswerEmpty}
	}
	return Answer{raw: raw, Kind: AnswerText, Text: v}
}

func ListAnswer(v []string) Answer {
	raw, _ := json.Marshal(v)
	return Answer{raw: raw, Kind: AnswerList, List: v}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	a.raw = append(a.raw[:0], data...)

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		a.Kind = AnswerBool
		a.Bool = b
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		a.Kind = AnswerNumber
		a.Number = n
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			a.Kind = AnswerEmpty
		} else {
			a.Kind = AnswerText
			a.Text = s
		}
		return nil
	}

	var l []string
	if err := json.Unmarshal(data, &l); err == nil {
		a.Kind = AnswerList
		a.List = l
		return nil
	}

	if string(data) == "null" {
		a.Kind = AnswerEmpty
		return nil
	}

	return errors.New("unsupported answer value")
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.raw == nil {
		return []byte("null"), nil
	}
	return a.raw, nil
}

func (a Answer) Empty() bool {
	switch a.Kind {
	case AnswerEmpty:
		return true
	case AnswerList:
		return len(a.List) == 0
	}
	return false
}

// MatchesType reports whether the answer's decoded kind is acceptable for
// the given question type.
func (a Answer) MatchesType(questionType string) bool {
	if a.Empty() {
		return true
	}
	switch questionType {
	case QuestionYesNo, QuestionCheckbox:
		return a.Kind == AnswerBool
	case QuestionNumber, QuestionStar, QuestionMood:
		return a.Kind == AnswerNumber
	case QuestionText, QuestionLongText, QuestionDate, QuestionSelect:
		return a.Kind == AnswerText
	case QuestionMultiSelect:
		return a.Kind == AnswerList
	}
	return false
}

// AnswerMap holds answers keyed by stringified question id, as on the wire.
type AnswerMap map[string]Answer

// ByQuestion converts the map to numeric question ids, rejecting keys that
// are not integers.
func (m AnswerMap) ByQuestion() (map[int]Answer, error) {
	out := make(map[int]Answer, len(m))
	for k, v := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("answer key %q is not a question id", k)
		}
		out[id] = v
	}
	return out, nil
}
