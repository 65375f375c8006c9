package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/examshot/models"
)

func TestAggregate_DropsRowsWithoutLink(t *testing.T) {
	rows := []models.Row{
		{Line: 2, Number: "1", Link: "https://x/exam-dp-700-topic-1-question-1"},
		{Line: 3, Number: "2", Link: "https://x/exam-dp-700-topic-1-question-2"},
		{Line: 4, Number: "3", Link: ""},
		{Line: 5, Number: "4", Link: "https://x/exam-dp-700-topic-2-question-1"},
		{Line: 6, Number: "5", Link: "https://x/exam-az-104-topic-1-question-1"},
	}

	s, err := Aggregate(rows)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Total())
}

func TestAggregate_Scenario(t *testing.T) {
	link := "https://x/exam-dp-700-topic-1-question-5"
	rows := []models.Row{
		{Line: 2, Number: "1", Link: link, Topic: "NaN"},
		{Line: 3, Number: "2", Link: ""},
	}

	s, err := Aggregate(rows)
	require.NoError(t, err)

	require.Len(t, s.Courses, 1)
	c := s.Course("DP-700")
	require.NotNil(t, c)
	assert.Equal(t, []string{"Topic1"}, c.Topics)
	assert.Equal(t, []models.Question{{Number: 1, URL: link}}, c.Questions["Topic1"])
	assert.Len(t, c.Rows, 1)
}

func TestAggregate_KeepsSourceOrder(t *testing.T) {
	rows := []models.Row{
		{Line: 2, Number: "9", Link: "https://x/exam-dp-700-topic-2-question-9"},
		{Line: 3, Number: "3", Link: "https://x/exam-az-104-topic-1-question-3"},
		{Line: 4, Number: "1", Link: "https://x/exam-dp-700-topic-1-question-1"},
		{Line: 5, Number: "2", Link: "https://x/exam-dp-700-topic-2-question-2"},
	}

	s, err := Aggregate(rows)
	require.NoError(t, err)

	require.Len(t, s.Courses, 2)
	assert.Equal(t, "DP-700", s.Courses[0].Name)
	assert.Equal(t, "AZ-104", s.Courses[1].Name)

	dp := s.Course("DP-700")
	assert.Equal(t, []string{"Topic2", "Topic1"}, dp.Topics)
	assert.Equal(t, []models.Question{
		{Number: 9, URL: "https://x/exam-dp-700-topic-2-question-9"},
		{Number: 2, URL: "https://x/exam-dp-700-topic-2-question-2"},
	}, dp.Questions["Topic2"])
}

func TestAggregate_ExplicitTopicDecimal(t *testing.T) {
	rows := []models.Row{
		{Line: 2, Number: "1.0", Link: "https://x/exam-dp-700-topic-1-question-1", Topic: "3.0"},
	}

	s, err := Aggregate(rows)
	require.NoError(t, err)

	c := s.Course("DP-700")
	require.NotNil(t, c)
	assert.Equal(t, []string{"Topic3"}, c.Topics)
	assert.Equal(t, 1, c.Questions["Topic3"][0].Number)
}

func TestAggregate_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		row  models.Row
	}{
		{"non-numeric sequence", models.Row{Line: 7, Number: "seven", Link: "https://x/a"}},
		{"missing sequence", models.Row{Line: 7, Number: "", Link: "https://x/a"}},
		{"zero sequence", models.Row{Line: 7, Number: "0", Link: "https://x/a"}},
		{"non-numeric topic", models.Row{Line: 7, Number: "1", Link: "https://x/a", Topic: "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate([]models.Row{tt.row})
			require.Error(t, err)
			assert.Equal(t, models.ErrCodeFormat, models.CodeOf(err))
			assert.Contains(t, err.Error(), "line 7")
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	s, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Courses)
	assert.Zero(t, s.Total())
}
