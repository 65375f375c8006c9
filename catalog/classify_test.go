package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/examshot/models"
)

func TestCourseFromLink(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://x/exam-dp-700-topic-1-question-5", "DP-700"},
		{"https://www.example.com/discussions/view/12-exam-az-104-topic-2-question-17-discussion/", "AZ-104"},
		{"https://x/exam-sc900-topic-3-question-1", "SC900"},
		{"https://x/exam-dp_203-topic-1-question-1", "DP_203"},
		{"https://x/some/other/page", UnknownCourse},
		{"", UnknownCourse},
		{"https://x/exam--topic-1", UnknownCourse},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, CourseFromLink(tt.link))
		})
	}
}

func TestTopicFromLink(t *testing.T) {
	assert.Equal(t, 1, TopicFromLink("https://x/exam-dp-700-topic-1-question-5"))
	assert.Equal(t, 12, TopicFromLink("https://x/exam-dp-700-topic-12-question-5"))
	assert.Equal(t, 0, TopicFromLink("https://x/exam-dp-700-topic-one-question-5"))
	assert.Equal(t, 0, TopicFromLink("https://x/nothing-here"))
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, "Topic0", TopicName(0))
	assert.Equal(t, "Topic3", TopicName(3))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"3.0", 3, false},
		{"3.9", 3, false},
		{"1e2", 100, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"inf", 0, true},
		{"1e20", 0, true},
		{"2147483647", 2147483647, false},
		{"3000000000", 0, true},
		{"3000000000.0", 0, true},
		{"-3000000000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseNumber(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, models.ErrCodeFormat, models.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	link := "https://x/exam-dp-700-topic-1-question-5"

	t.Run("topic from link", func(t *testing.T) {
		course, topic, err := Classify(models.Row{Link: link})
		require.NoError(t, err)
		assert.Equal(t, "DP-700", course)
		assert.Equal(t, 1, topic)
	})

	t.Run("NaN topic falls back to link", func(t *testing.T) {
		_, topic, err := Classify(models.Row{Link: link, Topic: "NaN"})
		require.NoError(t, err)
		assert.Equal(t, 1, topic)
	})

	t.Run("explicit topic wins", func(t *testing.T) {
		_, topic, err := Classify(models.Row{Link: link, Topic: "3.0"})
		require.NoError(t, err)
		assert.Equal(t, 3, topic)
		assert.Equal(t, "Topic3", TopicName(topic))
	})

	t.Run("no topic anywhere", func(t *testing.T) {
		course, topic, err := Classify(models.Row{Link: "https://x/page"})
		require.NoError(t, err)
		assert.Equal(t, UnknownCourse, course)
		assert.Equal(t, 0, topic)
	})

	t.Run("bad explicit topic", func(t *testing.T) {
		_, _, err := Classify(models.Row{Link: link, Topic: "first"})
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeFormat, models.CodeOf(err))
	})
}
