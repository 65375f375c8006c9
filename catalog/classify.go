// Package catalog derives course and topic names from question links and
// groups spreadsheet rows into the course → topic → questions tree.
package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/examshot/models"
)

// UnknownCourse names the course of links that carry no exam token.
const UnknownCourse = "UNKNOWN"

var (
	courseRe = regexp.MustCompile(`exam-([\w-]+)-topic`)
	topicRe  = regexp.MustCompile(`topic-(\d+)-question`)
)

// CourseFromLink returns the uppercased exam token of a link such as
// ".../exam-dp-700-topic-1-question-5", or UnknownCourse.
func CourseFromLink(link string) string {
	m := courseRe.FindStringSubmatch(link)
	if m == nil {
		return UnknownCourse
	}
	return strings.ToUpper(m[1])
}

// TopicFromLink returns the topic number embedded in a link, or 0.
func TopicFromLink(link string) int {
	m := topicRe.FindStringSubmatch(link)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// only reachable on overflow
		return 0
	}
	return n
}

// TopicName renders a topic number as a folder name.
func TopicName(n int) string {
	return "Topic" + strconv.Itoa(n)
}

// ParseNumber coerces spreadsheet cell text to an integer within the int32
// range. Decimal text is truncated toward zero so "3.0" yields 3.
func ParseNumber(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, models.NewError(models.ErrCodeFormat, "empty number", nil)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.NewError(models.ErrCodeFormat, fmt.Sprintf("%q is not a number", s), err)
	}
	if n, err := strconv.Atoi(s); err == nil {
		f = float64(n)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, models.NewError(models.ErrCodeFormat, fmt.Sprintf("%q is out of range", s), nil)
	}
	return int(f), nil
}

// isBlank reports whether a cell counts as missing.
func isBlank(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || strings.EqualFold(s, "nan")
}

// Classify returns the course name and topic number of a row. An explicit
// topic cell wins over the topic parsed from the link.
func Classify(row models.Row) (course string, topic int, err error) {
	course = CourseFromLink(row.Link)
	if isBlank(row.Topic) {
		return course, TopicFromLink(row.Link), nil
	}
	topic, err = ParseNumber(row.Topic)
	if err != nil {
		return "", 0, fmt.Errorf("topic: %w", err)
	}
	return course, topic, nil
}
