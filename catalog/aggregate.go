package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/examshot/models"
)

// Aggregate groups rows into courses and topics, keeping source order.
// Rows without a link are skipped. A sequence or topic number that cannot
// be coerced to an integer aborts aggregation with a format error.
func Aggregate(rows []models.Row) (*models.Structure, error) {
	s := models.NewStructure()

	for _, row := range rows {
		link := strings.TrimSpace(row.Link)
		if isBlank(link) {
			slog.Debug("row without link skipped", "line", row.Line)
			continue
		}
		row.Link = link

		number, err := ParseNumber(row.Number)
		if err != nil {
			return nil, lineError(row.Line, "sequence number", err)
		}
		if number < 1 {
			return nil, lineError(row.Line, "sequence number",
				models.NewError(models.ErrCodeFormat, fmt.Sprintf("%d is not positive", number), nil))
		}

		course, topic, err := Classify(row)
		if err != nil {
			return nil, lineError(row.Line, "topic number", err)
		}

		s.Add(course, TopicName(topic), models.Question{Number: number, URL: link}, row)
	}

	return s, nil
}

func lineError(line int, what string, err error) error {
	return models.NewError(models.ErrCodeFormat, fmt.Sprintf("line %d: invalid %s", line, what), err)
}
