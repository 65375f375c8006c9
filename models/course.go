package models

// Row is one record of the source spreadsheet or link list.
// Number and Topic are kept as raw cell text; coercion happens during
// aggregation so that errors can name the offending line.
type Row struct {
	// Line is the 1-based position of the record in its source.
	Line int

	// Number is the raw sequence number cell ("Numero").
	Number string

	// Link is the question URL ("Link"). Rows with an empty Link are dropped.
	Link string

	// Topic is the raw explicit topic cell ("Topic"), empty when absent.
	Topic string

	// Fields holds every cell of the row keyed by header name.
	Fields map[string]string
}

// Question is one exam item mapped to exactly one output image.
type Question struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Course groups the questions of one certification exam by topic.
type Course struct {
	Name string

	// Topics lists topic names in first-seen order.
	Topics []string

	// Questions maps a topic name to its questions in source order.
	Questions map[string][]Question

	// Rows retains the raw rows that produced this course.
	Rows []Row
}

// Total returns the number of questions across all topics.
func (c *Course) Total() int {
	n := 0
	for _, qs := range c.Questions {
		n += len(qs)
	}
	return n
}

// Structure is the aggregated course → topic → questions tree of one run.
type Structure struct {
	// Courses lists courses in first-seen order.
	Courses []*Course

	byName map[string]*Course
}

// NewStructure returns an empty Structure.
func NewStructure() *Structure {
	return &Structure{byName: make(map[string]*Course)}
}

// Course returns the named course, or nil.
func (s *Structure) Course(name string) *Course {
	return s.byName[name]
}

// Add appends a question to the given course and topic, creating both on
// first sight, and records the raw row on the course.
func (s *Structure) Add(course, topic string, q Question, row Row) {
	c, ok := s.byName[course]
	if !ok {
		c = &Course{Name: course, Questions: make(map[string][]Question)}
		s.byName[course] = c
		s.Courses = append(s.Courses, c)
	}
	if _, ok := c.Questions[topic]; !ok {
		c.Topics = append(c.Topics, topic)
	}
	c.Questions[topic] = append(c.Questions[topic], q)
	c.Rows = append(c.Rows, row)
}

// Total returns the number of questions across all courses.
func (s *Structure) Total() int {
	n := 0
	for _, c := range s.Courses {
		n += c.Total()
	}
	return n
}
