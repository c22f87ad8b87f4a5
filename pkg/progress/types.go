package progress

import "time"

// Activity kinds recorded in the event log.
const (
	ActivityExplain    = "explain"
	ActivityDeep       = "deep"
	ActivityReferences = "references"
	ActivityQuiz       = "quiz"
	ActivityLab        = "lab"
	ActivityQuestion   = "question"
)

// Activity is one recorded learning event. Score carries the quiz
// percentage and is nil for every other kind.
type Activity struct {
	ID        string
	UserID    string
	Topic     string
	Kind      string
	Score     *float64
	CreatedAt time.Time
}

// QuizRecord is one quiz attempt inside a topic.
type QuizRecord struct {
	Date       time.Time `json:"date"`
	Percentage float64   `json:"percentage"`
}

// LabRecord is one completed lab experiment.
type LabRecord struct {
	Date       time.Time `json:"date"`
	Experiment string    `json:"experiment"`
}

// TopicProgress is the study state of one topic.
type TopicProgress struct {
	Explained        bool         `json:"explained"`
	DeepExplained    bool         `json:"deep_explained"`
	ReferencesViewed bool         `json:"references_viewed"`
	Quizzes          []QuizRecord `json:"quizzes"`
	LabsCompleted    []LabRecord  `json:"labs_completed"`
	QuestionsAsked   int          `json:"questions_asked"`
	FirstStudied     time.Time    `json:"first_studied"`
	LastStudied      time.Time    `json:"last_studied"`
	MasteryLevel     int          `json:"mastery_level"`
}

// WeakTopic flags a topic whose quiz average is below passing.
type WeakTopic struct {
	Topic        string  `json:"topic"`
	AverageScore float64 `json:"average_score"`
	Attempts     int     `json:"attempts"`
}

// Summary condenses a user's standing across all topics.
type Summary struct {
	TotalTopics      int         `json:"total_topics"`
	MasteredTopics   int         `json:"mastered_topics"`
	InProgressTopics int         `json:"in_progress_topics"`
	WeakTopics       []WeakTopic `json:"weak_topics"`
}

// UserProgress is the aggregate view rebuilt from the activity log.
// TopicOrder lists topics by first study time; map iteration alone would
// not give deterministic output.
type UserProgress struct {
	Topics          map[string]*TopicProgress `json:"topics"`
	TopicOrder      []string                  `json:"-"`
	TotalActivities int                       `json:"total_activities"`
	QuizzesTaken    int                       `json:"quizzes_taken"`
	AverageScore    float64                   `json:"average_score"`
	LastActivity    *time.Time                `json:"last_activity"`
	Achievements    []string                  `json:"achievements"`
	Summary         Summary                   `json:"summary"`
}
