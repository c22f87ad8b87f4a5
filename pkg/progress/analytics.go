package progress

import (
	"sort"
	"time"
)

// MasteryDistribution buckets topics by mastery level.
type MasteryDistribution struct {
	Beginner   int `json:"beginner"`
	Learning   int `json:"learning"`
	Practicing int `json:"practicing"`
	Mastered   int `json:"mastered"`
}

// QuizHistoryEntry is one quiz attempt on the timeline.
type QuizHistoryEntry struct {
	Topic      string  `json:"topic"`
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

// Analytics is the visualization payload for a user.
type Analytics struct {
	MasteryDistribution   MasteryDistribution `json:"mastery_distribution"`
	QuizHistory           []QuizHistoryEntry  `json:"quiz_history"`
	TotalStudyTimeMinutes int                 `json:"total_study_time_minutes"`
	AchievementCount      int                 `json:"achievement_count"`
}

// BuildAnalytics derives chart-ready analytics from the aggregate view.
func BuildAnalytics(p *UserProgress) *Analytics {
	analytics := &Analytics{
		QuizHistory:           []QuizHistoryEntry{},
		TotalStudyTimeMinutes: p.TotalActivities * 5,
		AchievementCount:      len(p.Achievements),
	}

	for _, name := range p.TopicOrder {
		topic := p.Topics[name]

		switch {
		case topic.MasteryLevel <= 25:
			analytics.MasteryDistribution.Beginner++
		case topic.MasteryLevel <= 50:
			analytics.MasteryDistribution.Learning++
		case topic.MasteryLevel <= 75:
			analytics.MasteryDistribution.Practicing++
		default:
			analytics.MasteryDistribution.Mastered++
		}

		for _, quiz := range topic.Quizzes {
			analytics.QuizHistory = append(analytics.QuizHistory, QuizHistoryEntry{
				Topic:      name,
				Date:       quiz.Date.Format(time.RFC3339),
				Percentage: quiz.Percentage,
			})
		}
	}

	sort.SliceStable(analytics.QuizHistory, func(i, j int) bool {
		return analytics.QuizHistory[i].Date < analytics.QuizHistory[j].Date
	})

	if len(analytics.QuizHistory) > 10 {
		analytics.QuizHistory = analytics.QuizHistory[len(analytics.QuizHistory)-10:]
	}

	return analytics
}
