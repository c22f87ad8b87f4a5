package progress

import (
	"fmt"
	"math"
)

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// BuildUserProgress replays a chronological activity log into the
// aggregate progress view. An empty log yields an empty, fully
// initialized aggregate.
func BuildUserProgress(activities []Activity) *UserProgress {
	p := &UserProgress{
		Topics:       make(map[string]*TopicProgress),
		Achievements: []string{},
		Summary:      Summary{WeakTopics: []WeakTopic{}},
	}

	for _, a := range activities {
		topic, ok := p.Topics[a.Topic]
		if !ok {
			topic = &TopicProgress{
				Quizzes:       []QuizRecord{},
				LabsCompleted: []LabRecord{},
				FirstStudied:  a.CreatedAt,
			}
			p.Topics[a.Topic] = topic
			p.TopicOrder = append(p.TopicOrder, a.Topic)
		}

		switch a.Kind {
		case ActivityExplain:
			topic.Explained = true
			topic.MasteryLevel = max(topic.MasteryLevel, 25)

		case ActivityDeep:
			topic.DeepExplained = true
			topic.MasteryLevel = max(topic.MasteryLevel, 50)

		case ActivityReferences:
			topic.ReferencesViewed = true

		case ActivityQuiz:
			percentage := 0.0
			if a.Score != nil {
				percentage = *a.Score
			}
			topic.Quizzes = append(topic.Quizzes, QuizRecord{
				Date:       a.CreatedAt,
				Percentage: percentage,
			})
			p.QuizzesTaken++

			if percentage >= 90 {
				topic.MasteryLevel = 100
			} else if percentage >= 70 {
				topic.MasteryLevel = max(topic.MasteryLevel, 75)
			}

		case ActivityLab:
			topic.LabsCompleted = append(topic.LabsCompleted, LabRecord{
				Date:       a.CreatedAt,
				Experiment: a.Topic,
			})
			topic.MasteryLevel = max(topic.MasteryLevel, 80)

		case ActivityQuestion:
			topic.QuestionsAsked++
		}

		topic.LastStudied = a.CreatedAt
		last := a.CreatedAt
		p.LastActivity = &last
		p.TotalActivities++

		checkAchievements(p)
	}

	var sum float64
	var count int
	for _, name := range p.TopicOrder {
		for _, q := range p.Topics[name].Quizzes {
			sum += q.Percentage
			count++
		}
	}
	if count > 0 {
		p.AverageScore = round2(sum / float64(count))
	}

	p.Summary = buildSummary(p)

	return p
}

// checkAchievements awards any achievement whose condition just became
// true. Awards are append-only, in the order they are earned.
func checkAchievements(p *UserProgress) {
	earned := make(map[string]bool, len(p.Achievements))
	for _, a := range p.Achievements {
		earned[a] = true
	}

	if p.TotalActivities >= 1 && !earned["first_steps"] {
		p.Achievements = append(p.Achievements, "first_steps")
	}

	highScoreQuizzes := 0
	for _, topic := range p.Topics {
		for _, q := range topic.Quizzes {
			if q.Percentage >= 80 {
				highScoreQuizzes++
			}
		}
	}
	if highScoreQuizzes >= 5 && !earned["quiz_master"] {
		p.Achievements = append(p.Achievements, "quiz_master")
	}

	if len(p.Topics) >= 5 && !earned["explorer"] {
		p.Achievements = append(p.Achievements, "explorer")
	}

	if !earned["perfectionist"] {
		for _, topic := range p.Topics {
			perfect := false
			for _, q := range topic.Quizzes {
				if q.Percentage == 100 {
					perfect = true
					break
				}
			}
			if perfect {
				p.Achievements = append(p.Achievements, "perfectionist")
				break
			}
		}
	}
}

func buildSummary(p *UserProgress) Summary {
	summary := Summary{
		TotalTopics: len(p.Topics),
		WeakTopics:  []WeakTopic{},
	}

	for _, name := range p.TopicOrder {
		topic := p.Topics[name]

		if topic.MasteryLevel >= 80 {
			summary.MasteredTopics++
		} else if topic.MasteryLevel > 0 {
			summary.InProgressTopics++
		}

		if len(topic.Quizzes) > 0 {
			var sum float64
			for _, q := range topic.Quizzes {
				sum += q.Percentage
			}
			avg := sum / float64(len(topic.Quizzes))
			if avg < 60 {
				summary.WeakTopics = append(summary.WeakTopics, WeakTopic{
					Topic:        name,
					AverageScore: round2(avg),
					Attempts:     len(topic.Quizzes),
				})
			}
		}
	}

	return summary
}

// Recommendations generates up to three study suggestions from the
// aggregate view.
func Recommendations(p *UserProgress) []string {
	if p.TotalActivities == 0 {
		return []string{"Start by uploading your syllabus and exploring a topic!"}
	}

	var recommendations []string

	if len(p.Summary.WeakTopics) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Review '%s' - your quiz scores are below 60%%", p.Summary.WeakTopics[0].Topic))
	}

	for _, name := range p.TopicOrder {
		topic := p.Topics[name]
		if topic.Explained && len(topic.Quizzes) == 0 {
			recommendations = append(recommendations,
				fmt.Sprintf("Take a quiz on '%s' to test your understanding", name))
			break
		}
	}

	for _, name := range p.TopicOrder {
		topic := p.Topics[name]
		if topic.Explained && !topic.DeepExplained {
			recommendations = append(recommendations,
				fmt.Sprintf("Get a deeper explanation of '%s'", name))
			break
		}
	}

	if p.TotalActivities < 10 {
		recommendations = append(recommendations, "Keep it up! Try to study a little bit each day")
	}

	if len(p.Topics) < 3 {
		recommendations = append(recommendations, "Explore more topics from your syllabus")
	}

	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}
	return recommendations
}
