package progress

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Topic strength categories.
const (
	CategoryStrong     = "strong"
	CategoryModerate   = "moderate"
	CategoryWeak       = "weak"
	CategoryNotStarted = "not_started"
)

// Scoring weights for one topic. Quiz performance dominates; recency adds a
// retention bonus.
const (
	weightExplained  = 15.0
	weightDeep       = 25.0
	weightReferences = 10.0
	weightQuiz       = 40.0
	weightRecency    = 10.0
)

// TopicDetail is the scored view of one topic.
type TopicDetail struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Category     string  `json:"category"`
	QuizzesTaken int     `json:"quizzes_taken"`
	AvgQuizScore float64 `json:"avg_quiz_score"`
	MasteryLevel int     `json:"mastery_level"`
	NeedsReview  bool    `json:"needs_review"`
}

// FocusArea is one prioritized study target.
type FocusArea struct {
	Topic           string `json:"topic"`
	Reason          string `json:"reason"`
	SuggestedAction string `json:"suggested_action"`
	Priority        string `json:"priority"`
}

// LearningPatterns counts behavioral signals across topics.
type LearningPatterns struct {
	PrefersDeepDive   int `json:"prefers_deep_dive"`
	QuizTaker         int `json:"quiz_taker"`
	SurfaceLearner    int `json:"surface_learner"`
	ConsistentLearner int `json:"consistent_learner"`
	TotalTopics       int `json:"total_topics"`
}

// ExamPrediction estimates exam performance from current progress.
type ExamPrediction struct {
	PredictedPercentage float64 `json:"predicted_percentage"`
	Confidence          string  `json:"confidence"`
	GradePrediction     string  `json:"grade_prediction"`
}

// ImprovementPotential quantifies the headroom left.
type ImprovementPotential struct {
	CurrentAverage    float64 `json:"current_average"`
	PotentialAverage  float64 `json:"potential_average"`
	ImprovementPoints float64 `json:"improvement_points"`
	QuickWins         int     `json:"quick_wins"`
}

// Consistency summarizes study regularity.
type Consistency struct {
	Level           string `json:"level"`
	TotalActivities int    `json:"total_activities"`
	Message         string `json:"message"`
}

// Predictions bundles the forecast block of an analysis.
type Predictions struct {
	OverallReadiness     float64              `json:"overall_readiness"`
	ReadinessLevel       string               `json:"readiness_level"`
	ExamPrediction       ExamPrediction       `json:"exam_prediction"`
	ImprovementPotential ImprovementPotential `json:"improvement_potential"`
	LearningStyle        string               `json:"learning_style"`
	ConsistencyScore     Consistency          `json:"consistency_score"`
}

// Analysis is the full performance report for one user.
type Analysis struct {
	Status              string                 `json:"status"`
	Message             string                 `json:"message,omitempty"`
	AnalysisDate        time.Time              `json:"analysis_date"`
	TotalTopicsAnalyzed int                    `json:"total_topics_analyzed"`
	StrongTopics        []TopicDetail          `json:"strong_topics"`
	WeakTopics          []TopicDetail          `json:"weak_topics"`
	ModerateTopics      []TopicDetail          `json:"moderate_topics"`
	FocusAreas          []FocusArea            `json:"focus_areas"`
	Predictions         *Predictions           `json:"predictions,omitempty"`
	Recommendations     []string               `json:"recommendations,omitempty"`
	TopicDetails        map[string]TopicDetail `json:"topic_details,omitempty"`
}

// TopicScore computes the weighted 0-100 score for one topic. Later quiz
// attempts weigh more than earlier ones, and recently studied topics get a
// retention bonus.
func TopicScore(topic *TopicProgress, now time.Time) float64 {
	score := 0.0

	if topic.Explained {
		score += weightExplained
	}
	if topic.DeepExplained {
		score += weightDeep
	}
	if topic.ReferencesViewed {
		score += weightReferences
	}

	if len(topic.Quizzes) > 0 {
		totalWeight := 0.0
		weightedSum := 0.0
		for i, quiz := range topic.Quizzes {
			weight := float64(i + 1)
			weightedSum += quiz.Percentage * weight
			totalWeight += weight
		}
		avgQuizScore := weightedSum / totalWeight
		score += (avgQuizScore / 100) * weightQuiz
	}

	if !topic.LastStudied.IsZero() {
		daysAgo := int(now.Sub(topic.LastStudied).Hours() / 24)
		if daysAgo <= 1 {
			score += weightRecency
		} else if daysAgo <= 7 {
			score += weightRecency * 0.5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Categorize maps a topic score to a strength category.
func Categorize(score float64) string {
	switch {
	case score >= 80:
		return CategoryStrong
	case score >= 50:
		return CategoryModerate
	case score >= 25:
		return CategoryWeak
	default:
		return CategoryNotStarted
	}
}

func analyzePatterns(p *UserProgress) LearningPatterns {
	patterns := LearningPatterns{TotalTopics: len(p.Topics)}

	for _, name := range p.TopicOrder {
		topic := p.Topics[name]

		if topic.DeepExplained {
			patterns.PrefersDeepDive++
		}
		if len(topic.Quizzes) > 0 {
			patterns.QuizTaker++
		}
		if topic.Explained && !topic.DeepExplained && len(topic.Quizzes) == 0 {
			patterns.SurfaceLearner++
		}
	}

	return patterns
}

// Analyze builds the full performance report from the aggregate view.
func Analyze(p *UserProgress, now time.Time) *Analysis {
	if p == nil || len(p.Topics) == 0 {
		return &Analysis{
			Status:         "insufficient_data",
			Message:        "Not enough data to analyze. Study more topics to get predictions!",
			AnalysisDate:   now,
			StrongTopics:   []TopicDetail{},
			WeakTopics:     []TopicDetail{},
			ModerateTopics: []TopicDetail{},
			FocusAreas:     []FocusArea{},
		}
	}

	details := make(map[string]TopicDetail, len(p.Topics))
	ordered := make([]TopicDetail, 0, len(p.Topics))
	for _, name := range p.TopicOrder {
		topic := p.Topics[name]
		score := TopicScore(topic, now)

		avgQuiz := 0.0
		if len(topic.Quizzes) > 0 {
			var sum float64
			for _, q := range topic.Quizzes {
				sum += q.Percentage
			}
			avgQuiz = round1(sum / float64(len(topic.Quizzes)))
		}

		detail := TopicDetail{
			Name:         name,
			Score:        round1(score),
			Category:     Categorize(score),
			QuizzesTaken: len(topic.Quizzes),
			AvgQuizScore: avgQuiz,
			MasteryLevel: topic.MasteryLevel,
			NeedsReview:  topic.MasteryLevel < 50,
		}
		details[name] = detail
		ordered = append(ordered, detail)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	strong := []TopicDetail{}
	weak := []TopicDetail{}
	moderate := []TopicDetail{}
	for _, detail := range ordered {
		switch detail.Category {
		case CategoryStrong:
			strong = append(strong, detail)
		case CategoryModerate:
			moderate = append(moderate, detail)
		default:
			weak = append(weak, detail)
		}
	}

	focusAreas := []FocusArea{}
	for i, topic := range weak {
		if i >= 3 {
			break
		}
		focusAreas = append(focusAreas, FocusArea{
			Topic:           topic.Name,
			Reason:          focusReason(topic),
			SuggestedAction: suggestedAction(topic),
			Priority:        "high",
		})
	}
	for i, topic := range moderate {
		if i >= 2 {
			break
		}
		focusAreas = append(focusAreas, FocusArea{
			Topic:           topic.Name,
			Reason:          "Can be improved with more practice",
			SuggestedAction: "Take a quiz to test understanding",
			Priority:        "medium",
		})
	}

	patterns := analyzePatterns(p)

	var scoreSum float64
	for _, detail := range ordered {
		scoreSum += detail.Score
	}
	overall := scoreSum / float64(len(ordered))

	predictions := &Predictions{
		OverallReadiness:     round1(overall),
		ReadinessLevel:       readinessLevel(overall),
		ExamPrediction:       predictExam(overall, ordered),
		ImprovementPotential: improvementPotential(ordered),
		LearningStyle:        learningStyle(patterns),
		ConsistencyScore:     consistency(p.TotalActivities),
	}

	return &Analysis{
		Status:              "success",
		AnalysisDate:        now,
		TotalTopicsAnalyzed: len(p.Topics),
		StrongTopics:        strong,
		WeakTopics:          weak,
		ModerateTopics:      moderate,
		FocusAreas:          focusAreas,
		Predictions:         predictions,
		Recommendations:     analysisRecommendations(strong, weak, moderate, patterns, predictions),
		TopicDetails:        details,
	}
}

func focusReason(topic TopicDetail) string {
	switch {
	case topic.QuizzesTaken == 0:
		return "Never tested - understanding not verified"
	case topic.AvgQuizScore < 50:
		return fmt.Sprintf("Low quiz performance (%.1f%%)", topic.AvgQuizScore)
	case topic.Score < 25:
		return "Minimal study activity"
	default:
		return "Needs more practice"
	}
}

func suggestedAction(topic TopicDetail) string {
	switch {
	case topic.QuizzesTaken == 0:
		return "Take a quiz to test your knowledge"
	case topic.AvgQuizScore < 50:
		return "Review the topic and retake the quiz"
	case topic.MasteryLevel < 50:
		return "Get a deep explanation of this topic"
	default:
		return "Practice more to reinforce learning"
	}
}

func readinessLevel(score float64) string {
	switch {
	case score >= 80:
		return "Excellent - Ready for exams!"
	case score >= 60:
		return "Good - Minor revision needed"
	case score >= 40:
		return "Fair - More practice required"
	case score >= 20:
		return "Needs Work - Focus on weak areas"
	default:
		return "Getting Started - Keep learning!"
	}
}

func predictExam(overall float64, topics []TopicDetail) ExamPrediction {
	predicted := overall*0.8 + 10

	var quizScores []float64
	for _, topic := range topics {
		if topic.AvgQuizScore > 0 {
			quizScores = append(quizScores, topic.AvgQuizScore)
		}
	}
	if len(quizScores) > 0 {
		var sum float64
		for _, s := range quizScores {
			sum += s
		}
		predicted = (predicted + sum/float64(len(quizScores))) / 2
	}

	if predicted > 95 {
		predicted = 95
	}

	confidence := "Low"
	if len(topics) >= 5 {
		confidence = "Medium"
	}

	return ExamPrediction{
		PredictedPercentage: round1(predicted),
		Confidence:          confidence,
		GradePrediction:     scoreToGrade(predicted),
	}
}

func scoreToGrade(score float64) string {
	switch {
	case score >= 90:
		return "A+ (Outstanding)"
	case score >= 80:
		return "A (Excellent)"
	case score >= 70:
		return "B (Good)"
	case score >= 60:
		return "C (Average)"
	case score >= 50:
		return "D (Below Average)"
	default:
		return "Needs Improvement"
	}
}

func improvementPotential(topics []TopicDetail) ImprovementPotential {
	var sum float64
	weakCount := 0
	for _, topic := range topics {
		sum += topic.Score
		if topic.Category == CategoryWeak || topic.Category == CategoryNotStarted {
			weakCount++
		}
	}

	current := 0.0
	if len(topics) > 0 {
		current = sum / float64(len(topics))
	}

	potential := current + float64(weakCount)*10
	if potential > 95 {
		potential = 95
	}

	return ImprovementPotential{
		CurrentAverage:    round1(current),
		PotentialAverage:  round1(potential),
		ImprovementPoints: round1(100 - current),
		QuickWins:         weakCount,
	}
}

func learningStyle(patterns LearningPatterns) string {
	if patterns.TotalTopics == 0 {
		return "Not enough data"
	}

	total := float64(patterns.TotalTopics)
	deepRatio := float64(patterns.PrefersDeepDive) / total
	quizRatio := float64(patterns.QuizTaker) / total

	switch {
	case deepRatio > 0.7:
		return "Deep Learner - You prefer thorough understanding"
	case quizRatio > 0.7:
		return "Active Learner - You learn by testing"
	case float64(patterns.SurfaceLearner)/total > 0.5:
		return "Quick Learner - Try going deeper for better retention"
	default:
		return "Balanced Learner - Good mix of reading and practice"
	}
}

func consistency(totalActivities int) Consistency {
	var level string
	switch {
	case totalActivities >= 20:
		level = "High"
	case totalActivities >= 10:
		level = "Medium"
	case totalActivities >= 5:
		level = "Low"
	default:
		level = "Just Started"
	}

	message := "Study regularly for best results!"
	if totalActivities >= 10 {
		message = "Keep up the momentum!"
	}

	return Consistency{
		Level:           level,
		TotalActivities: totalActivities,
		Message:         message,
	}
}

func analysisRecommendations(strong, weak, moderate []TopicDetail, patterns LearningPatterns, predictions *Predictions) []string {
	var recommendations []string

	if len(weak) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Focus on '%s' - it needs the most attention", weak[0].Name))
	}
	if len(weak) > 2 {
		recommendations = append(recommendations,
			fmt.Sprintf("You have %d weak topics. Dedicate 30 mins daily to each", len(weak)))
	}

	var noQuizNames []string
	for _, topic := range append(append([]TopicDetail{}, moderate...), weak...) {
		if topic.QuizzesTaken == 0 {
			noQuizNames = append(noQuizNames, topic.Name)
		}
	}
	if len(noQuizNames) > 0 {
		if len(noQuizNames) > 3 {
			noQuizNames = noQuizNames[:3]
		}
		recommendations = append(recommendations,
			fmt.Sprintf("Take quizzes for: %s", strings.Join(noQuizNames, ", ")))
	}

	if len(strong) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Great job on '%s'! Use this confidence to tackle weak areas", strong[0].Name))
	}

	if patterns.SurfaceLearner > patterns.PrefersDeepDive {
		recommendations = append(recommendations,
			"Try 'Deep Dive' explanations for better understanding")
	}

	if predictions.ImprovementPotential.QuickWins > 3 {
		recommendations = append(recommendations,
			"Quick wins available! Even 10 mins on weak topics will boost your score")
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}
