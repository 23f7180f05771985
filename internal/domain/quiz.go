package domain

// Dimension is one of the five emotion scales the pre-chat quiz measures.
type Dimension string

const (
	DimHappiness  Dimension = "happiness"
	DimAnger      Dimension = "anger"
	DimStress     Dimension = "stress"
	DimEnergy     Dimension = "energy"
	DimConfidence Dimension = "confidence"
)

// Dimensions is the fixed question order of the quiz.
var Dimensions = []Dimension{DimHappiness, DimAnger, DimStress, DimEnergy, DimConfidence}

var dimensionQuestions = map[Dimension]string{
	DimHappiness:  "How happy are you right now?",
	DimAnger:      "How angry are you right now?",
	DimStress:     "How stressed are you right now?",
	DimEnergy:     "How energized are you right now?",
	DimConfidence: "How confident are you right now?",
}

// Question returns the prompt shown for a dimension.
func (d Dimension) Question() string {
	return dimensionQuestions[d]
}

// QuizAnswers maps each emotion dimension to a 1-5 rating.
type QuizAnswers map[Dimension]int

// Complete reports whether all five dimensions carry a valid rating.
func (q QuizAnswers) Complete() bool {
	if len(q) != len(Dimensions) {
		return false
	}
	for _, d := range Dimensions {
		v, ok := q[d]
		if !ok || v < 1 || v > 5 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy so callers cannot mutate machine state.
func (q QuizAnswers) Clone() QuizAnswers {
	out := make(QuizAnswers, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}
