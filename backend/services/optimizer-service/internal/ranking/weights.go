package ranking

// Criterion is one optimisation axis a user can prioritise.
type Criterion int

const (
	CriterionTime Criterion = iota + 1
	CriterionDistance
	CriterionCost
)

// slotCount is the number of ranked priority slots in a user profile.
const slotCount = 3

// fallbackWeight is applied to every criterion once any slot holds an unrecognised label.
const fallbackWeight = 5.0

// Weights scales each criterion in the station score.
type Weights struct {
	Time     float64 `json:"time"`
	Distance float64 `json:"distance"`
	Cost     float64 `json:"cost"`
}

var labels = map[string]Criterion{
	"Time":      CriterionTime,
	"Tempo":     CriterionTime,
	"Distance":  CriterionDistance,
	"Distância": CriterionDistance,
	"Cost":      CriterionCost,
	"Custo":     CriterionCost,
}

// ParseCriterion maps a priority label to its criterion. Labels match exactly, in English or
// in the Portuguese spelling stored by the profile store.
func ParseCriterion(label string) (Criterion, bool) {
	c, ok := labels[label]
	return c, ok
}

// DeriveWeights turns up to three ranked labels into weights. Slot i (0-based) gives 10-i to
// its criterion, the first slot naming a criterion wins. A single unrecognised or empty label
// resets all three weights to 5, whatever the other slots say.
func DeriveWeights(priorities []string) Weights {
	var w Weights
	assigned := map[Criterion]bool{}
	invalid := false

	for i := 0; i < slotCount && i < len(priorities); i++ {
		c, ok := ParseCriterion(priorities[i])
		if !ok {
			invalid = true
			continue
		}
		if assigned[c] {
			continue
		}
		assigned[c] = true
		weight := float64(10 - i)
		switch c {
		case CriterionTime:
			w.Time = weight
		case CriterionDistance:
			w.Distance = weight
		case CriterionCost:
			w.Cost = weight
		}
	}
	if len(priorities) < slotCount {
		invalid = true
	}

	if invalid {
		return Weights{Time: fallbackWeight, Distance: fallbackWeight, Cost: fallbackWeight}
	}
	return w
}
