package classifier

import (
	"fmt"
	"strings"

	"stocksense/internal/types"
)

// ClassMetrics holds per-class evaluation scores.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes held-out performance per class.
type Report struct {
	Accuracy float64                      `json:"accuracy"`
	Classes  []types.Label                `json:"classes"`
	PerClass map[types.Label]ClassMetrics `json:"per_class"`
}

// Accuracy is the fraction of exact label matches.
func Accuracy(yTrue, yPred []types.Label) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

// Evaluate computes accuracy plus precision, recall and F1 for every
// class present in the true labels.
func Evaluate(yTrue, yPred []types.Label) Report {
	report := Report{
		Accuracy: Accuracy(yTrue, yPred),
		Classes:  distinctLabels(yTrue),
		PerClass: make(map[types.Label]ClassMetrics),
	}

	for _, class := range report.Classes {
		var tp, fp, fn int
		for i := range yTrue {
			predicted := yPred[i] == class
			actual := yTrue[i] == class
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && actual:
				fn++
			}
		}

		m := ClassMetrics{Support: tp + fn}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerClass[class] = m
	}
	return report
}

// String renders the report as an aligned table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %9s %9s %9s %9s\n", "", "precision", "recall", "f1", "support")
	for _, class := range r.Classes {
		m := r.PerClass[class]
		fmt.Fprintf(&b, "%-8s %9.2f %9.2f %9.2f %9d\n",
			string(class), m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "%-8s %39.2f\n", "accuracy", r.Accuracy)
	return b.String()
}
