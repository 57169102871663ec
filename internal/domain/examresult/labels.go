package examresult

import (
	"fmt"
	"sort"
)

// labelIndex walks history in submission order, numbering roots 1, 2, 3...
// and counting retakes per root.
type labelIndex struct {
	labels   map[int64]string
	rootNum  map[int64]int
	subCount map[int64]int
	nextRoot int
}

func buildLabelIndex(history []ExamResult) *labelIndex {
	sorted := make([]ExamResult, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	idx := &labelIndex{
		labels:   make(map[int64]string, len(history)),
		rootNum:  make(map[int64]int),
		subCount: make(map[int64]int),
		nextRoot: 1,
	}

	for _, exam := range sorted {
		if exam.IsRetake() {
			parent := *exam.ParentExamID
			if num, ok := idx.rootNum[parent]; ok {
				idx.subCount[parent]++
				idx.labels[exam.ID] = fmt.Sprintf("%d.%d", num, idx.subCount[parent])
				continue
			}
		}
		// Roots, and retakes whose root is no longer in history.
		num := idx.nextRoot
		idx.nextRoot++
		idx.rootNum[exam.ID] = num
		idx.subCount[exam.ID] = 0
		idx.labels[exam.ID] = fmt.Sprintf("%d", num)
	}
	return idx
}

// Labels maps each result id to its display label: "1", "2"... for roots
// and "<root>.<k>" for the k-th retake of a root.
func Labels(history []ExamResult) map[int64]string {
	return buildLabelIndex(history).labels
}

// NextLabel is the heading of a quiz about to start. parent is the root id
// for retakes, nil otherwise.
func NextLabel(history []ExamResult, parent *int64) string {
	idx := buildLabelIndex(history)
	if parent == nil {
		return fmt.Sprintf("Exam %d", idx.nextRoot)
	}
	num, ok := idx.rootNum[*parent]
	if !ok {
		return "Retake"
	}
	return fmt.Sprintf("Exam %d.%d", num, idx.subCount[*parent]+1)
}
