package usecase

import (
	"fmt"
	"sort"
	"strings"

	"docchat/internal/domain"
)

// ContextFormatter assembles selected passages into a citation-tagged
// text block bounded by a character budget.
type ContextFormatter struct {
	budget int
}

func NewContextFormatter(budget int) *ContextFormatter {
	return &ContextFormatter{budget: budget}
}

// Format sorts passages by similarity descending and renders numbered
// source blocks until the next whole block would overflow the budget.
// Passages are never truncated mid-block; the rest are dropped.
//
// The returned slice holds the passages actually rendered, in citation
// order: the 1-based index of a passage in it matches the [Source N]
// header in the text, so citations in a model answer are verifiable.
func (f *ContextFormatter) Format(passages []domain.Passage) (string, []domain.Passage) {
	if len(passages) == 0 {
		return "", nil
	}

	sorted := make([]domain.Passage, len(passages))
	copy(sorted, passages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	var sb strings.Builder
	var included []domain.Passage

	for _, p := range sorted {
		block := fmt.Sprintf("[Source %d] (%s)\n%s\n\n", len(included)+1, p.DocName, p.Content)
		if sb.Len()+len(block) > f.budget {
			break
		}
		sb.WriteString(block)
		included = append(included, p)
	}

	return sb.String(), included
}
