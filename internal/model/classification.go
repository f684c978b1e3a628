package model

// ClassificationStage identifies which cascade stage produced a result.
type ClassificationStage string

// Classification stage constants, in cascade order.
const (
	StageLearned ClassificationStage = "learned"
	StageKeyword ClassificationStage = "keyword"
	StageAmount  ClassificationStage = "amount"
	StageFuzzy   ClassificationStage = "fuzzy"
	StageDefault ClassificationStage = "default"
)

// Classification is the outcome of classifying one description.
type Classification struct {
	Category   string              `json:"category"`
	Reason     string              `json:"reason"`
	Stage      ClassificationStage `json:"stage"`
	Confidence int                 `json:"confidence"`
}

// Apply copies the classification onto a transaction.
func (c Classification) Apply(txn *Transaction) {
	txn.Category = c.Category
	txn.CategoryConfidence = c.Confidence
	txn.CategoryReason = c.Reason
}
