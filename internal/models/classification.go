package models

import "time"

// SubVerdictTag tags one sub-classifier's result, folded by the
// ensemble. Abstained is a distinct tag rather than a zero-confidence
// verdict, so the ensemble can tell "voted benign with low confidence"
// apart from "had nothing to say".
type SubVerdictTag string

const (
	TagRules     SubVerdictTag = "rules"
	TagSemantic  SubVerdictTag = "semantic"
	TagLLM       SubVerdictTag = "llm"
	TagAbstained SubVerdictTag = "abstained"
)

// SubResult is one sub-classifier's contribution to the ensemble vote.
type SubResult struct {
	Tag        SubVerdictTag
	Classifier string // which of rules/semantic/llm produced this, even when Tag == abstained
	Verdict    Verdict
	Confidence float64
	Evidence   []string
	Reasoning  string
}

// Abstained reports whether this sub-result carries no vote.
func (r SubResult) Abstained() bool { return r.Tag == TagAbstained }

// ClassificationResult is the ensemble's adjudication of a significant
// change, persisted onto the triggering Snapshot.
type ClassificationResult struct {
	Verdict         Verdict
	Confidence      float64
	Reasoning       string
	SubResults      []SubResult
	WeightsUsed     map[string]float64
	ProcessingTime  time.Duration
}
