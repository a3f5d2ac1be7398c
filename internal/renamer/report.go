package renamer

import "math"

// Pipeline names reported in Report.Pipeline.
const (
	PipelineFull   = "full"
	PipelineSimple = "simple"
)

// Outcome classifies what happened to one widget's name.
type Outcome int

const (
	// Unchanged means no rename was attempted.
	Unchanged Outcome = iota
	// Renamed means the document mutation succeeded.
	Renamed
	// RenameFailed means a rename was attempted and the document rejected it.
	// The record keeps the original name.
	RenameFailed
)

// MappingRecord is the audit entry for one widget.
type MappingRecord struct {
	Page         int    `json:"page"` // 1-based
	OriginalName string `json:"original_name"`
	NewName      string `json:"new_name"`
	Context      string `json:"context"`
	Label        string `json:"label"`
	Tooltip      string `json:"tooltip,omitempty"`
	Reason       string `json:"reason,omitempty"` // why the resolver kept or renamed the name
	Error        string `json:"error,omitempty"`
}

// Report summarizes one processed document.
type Report struct {
	MappingInfo       []MappingRecord `json:"mapping_info"`
	TotalWidgets      int             `json:"total_widgets"`
	ChangedWidgets    int             `json:"changed_widgets"`
	UnchangedWidgets  int             `json:"unchanged_widgets"`
	SuccessfulRenames int             `json:"successful_renames"`
	FailedRenames     int             `json:"failed_renames"`
	Accuracy          float64         `json:"accuracy"`
	SuccessRate       float64         `json:"success_rate"`
	Pipeline          string          `json:"pipeline"`
}

// Aggregator accumulates records in processing order.
type Aggregator struct {
	pipeline   string
	records    []MappingRecord
	unchanged  int
	successful int
	failed     int
}

// NewAggregator starts an empty tally for the named pipeline.
func NewAggregator(pipeline string) *Aggregator {
	return &Aggregator{pipeline: pipeline, records: make([]MappingRecord, 0)}
}

// Add records one widget.
func (a *Aggregator) Add(rec MappingRecord, outcome Outcome) {
	a.records = append(a.records, rec)
	switch outcome {
	case Unchanged:
		a.unchanged++
	case Renamed:
		a.successful++
	case RenameFailed:
		a.failed++
	}
}

// Report computes the summary. Accuracy is the unchanged share of all
// widgets and SuccessRate the successful share of attempted renames, both as
// percentages rounded to two decimals and 0 when their denominator is 0.
func (a *Aggregator) Report() *Report {
	total := len(a.records)
	changed := total - a.unchanged

	records := make([]MappingRecord, len(a.records))
	copy(records, a.records)

	return &Report{
		MappingInfo:       records,
		TotalWidgets:      total,
		ChangedWidgets:    changed,
		UnchangedWidgets:  a.unchanged,
		SuccessfulRenames: a.successful,
		FailedRenames:     a.failed,
		Accuracy:          percent(a.unchanged, total),
		SuccessRate:       percent(a.successful, changed),
		Pipeline:          a.pipeline,
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
