// Package l4scoring owns Layer 4 of the attention data model: per-frame
// engagement and confusion scores and their temporal smoothing.
//
// Scoring is a stateless strategy behind the Scorer interface; the default
// HeuristicScorer applies fixed calibration Weights. Smoothing is a batch
// moving average over the complete scored sequence.
//
// Dependency rule: L4 may depend on L1-L3 only.
package l4scoring
