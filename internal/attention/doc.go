// Package attention groups the layers that turn per-frame facial landmarks
// into engagement and confusion signals.
//
// Layers, leaves first:
//
//	l1landmarks  landmark sets and named point groups (detector topology)
//	l2geometry   head pose, eye/mouth aspect ratios, gaze proxy
//	l3features   immutable per-frame feature records and sequence checks
//	l4scoring    engagement/confusion scoring and temporal smoothing
//	l5aggregate  heatmap bins, confusion events, summaries and notes
//
// Dependency rule: a layer may import lower layers only. No SQL, file or
// network I/O is allowed in l1-l5; persistence lives in storage/sqlite and
// artifacts, orchestration in pipeline.
package attention
