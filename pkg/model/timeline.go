package model

import "time"

// RowKind tells what a timeline row stands for.
type RowKind string

const (
	RowHeader  RowKind = "header"
	RowTask    RowKind = "task"
	RowSubtask RowKind = "subtask"
)

// TextAnchor is a placement hint for the row's display text.
type TextAnchor string

const (
	AnchorInside  TextAnchor = "inside"
	AnchorOutside TextAnchor = "outside"
)

// TimelineRow is one renderable span of the aggregated timeline.
type TimelineRow struct {
	Kind        RowKind    `json:"kind"`
	GroupLabel  string     `json:"group_label"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Project     string     `json:"project"`
	Assignee    string     `json:"assignee"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DisplayText string     `json:"display_text"`
	TextAnchor  TextAnchor `json:"text_anchor"`
	Color       string     `json:"color,omitempty"`
	TaskID      string     `json:"task_id,omitempty"`
	ParentID    string     `json:"parent_id,omitempty"`
}
