package domain

import "time"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// ContentEvent announces one committed row to downstream consumers.
type ContentEvent struct {
	Action    Action    `json:"action"`
	Kind      Kind      `json:"kind"`
	Key       string    `json:"key"`
	RunID     string    `json:"run_id"`
	Record    any       `json:"record"`
	Timestamp time.Time `json:"timestamp"`
}

func ActionFor(inserted bool) Action {
	if inserted {
		return ActionCreate
	}
	return ActionUpdate
}
