package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLeadExpireSweep = "leads:expire_sweep"

// LeadExpireSweepPayload carries the stale window. Zero means the window
// configured on the leads module.
type LeadExpireSweepPayload struct {
	MaxAgeMinutes int `json:"maxAgeMinutes"`
}

func (p LeadExpireSweepPayload) MaxAge() time.Duration {
	return time.Duration(p.MaxAgeMinutes) * time.Minute
}

func NewLeadExpireSweepTask(payload LeadExpireSweepPayload) (*asynq.Task, error) {
	if payload.MaxAgeMinutes < 0 {
		return nil, fmt.Errorf("invalid max age %d", payload.MaxAgeMinutes)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadExpireSweep, data), nil
}

func ParseLeadExpireSweepPayload(task *asynq.Task) (LeadExpireSweepPayload, error) {
	var payload LeadExpireSweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadExpireSweepPayload{}, err
	}
	if payload.MaxAgeMinutes < 0 {
		return LeadExpireSweepPayload{}, fmt.Errorf("invalid max age %d", payload.MaxAgeMinutes)
	}
	return payload, nil
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
