package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutboxDispatch = "inbox.outbox.dispatch"

const TaskInquiryFollowUp = "inbox.inquiry.followup"

type OutboxDispatchPayload struct {
	OutboxID       string `json:"outboxId"`
	OrganizationID string `json:"organizationId"`
}

type InquiryFollowUpPayload struct {
	OrganizationID string `json:"organizationId"`
	CustomerPhone  string `json:"customerPhone"`
}

func NewOutboxDispatchTask(payload OutboxDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboxDispatch, data), nil
}

func ParseOutboxDispatchPayload(task *asynq.Task) (OutboxDispatchPayload, error) {
	var payload OutboxDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutboxDispatchPayload{}, err
	}
	return payload, nil
}

func NewInquiryFollowUpTask(payload InquiryFollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInquiryFollowUp, data), nil
}

func ParseInquiryFollowUpPayload(task *asynq.Task) (InquiryFollowUpPayload, error) {
	var payload InquiryFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InquiryFollowUpPayload{}, err
	}
	return payload, nil
}
