package pipeline

import (
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// IntakeStatus represents the triage state of an inbound request
type IntakeStatus string

const (
	IntakeStatusNew       IntakeStatus = "new"
	IntakeStatusTriaged   IntakeStatus = "triaged"
	IntakeStatusConverted IntakeStatus = "converted"
	IntakeStatusRejected  IntakeStatus = "rejected"
)

// IntakeRequest is an inbound request (contact form, referral, API submission)
// waiting to be routed into a pipeline.
type IntakeRequest struct {
	shared.OrgAggregateRoot
	Name           string
	Email          string
	Company        string
	Message        string
	Source         string // web, email, referral, api
	Status         IntakeStatus
	PipelineID     *uuid.UUID // set at triage
	TaskID         *uuid.UUID // set at conversion
	TriagedBy      *uuid.UUID
	TriagedAt      *time.Time
	RejectedReason string
}

// NewIntakeRequest creates a new intake request
func NewIntakeRequest(orgID uuid.UUID, name, email, company, message, source string) (*IntakeRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name must be 1-200 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailish(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	if len(message) > 10000 {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 10000 characters")
	}
	if source == "" {
		source = "web"
	}

	req := &IntakeRequest{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Name:             name,
		Email:            email,
		Company:          strings.TrimSpace(company),
		Message:          message,
		Source:           source,
		Status:           IntakeStatusNew,
	}
	req.AddDomainEvent(NewIntakeReceivedEvent(req))
	return req, nil
}

// Triage routes the request to a pipeline without converting it yet
func (r *IntakeRequest) Triage(pipelineID uuid.UUID, by *uuid.UUID) error {
	if r.Status != IntakeStatusNew && r.Status != IntakeStatusTriaged {
		return shared.NewDomainError("INVALID_STATE", "Request has already been resolved")
	}
	now := time.Now()
	r.Status = IntakeStatusTriaged
	r.PipelineID = &pipelineID
	r.TriagedBy = by
	r.TriagedAt = &now
	r.Touch()
	r.IncrementVersion()
	return nil
}

// MarkConverted records the task created from this request
func (r *IntakeRequest) MarkConverted(taskID uuid.UUID) error {
	if r.Status != IntakeStatusTriaged {
		return shared.NewDomainError("INVALID_STATE", "Request must be triaged before conversion")
	}
	r.Status = IntakeStatusConverted
	r.TaskID = &taskID
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewIntakeConvertedEvent(r))
	return nil
}

// Reject closes the request without creating a task
func (r *IntakeRequest) Reject(reason string) error {
	if r.Status == IntakeStatusConverted || r.Status == IntakeStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Request has already been resolved")
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_INPUT", "Rejection reason cannot exceed 500 characters")
	}
	r.Status = IntakeStatusRejected
	r.RejectedReason = reason
	r.Touch()
	r.IncrementVersion()
	return nil
}

func emailish(email string) bool {
	at := strings.Index(email, "@")
	dot := strings.LastIndex(email, ".")
	return at > 0 && dot > at+1 && dot < len(email)-1 && len(email) <= 200
}
