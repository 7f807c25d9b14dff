package scheduling

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService manages availability rules and exposes the pure
// availability engine: slot suggestion and day load reports.
type AvailabilityService struct {
	ruleRepo  scheduling.AvailabilityRuleRepository
	eventRepo scheduling.EventRepository
	logger    *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(
	ruleRepo scheduling.AvailabilityRuleRepository,
	eventRepo scheduling.EventRepository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		ruleRepo:  ruleRepo,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

// CreateWeeklyRule adds a weekly availability window
func (s *AvailabilityService) CreateWeeklyRule(ctx context.Context, orgID uuid.UUID, req CreateWeeklyRuleRequest) (*RuleResponse, error) {
	rule, err := scheduling.NewWeeklyRule(orgID, req.Label, time.Weekday(req.Weekday), req.StartMinute, req.EndMinute, req.Timezone)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	response := ToRuleResponse(rule)
	return &response, nil
}

// CreateBlackoutRule adds a blackout date
func (s *AvailabilityService) CreateBlackoutRule(ctx context.Context, orgID uuid.UUID, req CreateBlackoutRuleRequest) (*RuleResponse, error) {
	rule, err := scheduling.NewBlackoutRule(orgID, req.Label, req.Date, req.Timezone)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	response := ToRuleResponse(rule)
	return &response, nil
}

// GetRule retrieves a rule by ID
func (s *AvailabilityService) GetRule(ctx context.Context, orgID, ruleID uuid.UUID) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, orgID, ruleID)
	if err != nil {
		return nil, err
	}
	response := ToRuleResponse(rule)
	return &response, nil
}

// ListRules retrieves all rules for an organization
func (s *AvailabilityService) ListRules(ctx context.Context, orgID uuid.UUID) ([]RuleResponse, error) {
	rules, err := s.ruleRepo.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return ToRuleResponses(rules), nil
}

// UpdateRule changes a rule's window, label or active flag
func (s *AvailabilityService) UpdateRule(ctx context.Context, orgID, ruleID uuid.UUID, req UpdateRuleRequest) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, orgID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Weekday != nil || req.StartMinute != nil || req.EndMinute != nil {
		if rule.Kind != scheduling.RuleKindWeekly {
			return nil, shared.NewDomainError("INVALID_STATE", "only weekly rules have a window")
		}
		weekday := rule.Weekday
		if req.Weekday != nil {
			weekday = time.Weekday(*req.Weekday)
		}
		startMinute := rule.StartMinute
		if req.StartMinute != nil {
			startMinute = *req.StartMinute
		}
		endMinute := rule.EndMinute
		if req.EndMinute != nil {
			endMinute = *req.EndMinute
		}
		if err := rule.UpdateWindow(weekday, startMinute, endMinute); err != nil {
			return nil, err
		}
	}
	if req.Label != nil {
		rule.Rename(*req.Label)
	}
	if req.Active != nil {
		if *req.Active {
			rule.Enable()
		} else {
			rule.Disable()
		}
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	response := ToRuleResponse(rule)
	return &response, nil
}

// DeleteRule removes a rule
func (s *AvailabilityService) DeleteRule(ctx context.Context, orgID, ruleID uuid.UUID) error {
	if _, err := s.ruleRepo.FindByID(ctx, orgID, ruleID); err != nil {
		return err
	}
	return s.ruleRepo.Delete(ctx, orgID, ruleID)
}

// SuggestSlots returns scored free slots within the requested range
func (s *AvailabilityService) SuggestSlots(ctx context.Context, orgID uuid.UUID, req SuggestSlotsRequest) ([]SlotResponse, error) {
	rules, err := s.ruleRepo.FindActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	busy, err := s.eventRepo.FindBusyInRange(ctx, orgID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	slots, err := scheduling.SuggestSlots(scheduling.SlotRequest{
		From:     req.From,
		To:       req.To,
		Duration: time.Duration(req.DurationMinutes) * time.Minute,
		Step:     time.Duration(req.StepMinutes) * time.Minute,
		Limit:    req.Limit,
	}, rules, busy)
	if err != nil {
		return nil, err
	}
	return ToSlotResponses(slots), nil
}

// DayLoad reports booking pressure for one calendar day
func (s *AvailabilityService) DayLoad(ctx context.Context, orgID uuid.UUID, day time.Time) (*DayLoadResponse, error) {
	rules, err := s.ruleRepo.FindActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	busy, err := s.eventRepo.FindBusyInRange(ctx, orgID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	load := scheduling.ComputeDayLoad(dayStart, rules, busy)
	response := ToDayLoadResponse(load)
	return &response, nil
}

// RangeLoad reports booking pressure for each day in [from, to)
func (s *AvailabilityService) RangeLoad(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]DayLoadResponse, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "range end must be after range start")
	}
	if to.Sub(from) > 62*24*time.Hour {
		return nil, shared.NewDomainError("INVALID_INPUT", "load range must not exceed 62 days")
	}

	rules, err := s.ruleRepo.FindActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	busy, err := s.eventRepo.FindBusyInRange(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]DayLoadResponse, 0)
	for day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC); day.Before(to); day = day.AddDate(0, 0, 1) {
		out = append(out, ToDayLoadResponse(scheduling.ComputeDayLoad(day, rules, busy)))
	}
	return out, nil
}
