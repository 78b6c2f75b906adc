package edgerules

import (
	"github.com/edgerules/edgerules/internal/decisionservice"
)

// DecisionService is the public handle onto the stateful decision-service
// façade (spec.md §6's six decision-service entry points), backed by
// internal/decisionservice.Service.
type DecisionService struct {
	inner *decisionservice.Service
}

// CreateDecisionService builds a decision service from a portable,
// JSON-shaped model (internal/model's format).
func CreateDecisionService(model []byte) (*DecisionService, *Error) {
	svc, err := decisionservice.Create(model, registry())
	if err != nil {
		return nil, wrapError("DecisionServiceError", err.Error(), nil)
	}
	return &DecisionService{inner: svc}, nil
}

// SetModel replaces or inserts the value at a dotted path and recompiles
// the underlying model.
func (s *DecisionService) SetModel(path string, value any) *Error {
	if err := s.inner.Set(path, value); err != nil {
		return wrapError("DecisionServiceError", err.Error(), []string{path})
	}
	return nil
}

// GetModel returns a portable snapshot of the subtree at path.
func (s *DecisionService) GetModel(path string) (any, *Error) {
	v, err := s.inner.Get(path)
	if err != nil {
		return nil, wrapError("DecisionServiceError", err.Error(), []string{path})
	}
	return v, nil
}

// RemoveModel drops the field at path and recompiles the underlying model.
func (s *DecisionService) RemoveModel(path string) *Error {
	if err := s.inner.Remove(path); err != nil {
		return wrapError("DecisionServiceError", err.Error(), []string{path})
	}
	return nil
}

// GetDecisionServiceModel returns the full portable model as canonical
// JSON.
func (s *DecisionService) GetDecisionServiceModel() ([]byte, *Error) {
	data, err := s.inner.Model()
	if err != nil {
		return nil, wrapError("DecisionServiceError", err.Error(), nil)
	}
	return data, nil
}

// Execute binds request to function's first parameter and returns its
// portable result.
func (s *DecisionService) Execute(function string, request any) (any, *Error) {
	result, err := s.inner.Execute(function, request)
	if err != nil {
		return nil, wrapError("DecisionServiceError", err.Error(), []string{function})
	}
	return result, nil
}
