package models

import "encoding/json"

// SubmitResponse is returned when a document is accepted for checking
type SubmitResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// ResultResponse is returned when polling a task
type ResultResponse struct {
	TaskID string      `json:"task_id"`
	Status TaskStatus  `json:"status"`
	Report *TaskReport `json:"report"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MarshalJSON writes whichever payload is present, or null
func (r *TaskReport) MarshalJSON() ([]byte, error) {
	switch {
	case r == nil:
		return []byte("null"), nil
	case r.Compliance != nil:
		return json.Marshal(r.Compliance)
	case r.Error != nil:
		return json.Marshal(r.Error)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON tells an error payload apart from a compliance report by its keys
func (r *TaskReport) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return nil
	}
	if _, ok := fields["summary"]; ok {
		var report ComplianceReport
		if err := json.Unmarshal(data, &report); err != nil {
			return err
		}
		r.Compliance = &report
		return nil
	}
	var errReport ErrorReport
	if err := json.Unmarshal(data, &errReport); err != nil {
		return err
	}
	r.Error = &errReport
	return nil
}
