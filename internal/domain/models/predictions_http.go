package models

// Requests for prediction endpoints. Shared by the HTTP, websocket and Kafka entry points.

type PredictionRequest struct {
	Birth          Birth  `json:"birth" validate:"required"`
	StartDate      string `json:"start_date" validate:"required"`
	EndDate        string `json:"end_date" validate:"required"`
	// MinProbability is the floor; nil means the configured default.
	MinProbability *int   `json:"min_probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	RequestID      string `json:"request_id,omitempty"`
}

type StreamSummary struct {
	RunID        string        `json:"run_id"`
	Events       int           `json:"events"`
	Degradations []Degradation `json:"degradations"`
	Done         bool          `json:"done"`
}
