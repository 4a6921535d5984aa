package model

// Service is a bookable studio offering.
type Service struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Price       int    `json:"price" yaml:"price"`
	Duration    int    `json:"duration" yaml:"duration"` // minutes
	Category    string `json:"category" yaml:"category"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
}

// TimeSlot is one entry of a computed daily schedule.
type TimeSlot struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	IsAvailable bool   `json:"is_available"`
	ServiceID   string `json:"service_id,omitempty"`
}
