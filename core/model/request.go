package model

import (
	"strings"
	"time"
)

// MaintenanceItem is one predicted component issue. Urgency is carried
// through scheduling but does not influence slot assignment.
type MaintenanceItem struct {
	Component string `json:"component" yaml:"component"`
	Urgency   string `json:"urgency" yaml:"urgency"`
}

// MaintenanceRequest asks for a service slot on behalf of a vehicle.
type MaintenanceRequest struct {
	VehicleID   string            `json:"vehicle_id" yaml:"vehicle_id"`
	Owner       Owner             `json:"owner" yaml:"owner"`
	ServiceType string            `json:"service_type,omitempty" yaml:"service_type"`
	Items       []MaintenanceItem `json:"predicted_maintenance" yaml:"predicted_maintenance"`
	SubmittedAt time.Time         `json:"request_time" yaml:"request_time"`
}

// Components joins the predicted components into a short note.
func (r MaintenanceRequest) Components() string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Component != "" {
			parts = append(parts, it.Component)
		}
	}
	return strings.Join(parts, ", ")
}
