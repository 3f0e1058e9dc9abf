package model

// ServiceCenter is a workshop that accepts maintenance appointments. Centers
// come from static configuration and never change at runtime.
type ServiceCenter struct {
	ID   string `json:"center_id" yaml:"id" toml:"id"`
	Name string `json:"center_name" yaml:"name" toml:"name"`
}
