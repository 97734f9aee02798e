package vehicles

import (
	"strings"
	"time"
)

// FilterKeys are the list filters recognised for vehicles.
var FilterKeys = []string{"vin", "plate", "make", "model", "owner", "active"}

// Vehicle is a registered vehicle.
type Vehicle struct {
	VIN          string     `json:"vin" validate:"required,len=17,alphanum"`
	Plate        string     `json:"plate" validate:"required,max=16"`
	Make         string     `json:"make" validate:"required,max=64"`
	Model        string     `json:"model" validate:"max=64"`
	Year         int        `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Mileage      int        `json:"mileage" validate:"gte=0"`
	Owner        string     `json:"owner,omitempty" validate:"max=128"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	Active       bool       `json:"active"`
}

func (v Vehicle) Key() string { return v.VIN }

// NormalizeVIN upper-cases a VIN and strips spaces and dashes.
func NormalizeVIN(vin string) string {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	return strings.NewReplacer(" ", "", "-", "").Replace(vin)
}
