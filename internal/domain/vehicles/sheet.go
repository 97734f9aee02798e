package vehicles

import (
	"strconv"

	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

// SheetRow is the spreadsheet layout of a vehicle.
type SheetRow struct {
	VIN          string `csv:"VIN"`
	Plate        string `csv:"Plate"`
	Make         string `csv:"Make"`
	Model        string `csv:"Model"`
	Year         string `csv:"Year"`
	Mileage      string `csv:"Mileage (km)"`
	Owner        string `csv:"Owner"`
	RegisteredAt string `csv:"Registered"`
	Active       string `csv:"Active"`
}

// Sheet maps vehicles to and from spreadsheets.
var Sheet = tabular.Layout[Vehicle, SheetRow]{
	To:              toSheet,
	From:            fromSheet,
	RequiredColumns: []string{"VIN", "Plate", "Make"},
}

func toSheet(v Vehicle) SheetRow {
	year := tabular.Placeholder
	if v.Year > 0 {
		year = strconv.Itoa(v.Year)
	}
	return SheetRow{
		VIN:          v.VIN,
		Plate:        tabular.OrDash(v.Plate),
		Make:         tabular.OrDash(v.Make),
		Model:        tabular.OrDash(v.Model),
		Year:         year,
		Mileage:      tabular.FormatInt(v.Mileage),
		Owner:        tabular.OrDash(v.Owner),
		RegisteredAt: tabular.FormatDate(v.RegisteredAt),
		Active:       tabular.FormatBool(v.Active),
	}
}

func fromSheet(s SheetRow) (Vehicle, error) {
	year, err := tabular.ParseInt(s.Year)
	if err != nil {
		return Vehicle{}, tabular.Invalid("Year", "%q is not a year", s.Year)
	}
	mileage, err := tabular.ParseInt(s.Mileage)
	if err != nil {
		return Vehicle{}, tabular.Invalid("Mileage (km)", "%q is not a number", s.Mileage)
	}
	registered, err := tabular.ParseDate(s.RegisteredAt)
	if err != nil {
		return Vehicle{}, tabular.Invalid("Registered", "%q is not a date", s.RegisteredAt)
	}
	active, err := tabular.ParseBool(s.Active)
	if err != nil {
		return Vehicle{}, tabular.Invalid("Active", "%q is not Yes or No", s.Active)
	}
	return Vehicle{
		VIN:          NormalizeVIN(s.VIN),
		Plate:        tabular.Text(s.Plate),
		Make:         tabular.Text(s.Make),
		Model:        tabular.Text(s.Model),
		Year:         year,
		Mileage:      mileage,
		Owner:        tabular.Text(s.Owner),
		RegisteredAt: registered,
		Active:       active,
	}, nil
}
