// Package carbon holds the emission-factor tables and the footprint
// arithmetic that downstream accounting applies to extracted invoices.
// The tables are read-only process-wide data; all operations are pure.
package carbon

import (
	"math"
	"strings"
	"time"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/invoice"
)

// Factor is one emission coefficient with its provenance.
type Factor struct {
	Activity    string  `json:"activity"`
	Factor      float64 `json:"factor"` // kg CO2 per Unit
	Unit        string  `json:"unit"`
	Source      string  `json:"source"`
	Reliability float64 `json:"reliability"` // 0-1
}

// transportFactors is kg CO2 per km.
var transportFactors = map[string]Factor{
	"walking":              {"walking", 0.0, "km", "IPCC", 1.0},
	"cycling":              {"cycling", 0.0, "km", "IPCC", 1.0},
	"driving_gasoline":     {"driving_gasoline", 0.192, "km", "EPA", 0.9},
	"driving_diesel":       {"driving_diesel", 0.171, "km", "EPA", 0.9},
	"driving_electric":     {"driving_electric", 0.053, "km", "EPA", 0.8},
	"bus":                  {"bus", 0.089, "km", "IPCC", 0.9},
	"train":                {"train", 0.041, "km", "IPCC", 0.9},
	"metro":                {"metro", 0.041, "km", "IPCC", 0.9},
	"flight_domestic":      {"flight_domestic", 0.285, "km", "IPCC", 0.9},
	"flight_international": {"flight_international", 0.255, "km", "IPCC", 0.9},
}

// energyFactors is kg CO2 per consumption unit.
var energyFactors = map[string]Factor{
	"electricity": {"electricity_taiwan", 0.509, "kWh", "Taipower", 0.95},
	"natural_gas": {"natural_gas", 1.96, "m3", "IPCC", 0.9},
	"lpg":         {"lpg", 1.51, "kg", "IPCC", 0.9},
}

// foodFactors is kg CO2 per kg of food.
var foodFactors = map[string]float64{
	"beef": 27.0, "pork": 12.1, "chicken": 6.9, "fish": 5.1,
	"dairy": 3.2, "eggs": 4.2, "rice": 2.7, "wheat": 1.4,
	"vegetables": 0.4, "fruits": 0.4, "nuts": 0.3, "legumes": 0.6,
}

// categoryFactors is kg CO2 per NT$100 of spending per product category.
var categoryFactors = map[string]float64{
	"food": 0.8, "clothing": 1.2, "electronics": 2.5, "home": 1.5,
	"health": 1.0, "beauty": 1.8, "sports": 1.3, "books": 0.6,
	"toys": 1.4, "automotive": 3.0, "garden": 0.9, "office": 1.1,
	"other": 1.0,
}

const (
	// averageSpendFactor applies when an invoice has no itemized categories:
	// 1% of the spent amount as kg CO2.
	averageSpendFactor = 0.01

	// averageFoodFactor applies to food items with no table match.
	averageFoodFactor = 2.0

	// unknownTransportFactor applies to unrecognized transport modes.
	unknownTransportFactor = 0.1
)

// ShoppingItem is one categorized purchase for footprint attribution.
type ShoppingItem struct {
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Shopping attributes emissions to a purchase. With no itemized categories it
// falls back to the average spending factor over the invoice total.
func Shopping(totalAmount float64, items []ShoppingItem) float64 {
	if len(items) == 0 {
		return totalAmount * averageSpendFactor
	}

	total := 0.0
	for _, item := range items {
		factor, ok := categoryFactors[item.Category]
		if !ok {
			factor = categoryFactors["other"]
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		total += item.Price * float64(quantity) * factor / 100.0
	}
	return total
}

// FromInvoice estimates the footprint of an extracted invoice record. Line
// items carry no category information, so spending is attributed through the
// average factor; this is exactly the accounting the OCR pipeline feeds.
func FromInvoice(record invoice.Record) float64 {
	return Shopping(record.TotalAmount, nil)
}

// Transportation computes travel emissions. Car trips divide by the number of
// passengers sharing the ride.
func Transportation(mode string, distanceKM float64, passengers int, vehicle string) float64 {
	switch mode {
	case "walking", "cycling":
		return 0
	case "driving":
		key := "driving_" + vehicle
		factor, ok := transportFactors[key]
		if !ok {
			factor = transportFactors["driving_gasoline"]
		}
		if passengers < 1 {
			passengers = 1
		}
		return distanceKM * factor.Factor / float64(passengers)
	case "bus", "train", "metro":
		return distanceKM * transportFactors[mode].Factor
	case "flight_domestic", "flight_international":
		return distanceKM * transportFactors[mode].Factor
	default:
		return distanceKM * unknownTransportFactor
	}
}

// Food computes emissions for weighed food. The type match is a substring
// lookup so "organic beef" still resolves to the beef factor.
func Food(foodType string, weightKG float64) float64 {
	lower := strings.ToLower(foodType)
	for key, factor := range foodFactors {
		if strings.Contains(lower, key) {
			return weightKG * factor
		}
	}
	return weightKG * averageFoodFactor
}

// Energy computes emissions for utility consumption.
func Energy(energyType string, consumption float64) float64 {
	factor, ok := energyFactors[energyType]
	if !ok {
		return 0
	}
	return consumption * factor.Factor
}

// Activity is one unit of carbon-relevant behavior posted for calculation.
type Activity struct {
	Type        string         `json:"type"` // transportation, shopping, food, energy
	Mode        string         `json:"mode,omitempty"`
	Vehicle     string         `json:"vehicle_type,omitempty"`
	DistanceKM  float64        `json:"distance,omitempty"`
	Passengers  int            `json:"passengers,omitempty"`
	TotalAmount float64        `json:"total_amount,omitempty"`
	Items       []ShoppingItem `json:"items,omitempty"`
	FoodType    string         `json:"food_type,omitempty"`
	WeightKG    float64        `json:"weight,omitempty"`
	EnergyType  string         `json:"energy_type,omitempty"`
	Consumption float64        `json:"consumption,omitempty"`
}

// Result is the calculated footprint for one activity.
type Result struct {
	CarbonFootprint float64   `json:"carbon_footprint"` // kg CO2, 3 decimals
	ActivityType    string    `json:"activity_type"`
	Method          string    `json:"calculation_method"`
	Confidence      float64   `json:"confidence"`
	Timestamp       time.Time `json:"timestamp"`
}

// Footprint dispatches an activity to its calculator. Unknown activity types
// yield a zero footprint rather than an error.
func Footprint(activity Activity) Result {
	var emission float64
	switch activity.Type {
	case "transportation":
		emission = Transportation(activity.Mode, activity.DistanceKM, activity.Passengers, activity.Vehicle)
	case "shopping":
		emission = Shopping(activity.TotalAmount, activity.Items)
	case "food":
		emission = Food(activity.FoodType, activity.WeightKG)
	case "energy":
		emission = Energy(activity.EnergyType, activity.Consumption)
	}

	return Result{
		CarbonFootprint: round3(emission),
		ActivityType:    activity.Type,
		Method:          "standard_emission_factors",
		Confidence:      0.8,
		Timestamp:       time.Now().UTC(),
	}
}

// DailySummary aggregates a day's activities with a per-type breakdown.
type DailySummary struct {
	TotalEmission float64            `json:"total_emission"`
	Breakdown     map[string]float64 `json:"breakdown"`
	ActivityCount int                `json:"activity_count"`
	Average       float64            `json:"average_per_activity"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Daily sums the footprint of a day's activities.
func Daily(activities []Activity) DailySummary {
	breakdown := map[string]float64{
		"transportation": 0, "shopping": 0, "food": 0, "energy": 0, "other": 0,
	}

	total := 0.0
	for _, activity := range activities {
		emission := Footprint(activity).CarbonFootprint
		total += emission
		if _, ok := breakdown[activity.Type]; ok {
			breakdown[activity.Type] += emission
		} else {
			breakdown["other"] += emission
		}
	}

	for key, value := range breakdown {
		breakdown[key] = round3(value)
	}

	average := 0.0
	if len(activities) > 0 {
		average = round3(total / float64(len(activities)))
	}

	return DailySummary{
		TotalEmission: round3(total),
		Breakdown:     breakdown,
		ActivityCount: len(activities),
		Average:       average,
		Timestamp:     time.Now().UTC(),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
