package domain

import (
	"fmt"
	"strings"
)

// Category is one of the fixed disaster types.
type Category string

const (
	CategoryFlood            Category = "flood"
	CategoryFire             Category = "fire"
	CategoryLandslide        Category = "landslide"
	CategoryWindstorm        Category = "windstorm"
	CategoryHail             Category = "hail"
	CategoryDrought          Category = "drought"
	CategoryEarthquake       Category = "earthquake"
	CategoryAccident         Category = "accident"
	CategoryMedicalEmergency Category = "medical_emergency"
	CategoryOther            Category = "other"
)

// Categories lists the fixed category set in canonical order.
func Categories() []Category {
	return []Category{
		CategoryFlood,
		CategoryFire,
		CategoryLandslide,
		CategoryWindstorm,
		CategoryHail,
		CategoryDrought,
		CategoryEarthquake,
		CategoryAccident,
		CategoryMedicalEmergency,
		CategoryOther,
	}
}

// ParseCategory accepts canonical names, case-insensitive.
func ParseCategory(value string) (Category, error) {
	v := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range Categories() {
		if c == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}
