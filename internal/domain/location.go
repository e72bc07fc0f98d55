package domain

import "fmt"

type Location struct {
	Lat float64 `json:"lat" gorm:"column:lat"`
	Lng float64 `json:"lng" gorm:"column:lng"`
}

func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrValidation, l.Lat, l.Lng)
	}
	return nil
}
