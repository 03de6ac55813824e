package service

import (
	"userhub/internal/model"
)

// PhoneInput is a transport-layer phone record.
type PhoneInput struct {
	Number      string `json:"number" validate:"required"`
	CityCode    string `json:"citycode" validate:"required"`
	CountryCode string `json:"countrycode" validate:"required"`
}

// MapPhones converts transport phone records into stored phone records
// owned by the given user, preserving order. Nil or empty input maps to an
// empty list.
func MapPhones(inputs []PhoneInput, owner *model.User) []model.Phone {
	phones := make([]model.Phone, 0, len(inputs))
	for _, in := range inputs {
		phones = append(phones, model.Phone{
			UserID:      owner.ID,
			Number:      in.Number,
			CityCode:    in.CityCode,
			CountryCode: in.CountryCode,
		})
	}
	return phones
}
