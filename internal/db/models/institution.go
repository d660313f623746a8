package models

import (
	"gorm.io/gorm"
)

type InstitutionType string

const (
	InstGovernment    InstitutionType = "GOVERNMENT"
	InstPrivate       InstitutionType = "PRIVATE"
	InstNGO           InstitutionType = "NGO"
	InstInternational InstitutionType = "INTERNATIONAL"
	InstOther         InstitutionType = "OTHER"
)

// Institution is a plain reference lookup for correspondence counterparts.
type Institution struct {
	gorm.Model
	Name          string          `gorm:"unique;not null"`
	Type          InstitutionType `gorm:"not null;default:'OTHER'"`
	Address       string
	Phone         string
	Email         string
	ContactPerson string
	Notes         string
	IsActive      bool `gorm:"not null;default:true"`
}
