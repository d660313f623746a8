package models

// ProtocolCounter is the per-year sequence backing protocol numbers.
// Counter only ever moves forward; numbers are never reused, even when the
// document they were issued for is later deleted.
type ProtocolCounter struct {
	ID      uint   `gorm:"primaryKey"`
	Year    int    `gorm:"uniqueIndex;not null"`
	Counter int64  `gorm:"not null;default:0"`
	Prefix  string `gorm:"not null;default:'PROT'"`
}

const DefaultProtocolPrefix = "PROT"
