package models

import (
	"time"

	"gorm.io/gorm"
)

type DocumentType string

const (
	TypeIncoming DocumentType = "INCOMING"
	TypeOutgoing DocumentType = "OUTGOING"
	TypeInternal DocumentType = "INTERNAL"
)

func (t DocumentType) Valid() bool {
	switch t {
	case TypeIncoming, TypeOutgoing, TypeInternal:
		return true
	}
	return false
}

type Classification string

const (
	ClassPublic     Classification = "PUBLIC"
	ClassRestricted Classification = "RESTRICTED"
	ClassSecret     Classification = "SECRET"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassPublic, ClassRestricted, ClassSecret:
		return true
	}
	return false
}

type DocumentStatus string

const (
	StatusPending  DocumentStatus = "PENDING"
	StatusApproved DocumentStatus = "APPROVED"
	StatusRejected DocumentStatus = "REJECTED"
	StatusArchived DocumentStatus = "ARCHIVED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Correspondence holds the counterpart fields of a document. Which subset is
// legal depends on the document type; NormalizeFor zeroes the rest.
type Correspondence struct {
	ReceivedFrom    string // INCOMING
	SentTo          string // OUTGOING
	FromDepartment  string // INTERNAL
	ToDepartment    string // INTERNAL
	ExternalAddress string // INCOMING, OUTGOING
}

// NormalizeFor returns a copy with every field not legal for the given
// document type cleared. Stray form fields are tolerated, never an error.
func (c Correspondence) NormalizeFor(t DocumentType) Correspondence {
	switch t {
	case TypeIncoming:
		return Correspondence{ReceivedFrom: c.ReceivedFrom, ExternalAddress: c.ExternalAddress}
	case TypeOutgoing:
		return Correspondence{SentTo: c.SentTo, ExternalAddress: c.ExternalAddress}
	case TypeInternal:
		return Correspondence{FromDepartment: c.FromDepartment, ToDepartment: c.ToDepartment}
	}
	return Correspondence{}
}

type Document struct {
	gorm.Model
	ProtocolNumber *string `gorm:"uniqueIndex"`
	Title          string  `gorm:"not null"`
	Description    string
	DocumentType   DocumentType `gorm:"not null;index"`

	ReceivedFrom    string
	SentTo          string
	FromDepartment  string
	ToDepartment    string
	ExternalAddress string

	Classification Classification `gorm:"not null;default:'PUBLIC';index"`
	Status         DocumentStatus `gorm:"not null;default:'PENDING';index"`
	Deadline       *time.Time
	Department     string

	FileName string
	FilePath string
	FileSize int64

	UploadedBy uint `gorm:"not null;index"`

	Routing    []RoutingEvent       `gorm:"constraint:OnDelete:CASCADE"`
	AssignedTo []DocumentAssignment `gorm:"constraint:OnDelete:CASCADE"`
}

// IsOverdue is derived on every read, never persisted.
func (d *Document) IsOverdue(now time.Time) bool {
	return d.Deadline != nil && now.After(*d.Deadline) && d.Status == StatusPending
}

// IsAssignedTo reports whether the user is in the document's assignment set.
func (d *Document) IsAssignedTo(userID uint) bool {
	for _, a := range d.AssignedTo {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// RoutingEvent is one entry of a document's append-only routing trail.
// Rows are immutable once created; no service exposes an update or delete.
type RoutingEvent struct {
	ID         uint `gorm:"primaryKey"`
	DocumentID uint `gorm:"index;not null"`
	FromUserID uint `gorm:"not null"`
	ToUserID   *uint
	Action     string
	Remarks    string
	Date       time.Time `gorm:"not null"`
}

// DocumentAssignment records membership in a document's assignment set.
// The composite unique index gives delegation its set semantics.
type DocumentAssignment struct {
	ID         uint `gorm:"primaryKey"`
	DocumentID uint `gorm:"uniqueIndex:idx_doc_assignee;not null"`
	UserID     uint `gorm:"uniqueIndex:idx_doc_assignee;not null"`
	CreatedAt  time.Time
}
