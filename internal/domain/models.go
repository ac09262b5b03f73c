// Package domain defines the persistence models for accepted scooters and
// the service catalogue they belong to. These types are mapped with GORM and
// form the core data layer of the intake bot.
package domain

import (
	"strings"
	"time"
)

// Service names a scooter-sharing operator. The set is closed per release but
// stored as text so older rows keep their meaning when services are added.
type Service string

// Known services. Values double as canonical display names and sort keys.
const (
	ServiceYandex Service = "Yandex"
	ServiceWhoosh Service = "Whoosh"
	ServiceJet    Service = "Jet"
	ServiceBolt   Service = "Bolt"
)

// Services returns every known service in name order.
func Services() []Service {
	return []Service{ServiceBolt, ServiceJet, ServiceWhoosh, ServiceYandex}
}

// Valid reports whether s is one of the known services.
func (s Service) Valid() bool {
	switch s {
	case ServiceYandex, ServiceWhoosh, ServiceJet, ServiceBolt:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s Service) String() string { return string(s) }

// PlaceholderPrefix is the uppercase prefix used for bulk placeholder
// identifiers of this service (e.g. "WHOOSH").
func (s Service) PlaceholderPrefix() string { return strings.ToUpper(string(s)) }

// Acceptance represents one accepted scooter unit reported by an operator.
//
// Fields:
//   - ID: autoincrement primary key.
//   - Identifier: normalized public number, or a bulk placeholder.
//   - Service: operator the unit belongs to.
//   - UserID / Username / FullName: who accepted it.
//   - AcceptedAt: when the originating message was processed (second precision, stored in UTC).
//   - ChatID: conversation the report came from.
//
// The unique index mirrors an insert-or-ignore guard: the same identifier
// reported by the same user within the same second is stored once.
type Acceptance struct {
	ID         uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	Identifier string    `json:"identifier"  gorm:"type:varchar(96);not null;index:idx_identifier;uniqueIndex:ux_identifier_user_time,priority:1"`
	Service    Service   `json:"service"     gorm:"type:varchar(32);not null;index:idx_user_service,priority:2"`
	UserID     int64     `json:"user_id"     gorm:"not null;index:idx_user_service,priority:1;uniqueIndex:ux_identifier_user_time,priority:2"`
	Username   string    `json:"username"    gorm:"type:varchar(64)"`
	FullName   string    `json:"full_name"   gorm:"type:varchar(255);not null"`
	AcceptedAt time.Time `json:"accepted_at" gorm:"not null;index:idx_accepted_at;uniqueIndex:ux_identifier_user_time,priority:3"`
	ChatID     int64     `json:"chat_id"     gorm:"not null"`
}

// TableName returns the database table name for Acceptance.
func (Acceptance) TableName() string { return "accepted_scooters" }

// IsPlaceholder reports whether the identifier was synthesized by a bulk entry.
func (a Acceptance) IsPlaceholder() bool {
	return strings.Contains(a.Identifier, "_BATCH_")
}

// ServiceCount pairs a service with a number of accepted units.
type ServiceCount struct {
	Service Service `json:"service"`
	Count   int     `json:"count"`
}
