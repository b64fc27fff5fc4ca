package model

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Store is a tenant. Domain is the subdomain label it is served on.
type Store struct {
	ID             uint              `gorm:"primarykey" json:"id"`
	OwnerID        *uint             `gorm:"index" json:"owner"` // nil for stores created by staff tooling
	Owner          *User             `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Name           string            `gorm:"type:varchar(100);not null" json:"name"`
	Domain         string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"domain"`
	Description    string            `gorm:"type:text" json:"description"`
	Logo           string            `gorm:"type:varchar(255)" json:"logo"`
	LogoURL        string            `gorm:"-" json:"logo_url"`
	Theme          datatypes.JSONMap `json:"theme"`
	ContactInfo    datatypes.JSONMap `json:"contact_info"`
	SocialMedia    datatypes.JSONMap `json:"social_media"`
	DomainLockedAt *time.Time        `json:"domain_locked_at,omitempty"` // set on first live resolution
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

func (s *Store) IsOwnedBy(userID uint) bool {
	return s.OwnerID != nil && *s.OwnerID == userID
}

func (s *Store) DomainLocked() bool {
	return s.DomainLockedAt != nil
}

// ApplyMediaBase fills derived URLs.
func (s *Store) ApplyMediaBase(base string) {
	s.LogoURL = MediaURL(base, s.Logo)
}

// StorePatch is a partial update. Nil fields are left untouched.
type StorePatch struct {
	Name        *string
	Domain      *string
	Description *string
	Logo        *string
	Theme       *datatypes.JSONMap
	ContactInfo *datatypes.JSONMap
	SocialMedia *datatypes.JSONMap
}

// Apply returns a copy of s with the patch applied.
func (p StorePatch) Apply(s Store) Store {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Domain != nil {
		s.Domain = *p.Domain
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Logo != nil {
		s.Logo = *p.Logo
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.ContactInfo != nil {
		s.ContactInfo = *p.ContactInfo
	}
	if p.SocialMedia != nil {
		s.SocialMedia = *p.SocialMedia
	}
	return s
}

// ChangesDomain reports whether applying p to s would move it to another tenant key.
func (p StorePatch) ChangesDomain(s Store) bool {
	return p.Domain != nil && *p.Domain != s.Domain
}

var domainKeyPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeDomainKey lowercases and trims a requested store domain.
func NormalizeDomainKey(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// ValidDomainKey reports whether domain can be served as a subdomain label.
// "www" is reserved for the apex site.
func ValidDomainKey(domain string) bool {
	return domain != "www" && domainKeyPattern.MatchString(domain)
}
