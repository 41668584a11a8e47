package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AnnotationStatus represents the annotation lifecycle state of a meme.
// The set is closed and matching is exact: uploaded -> half_annotated ->
// fully_annotated. There is no transition back to uploaded.
type AnnotationStatus string

const (
	StatusUploaded       AnnotationStatus = "uploaded"
	StatusHalfAnnotated  AnnotationStatus = "half_annotated"
	StatusFullyAnnotated AnnotationStatus = "fully_annotated"
)

// IsValid reports whether s is one of the known lifecycle states.
// Parameters: none.
// Returns:
//   - bool: true if s belongs to the closed state set.
func (s AnnotationStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusHalfAnnotated, StatusFullyAnnotated:
		return true
	}
	return false
}

// RoleKind identifies one of the four role lists on a meme.
type RoleKind string

const (
	RoleHero    RoleKind = "hero"
	RoleVillain RoleKind = "villain"
	RoleVictim  RoleKind = "victim"
	RoleOther   RoleKind = "other"
)

// Column returns the database column holding the role list for this kind.
// Parameters: none.
// Returns:
//   - string: column name, empty for an unknown kind.
func (k RoleKind) Column() string {
	switch k {
	case RoleHero:
		return "heroes"
	case RoleVillain:
		return "villains"
	case RoleVictim:
		return "victims"
	case RoleOther:
		return "other_roles"
	}
	return ""
}

// IsValid reports whether k is a known role kind.
func (k RoleKind) IsValid() bool {
	return k.Column() != ""
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// AnnotatedMeme represents one uploaded image and its accumulated annotation fields.
// Sentiment and genre are written only from annotation service responses; the
// remaining free-text fields and role lists are editable.
type AnnotatedMeme struct {
	ID              string           `gorm:"type:text;primaryKey" json:"id"`
	FileName        string           `gorm:"type:text;index:idx_annotated_memes_file" json:"file_name"`
	UploadedMemeURL string           `gorm:"type:text" json:"uploaded_meme_url"`
	MD5Hash         string           `gorm:"type:text;uniqueIndex:idx_annotated_memes_md5" json:"md5_hash,omitempty"`
	Width           int              `json:"width,omitempty"`
	Height          int              `json:"height,omitempty"`
	OCRText         string           `gorm:"column:ocr_text;type:text" json:"ocr_text"`
	Explanation     string           `gorm:"type:text" json:"explanation"`
	Context         string           `gorm:"type:text" json:"context"`
	Heroes          StringArray      `gorm:"type:text" json:"heroes"`
	Villains        StringArray      `gorm:"type:text" json:"villains"`
	Victims         StringArray      `gorm:"type:text" json:"victims"`
	OtherRoles      StringArray      `gorm:"type:text" json:"other_roles"`
	Sentiment       string           `gorm:"type:text" json:"sentiment"`
	Genre           string           `gorm:"type:text" json:"genre"`
	AnnotationStatus AnnotationStatus `gorm:"type:text;index:idx_annotated_memes_status;default:uploaded" json:"annotation_status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName returns the database table name for AnnotatedMeme.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (AnnotatedMeme) TableName() string {
	return "annotated_memes"
}

// Roles returns the role list for the given kind.
// Parameters:
//   - kind: role kind to read.
// Returns:
//   - StringArray: current list for that kind (nil for unknown kinds).
func (m *AnnotatedMeme) Roles(kind RoleKind) StringArray {
	switch kind {
	case RoleHero:
		return m.Heroes
	case RoleVillain:
		return m.Villains
	case RoleVictim:
		return m.Victims
	case RoleOther:
		return m.OtherRoles
	}
	return nil
}

// SetRoles replaces the role list for the given kind.
// Parameters:
//   - kind: role kind to write.
//   - roles: full replacement list.
func (m *AnnotatedMeme) SetRoles(kind RoleKind, roles StringArray) {
	switch kind {
	case RoleHero:
		m.Heroes = roles
	case RoleVillain:
		m.Villains = roles
	case RoleVictim:
		m.Victims = roles
	case RoleOther:
		m.OtherRoles = roles
	}
}

// AnnotationResult carries the fields an annotation service may return for a
// meme. Every field is optional; absent fields fall back to defaults during
// ApplyAnnotation.
type AnnotationResult struct {
	AnnotationStatus string      `json:"annotation_status,omitempty"`
	Heroes           StringArray `json:"heroes,omitempty"`
	Villains         StringArray `json:"villains,omitempty"`
	Victims          StringArray `json:"victims,omitempty"`
	OtherRoles       StringArray `json:"other_roles,omitempty"`
	Sentiment        string      `json:"sentiment,omitempty"`
	Explanation      string      `json:"explanation,omitempty"`
	Genre            string      `json:"genre,omitempty"`
}

// ApplyAnnotation merges a service response into the meme. Absent list fields
// become empty lists and absent strings become empty strings; a field is never
// left unset. The service's status wins when present, otherwise the meme
// advances to half_annotated.
// Parameters:
//   - res: annotation service response to merge.
func (m *AnnotatedMeme) ApplyAnnotation(res *AnnotationResult) {
	status := AnnotationStatus(res.AnnotationStatus)
	if status == "" {
		status = StatusHalfAnnotated
	}
	m.AnnotationStatus = status
	m.Heroes = orEmpty(res.Heroes)
	m.Villains = orEmpty(res.Villains)
	m.Victims = orEmpty(res.Victims)
	m.OtherRoles = orEmpty(res.OtherRoles)
	m.Sentiment = res.Sentiment
	m.Explanation = res.Explanation
	m.Genre = res.Genre
}

// ApplyContext sets the contextual narrative and forces the meme to
// fully_annotated regardless of its prior status.
// Parameters:
//   - context: context text returned by the service (may be empty).
func (m *AnnotatedMeme) ApplyContext(context string) {
	m.Context = context
	m.AnnotationStatus = StatusFullyAnnotated
}

func orEmpty(a StringArray) StringArray {
	if a == nil {
		return StringArray{}
	}
	return a
}
