package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelPro          = "Pro"
)

// StringList is a []string stored as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Material is a physical item the student needs for a course.
type Material struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Link  string `json:"link,omitempty"`
}

// MaterialList is a []Material stored as a JSON text column.
type MaterialList []Material

func (l MaterialList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *MaterialList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into MaterialList", src)
	}
}

// Course is addressable by both its durable id and its slug; the slug is the
// externally visible identifier. Courses are read-only through the public API.
type Course struct {
	ID             string       `db:"id" json:"id"`
	Slug           string       `db:"slug" json:"slug"`
	Title          string       `db:"title" json:"title"`
	CoverPath      string       `db:"cover_path" json:"-"`
	Summary        string       `db:"summary" json:"summary"`
	Description    string       `db:"description" json:"-"`
	Level          string       `db:"level" json:"level"`
	Tags           StringList   `db:"tags" json:"tags"`
	PriceCents     *int         `db:"price_cents" json:"price_cents,omitempty"`
	DurationText   string       `db:"duration_text" json:"duration_text,omitempty"`
	Materials      MaterialList `db:"materials" json:"materials"`
	OpenEnrollment bool         `db:"open_enrollment" json:"open_enrollment"`
	Active         bool         `db:"active" json:"active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	// Computed fields (not in database)
	CoverURL        string `db:"-" json:"cover_url,omitempty"`
	DescriptionHTML string `db:"-" json:"description_html,omitempty"`
}

type Lesson struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Position    int       `db:"position" json:"position"`
	DurationSec int       `db:"duration_sec" json:"duration_sec"`
	VideoPath   string    `db:"video_path" json:"-"`
	IsPreview   bool      `db:"is_preview" json:"is_preview"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Computed fields (not in database)
	VideoURL string `db:"-" json:"video_url,omitempty"`
}
