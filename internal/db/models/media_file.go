package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MediaType is the kind of an uploaded media file.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaImage MediaType = "image"
)

type MediaFile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Type      MediaType `json:"type"`
	FileName  string    `json:"fileName"`
	FileSize  int64     `json:"fileSize"`
	Duration  *float64  `json:"duration,omitempty"` // seconds
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}

// Metadata is an open key-value document stored as JSON.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// scanJSON decodes a TEXT/JSONB column into dst. NULL leaves dst untouched.
func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
