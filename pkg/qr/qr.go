// Package qr encodes and decodes the QR payload exchanged with the UI.
// The payload is a fixed JSON envelope identifying its type and version so a
// scanner can reject codes that merely look like ours.
package qr

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/oksasatya/profile-hub/internal/domain/entity"
)

const (
	PayloadType    = "user_profile"
	PayloadVersion = "1.0"

	// DefaultSize is the rendered PNG edge length in pixels. MaxSize caps
	// caller-supplied sizes; the render buffer grows with size squared.
	DefaultSize = 256
	MaxSize     = 1024
)

// FormData mirrors the profile's writable fields as they travel inside a QR
// payload. Field names match the domain-facing camelCase JSON shape.
type FormData struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Envelope is the wire shape carried by the QR image.
type Envelope struct {
	Type    string   `json:"type"`
	Version string   `json:"version"`
	Data    FormData `json:"data"`
}

// FromProfile builds the payload for an existing record. The id and the
// store-owned timestamps deliberately stay out of the code: imports always
// create a fresh record.
func FromProfile(u *entity.UserProfile) Envelope {
	return Envelope{
		Type:    PayloadType,
		Version: PayloadVersion,
		Data: FormData{
			FullName:    u.FullName,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			Bio:         u.Bio,
			AvatarURL:   u.AvatarURL,
			DateOfBirth: u.DateOfBirth,
			Location:    u.Location,
		},
	}
}

// EncodePNG renders the envelope as a QR PNG of size x size pixels.
// Out-of-range sizes fall back to DefaultSize or clamp to MaxSize.
func EncodePNG(env Envelope, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal qr payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	return png, nil
}

// Decode parses scanned payload text and validates the envelope markers.
// Image-to-text decoding happens client-side; the server only ever sees the
// JSON payload.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid qr payload: %w", err)
	}
	if env.Type != PayloadType {
		return nil, fmt.Errorf("unexpected qr payload type %q", env.Type)
	}
	if env.Version != PayloadVersion {
		return nil, fmt.Errorf("unsupported qr payload version %q", env.Version)
	}
	return &env, nil
}
