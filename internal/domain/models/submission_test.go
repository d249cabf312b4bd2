package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSanitize(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   ContactSubmission
		want SanitizedSubmission
	}{
		{
			name: "strips brackets and trims",
			in: ContactSubmission{
				Name:    "  <b>Thandi</b>  ",
				Email:   " t@example.co.za",
				Phone:   " +27 65 895 4832 ",
				Message: "\n<script>alert(1)</script> please call me\n",
			},
			want: SanitizedSubmission{
				Name:    "bThandi/b",
				Email:   " t@example.co.za",
				Phone:   "+27 65 895 4832",
				Message: "scriptalert(1)/script please call me",
			},
		},
		{
			name: "missing phone",
			in:   ContactSubmission{Name: "Sipho", Email: "s@example.com", Message: "Need help with VAT returns"},
			want: SanitizedSubmission{Name: "Sipho", Email: "s@example.com", Phone: PhoneNotProvided, Message: "Need help with VAT returns"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Sanitize(at)

			if _, err := uuid.Parse(got.ID); err != nil {
				t.Errorf("ID %q is not a UUID: %v", got.ID, err)
			}
			if !got.ReceivedAt.Equal(at) {
				t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, at)
			}
			got.ID, got.ReceivedAt = "", time.Time{}
			if got != tt.want {
				t.Errorf("Sanitize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitize_UniqueIDs(t *testing.T) {
	in := ContactSubmission{Name: "Ann", Email: "a@b.co", Message: "hello there friend"}
	a, b := in.Sanitize(time.Now()), in.Sanitize(time.Now())
	if a.ID == b.ID {
		t.Errorf("expected distinct IDs, both %q", a.ID)
	}
}
