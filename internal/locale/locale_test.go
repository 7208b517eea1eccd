package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		fallback string
		want     string
	}{
		{"empty uses fallback", "", Arabic, Arabic},
		{"empty english fallback", "", English, English},
		{"plain english", "en", Arabic, English},
		{"regional english", "en-US,en;q=0.9", Arabic, English},
		{"arabic preferred", "ar-SA,en;q=0.5", English, Arabic},
		{"weighted english", "fr;q=0.9,en;q=0.8", Arabic, English},
		{"unsupported", "ja", English, English},
		{"unknown fallback", "", "de", Arabic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.header, tt.fallback))
		})
	}
}

func TestDecisionText(t *testing.T) {
	title, msg := DecisionText(English, true, "MIS101 - Intro", "")
	assert.Equal(t, "Registration Request Approved", title)
	assert.Equal(t, "Your registration request for MIS101 - Intro has been approved", msg)

	title, msg = DecisionText(English, false, "MIS101", "schedule conflict")
	assert.Equal(t, "Registration Request Rejected", title)
	assert.Equal(t, "Your registration request for MIS101 has been rejected - Reason: schedule conflict", msg)

	_, msg = DecisionText(English, false, "MIS101", "")
	assert.Equal(t, "Your registration request for MIS101 has been rejected", msg)

	title, msg = DecisionText(Arabic, false, "MIS101", "تعارض")
	assert.Equal(t, "تم رفض طلب التسجيل", title)
	assert.Contains(t, msg, "MIS101")
	assert.Contains(t, msg, "السبب: تعارض")
}
