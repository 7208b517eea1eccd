// Package locale picks the notification language and renders the texts sent
// to students when a registration request is resolved.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
)

const (
	Arabic  = "ar"
	English = "en"
)

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})

// Negotiate maps an Accept-Language header (or a bare tag) onto a supported
// language, returning fallback when nothing matches.
func Negotiate(header, fallback string) string {
	if fallback != English {
		fallback = Arabic
	}
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	if idx == 1 {
		return English
	}
	return Arabic
}

// DecisionText returns the title and message for an approved or rejected
// request. course names the course, notes is the reviewer's reason and only
// used on rejection.
func DecisionText(lang string, approved bool, course, notes string) (string, string) {
	if lang == English {
		if approved {
			return "Registration Request Approved",
				fmt.Sprintf("Your registration request for %s has been approved", course)
		}
		msg := fmt.Sprintf("Your registration request for %s has been rejected", course)
		if notes != "" {
			msg += " - Reason: " + notes
		}
		return "Registration Request Rejected", msg
	}

	if approved {
		return "تمت الموافقة على طلب التسجيل",
			fmt.Sprintf("تمت الموافقة على طلب تسجيل مقرر %s", course)
	}
	msg := fmt.Sprintf("تم رفض طلب تسجيل مقرر %s", course)
	if notes != "" {
		msg += " - السبب: " + notes
	}
	return "تم رفض طلب التسجيل", msg
}
