package speech

import (
	"fmt"
	"strings"

	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/tts"
)

var validGenders = map[string]bool{"NEUTRAL": true, "MALE": true, "FEMALE": true}

// ssmlForbidden lists markup that is never valid inside an SSML document.
var ssmlForbidden = []string{"<script", "<iframe", "<object", "<embed"}

// ValidateRequest checks one synthesis request against the provider
// limits. All violations are reported together in a single InvalidInput
// error.
func ValidateRequest(req tts.Request, maxTextLength int) error {
	var errs []string

	if req.Text == "" && req.SSML == "" {
		errs = append(errs, "either text or SSML content is required")
	}
	if req.Text != "" && len(req.Text) > maxTextLength {
		errs = append(errs, fmt.Sprintf("text must be %d characters or less", maxTextLength))
	}
	if req.SSML != "" && !validSSML(req.SSML) {
		errs = append(errs, "invalid SSML format")
	}
	if req.LanguageCode != "" && !config.ValidLanguageCode(req.LanguageCode) {
		errs = append(errs, "invalid language code format")
	}
	if req.Encoding != "" && !req.Encoding.Valid() {
		errs = append(errs, "audio encoding must be one of: MP3, LINEAR16, OGG_OPUS, MULAW, ALAW")
	}
	if req.Gender != "" && !validGenders[req.Gender] {
		errs = append(errs, "SSML gender must be one of: NEUTRAL, MALE, FEMALE")
	}
	if req.SpeakingRate != 0 && (req.SpeakingRate < 0.25 || req.SpeakingRate > 4.0) {
		errs = append(errs, "speaking rate must be between 0.25 and 4.0")
	}
	if req.Pitch < -20.0 || req.Pitch > 20.0 {
		errs = append(errs, "pitch must be between -20.0 and 20.0")
	}

	if len(errs) > 0 {
		return tts.NewError(tts.KindInvalidInput, strings.Join(errs, "; "), nil)
	}
	return nil
}

// ValidateHistoryQuery checks a history lookup before it reaches the store.
func ValidateHistoryQuery(userID string, limit int) error {
	if strings.TrimSpace(userID) == "" {
		return tts.NewError(tts.KindInvalidInput, "user ID is required and must be a non-empty string", nil)
	}
	if limit < 1 || limit > 100 {
		return tts.NewError(tts.KindInvalidInput, "limit must be an integer between 1 and 100", nil)
	}
	return nil
}

func validSSML(ssml string) bool {
	if !strings.Contains(ssml, "<speak>") || !strings.Contains(ssml, "</speak>") {
		return false
	}
	lower := strings.ToLower(ssml)
	for _, tag := range ssmlForbidden {
		if strings.Contains(lower, tag) {
			return false
		}
	}
	return true
}
