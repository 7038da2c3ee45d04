package record

import (
	"strings"
	"unicode"
)

// Canonical field names, used as JSON keys and in validation messages.
const (
	FieldStageName       = "stageName"
	FieldFullName        = "fullName"
	FieldCity            = "city"
	FieldState           = "state"
	FieldPhoneNumber     = "phoneNumber"
	FieldExperienceLevel = "experienceLevel"
	FieldAge             = "age"
	FieldEmail           = "email"
	FieldSocialMedia     = "socialMedia"
	FieldHeardAbout      = "heardAbout"
)

// aliases lists, per canonical field, the accepted source keys in priority
// order. The spellings with a trailing colon come from the sign-up form
// export.
var aliases = map[string][]string{
	FieldStageName:       {"Stage Name:", "Stage Name", "stageName"},
	FieldFullName:        {"Name (First & Last):", "Name (First & Last)", "fullName"},
	FieldCity:            {"City", "city"},
	FieldState:           {"State", "state"},
	FieldPhoneNumber:     {"Phone Number", "phoneNumber"},
	FieldExperienceLevel: {"Experience Level:", "Experience Level", "experienceLevel"},
	FieldAge:             {"Age", "age"},
	FieldEmail:           {"Email:", "Email", "email"},
	FieldSocialMedia:     {"Social Media Links:", "Social Media Links", "socialMedia"},
	FieldHeardAbout:      {"How did you hear about us?", "heardAbout"},
}

// pick returns the trimmed value of the first alias present in fields. A
// present but empty alias still wins over later ones.
func pick(fields map[string]string, field string) string {
	for _, k := range aliases[field] {
		if v, ok := fields[k]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Normalize maps an untyped row (CSV header to cell, or JSON key to value)
// onto Input. Unknown keys are ignored and missing fields become empty.
func Normalize(fields map[string]string) Input {
	return Input{
		StageName:       pick(fields, FieldStageName),
		FullName:        pick(fields, FieldFullName),
		City:            pick(fields, FieldCity),
		State:           pick(fields, FieldState),
		PhoneNumber:     pick(fields, FieldPhoneNumber),
		ExperienceLevel: pick(fields, FieldExperienceLevel),
		Age:             pick(fields, FieldAge),
		Email:           pick(fields, FieldEmail),
		SocialMedia:     pick(fields, FieldSocialMedia),
		HeardAbout:      pick(fields, FieldHeardAbout),
	}.Normalize()
}

// NormalizePhone keeps only digits and drops a leading US country code
// from 11-digit numbers. Other lengths pass through unchanged.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// NormalizeState resolves postal codes and full names (any case) to the
// canonical state name. Unrecognized values are capitalized.
func NormalizeState(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if name, ok := stateByCode[strings.ToUpper(s)]; ok {
		return name
	}
	if name, ok := stateByLowerName[strings.ToLower(s)]; ok {
		return name
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
