package model

import "strings"

// Gender of a person recorded in the system
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid reports whether g is a known gender value
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Realm identifies which account table a token, code or upload belongs to
type Realm string

const (
	RealmAdmin     Realm = "admin"
	RealmCounselor Realm = "counselor"
)

// ParseGender accepts English and Chinese spellings. ok is false for
// anything it does not recognize.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "男":
		return GenderMale, true
	case "female", "f", "女":
		return GenderFemale, true
	}
	return "", false
}
