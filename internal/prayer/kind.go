// Package prayer defines the daily event model: event kinds, the Schedule of a
// local day, and the Source that builds it.
package prayer

import "time"

// Kind identifies what a scheduled event marks.
type Kind int

// Event kinds. The set is closed; Restricted events carry a Window.
const (
	KindQiyam Kind = iota
	KindFajr
	KindSunrise
	KindDhuhr
	KindAsr
	KindMaghrib
	KindIsha
	KindFajrTomorrow
	KindRestricted
)

// Window identifies which restricted window a Restricted event opens.
type Window int

const (
	WindowNone Window = iota
	// WindowZenith is the short period before the sun passes the meridian.
	WindowZenith
	// WindowSunset is the period before sunset.
	WindowSunset
)

// String returns the string representation of Window.
func (w Window) String() string {
	switch w {
	case WindowZenith:
		return "zenith"
	case WindowSunset:
		return "sunset"
	default:
		return "none"
	}
}

// kindNames maps kinds to their stable identifiers used in logs and config.
var kindNames = map[Kind]string{
	KindQiyam:        "qiyam",
	KindFajr:         "fajr",
	KindSunrise:      "sunrise",
	KindDhuhr:        "dhuhr",
	KindAsr:          "asr",
	KindMaghrib:      "maghrib",
	KindIsha:         "isha",
	KindFajrTomorrow: "fajr_tomorrow",
	KindRestricted:   "restricted",
}

// String returns the stable identifier of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Category is the audio classification an audible event maps to.
type Category string

const (
	CategoryFajr   Category = "fajr"
	CategoryNormal Category = "normal"
)

// Categories returns every cue category.
func Categories() []Category {
	return []Category{CategoryFajr, CategoryNormal}
}

// CategoryFor maps an event kind to its cue category. The second result is
// false for kinds that have no cue (sunrise, qiyam, restricted windows).
func CategoryFor(k Kind) (Category, bool) {
	switch k {
	case KindFajr, KindFajrTomorrow:
		return CategoryFajr, true
	case KindDhuhr, KindAsr, KindMaghrib, KindIsha:
		return CategoryNormal, true
	default:
		return "", false
	}
}

// DisplayName returns the user-facing name of an event kind on the given
// weekday. The midday prayer is called Jumua on Fridays.
func DisplayName(k Kind, day time.Weekday) string {
	switch k {
	case KindQiyam:
		return "Qiyam"
	case KindFajr, KindFajrTomorrow:
		return "Fajr"
	case KindSunrise:
		return "Sunrise"
	case KindDhuhr:
		if day == time.Friday {
			return "Jumua"
		}
		return "Dhuhr"
	case KindAsr:
		return "Asr"
	case KindMaghrib:
		return "Maghrib"
	case KindIsha:
		return "Isha"
	case KindRestricted:
		return "Restricted"
	default:
		return "Unknown"
	}
}
