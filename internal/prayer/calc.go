package prayer

import (
	"fmt"
	"math"
	"time"
)

const (
	// sunriseAngle accounts for refraction and the solar disc radius.
	sunriseAngle = 0.833

	zenithMarkerLead = 10 * time.Minute
	sunsetMarkerLead = 15 * time.Minute
)

// Calculator computes schedules from coordinates and calculation parameters
// using the standard solar position approximation.
type Calculator struct {
	// Restricted adds markers for the zenith and sunset restricted windows.
	Restricted bool
}

// NewCalculator creates a Calculator.
func NewCalculator(restricted bool) *Calculator {
	return &Calculator{Restricted: restricted}
}

// DayTimes holds the computed times of one calendar day.
type DayTimes struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Sunset  time.Time
	Maghrib time.Time
	Isha    time.Time
}

// Build implements Source for the local day containing now.
func (c *Calculator) Build(coords Coordinates, params Parameters, now time.Time) (*Schedule, error) {
	day := StartOfDay(now)
	end := day.AddDate(0, 0, 1)

	yesterday, err := c.Times(coords, params, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	today, err := c.Times(coords, params, day)
	if err != nil {
		return nil, err
	}
	tomorrow, err := c.Times(coords, params, end)
	if err != nil {
		return nil, err
	}

	var events []Event

	// At high latitudes the previous day's Isha can fall after midnight.
	if !yesterday.Isha.Before(day) && yesterday.Isha.Before(today.Fajr) {
		events = append(events, Event{Kind: KindIsha, Instant: yesterday.Isha})
	}

	night := today.Fajr.Sub(yesterday.Maghrib)
	qiyam := today.Fajr.Add(-night / 3).Round(time.Second)
	events = appendMarker(events, Event{Kind: KindQiyam, Instant: qiyam}, day, today.Fajr)

	events = append(events,
		Event{Kind: KindFajr, Instant: today.Fajr},
		Event{Kind: KindSunrise, Instant: today.Sunrise},
	)
	if c.Restricted {
		events = appendMarker(events,
			Event{Kind: KindRestricted, Window: WindowZenith, Instant: today.Dhuhr.Add(-zenithMarkerLead)},
			day, today.Dhuhr)
	}
	events = append(events,
		Event{Kind: KindDhuhr, Instant: today.Dhuhr},
		Event{Kind: KindAsr, Instant: today.Asr},
	)
	if c.Restricted {
		events = appendMarker(events,
			Event{Kind: KindRestricted, Window: WindowSunset, Instant: today.Maghrib.Add(-sunsetMarkerLead)},
			day, today.Maghrib)
	}
	events = append(events, Event{Kind: KindMaghrib, Instant: today.Maghrib})
	if today.Isha.Before(end) {
		events = append(events, Event{Kind: KindIsha, Instant: today.Isha})
	}
	events = append(events, Event{Kind: KindFajrTomorrow, Instant: tomorrow.Fajr})

	return NewSchedule(day, events, coords, params)
}

// appendMarker appends a non-prayer marker only when it keeps the events
// strictly ordered, stays within the day and precedes next.
func appendMarker(events []Event, marker Event, day, next time.Time) []Event {
	if marker.Instant.Before(day) || !marker.Instant.Before(next) {
		return events
	}
	if n := len(events); n > 0 && !marker.Instant.After(events[n-1].Instant) {
		return events
	}
	return append(events, marker)
}

// Times computes the prayer times of the calendar day of date, expressed in
// date's location.
func (c *Calculator) Times(coords Coordinates, params Parameters, date time.Time) (DayTimes, error) {
	if coords.Latitude < -90 || coords.Latitude > 90 || coords.Longitude < -180 || coords.Longitude > 180 {
		return DayTimes{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrScheduleBuild, coords.Latitude, coords.Longitude)
	}

	y, m, d := date.Date()
	a := astro{
		lat: coords.Latitude,
		jd:  julianDate(y, int(m), d) - coords.Longitude/(15*24),
	}

	// Initial guesses in hours, refined twice.
	guess := [7]float64{5, 6, 12, 13, 18, 18, 18}
	hours := a.compute(params, guess)
	for i, h := range hours {
		if !math.IsNaN(h) {
			guess[i] = h
		}
	}
	hours = a.compute(params, guess)

	fajr, sunrise, dhuhr, asr, sunset, maghrib, isha := hours[0], hours[1], hours[2], hours[3], hours[4], hours[5], hours[6]
	for _, v := range []float64{sunrise, dhuhr, asr, sunset} {
		if math.IsNaN(v) {
			return DayTimes{}, fmt.Errorf("%w: the sun does not rise or set at latitude %f on %s",
				ErrScheduleBuild, coords.Latitude, date.Format(time.DateOnly))
		}
	}
	if math.IsNaN(maghrib) {
		maghrib = sunset
	}

	night := timeDiff(sunset, sunrise)
	if portion := nightPortion(params.HighLatitudeRule, params.FajrAngle) * night; math.IsNaN(fajr) || timeDiff(fajr, sunrise) > portion {
		fajr = sunrise - portion
	}
	if params.IshaInterval > 0 {
		isha = maghrib + float64(params.IshaInterval)/60
	} else if portion := nightPortion(params.HighLatitudeRule, params.IshaAngle) * night; math.IsNaN(isha) || timeDiff(sunset, isha) > portion {
		isha = sunset + portion
	}

	// Convert local solar hours to UTC hours.
	shift := coords.Longitude / 15
	base := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	at := func(h float64, adjust int) time.Time {
		t := base.Add(time.Duration((h - shift) * float64(time.Hour))).Round(time.Second)
		return t.Add(time.Duration(adjust) * time.Minute).In(date.Location())
	}

	adj := params.Adjustments
	return DayTimes{
		Fajr:    at(fajr, adj.Fajr),
		Sunrise: at(sunrise, adj.Sunrise),
		Dhuhr:   at(dhuhr, adj.Dhuhr),
		Asr:     at(asr, adj.Asr),
		Sunset:  at(sunset, 0),
		Maghrib: at(maghrib, adj.Maghrib),
		Isha:    at(isha, adj.Isha),
	}, nil
}

// nightPortion returns the fraction of the night used to bound twilight
// times under the given rule.
func nightPortion(rule HighLatitudeRule, angle float64) float64 {
	switch rule {
	case HighLatitudeSeventhOfTheNight:
		return 1.0 / 7
	case HighLatitudeTwilightAngle:
		return angle / 60
	default:
		return 1.0 / 2
	}
}

type astro struct {
	lat float64
	jd  float64
}

// compute returns fajr, sunrise, dhuhr, asr, sunset, maghrib and isha in
// local solar hours using guess as the day portions.
func (a astro) compute(params Parameters, guess [7]float64) [7]float64 {
	var out [7]float64
	out[0] = a.sunAngleTime(params.FajrAngle, guess[0]/24, true)
	out[1] = a.sunAngleTime(sunriseAngle, guess[1]/24, true)
	out[2] = a.midDay(guess[2] / 24)
	out[3] = a.asrTime(params.Madhab.ShadowFactor(), guess[3]/24)
	out[4] = a.sunAngleTime(sunriseAngle, guess[4]/24, false)
	if params.MaghribAngle > 0 {
		out[5] = a.sunAngleTime(params.MaghribAngle, guess[5]/24, false)
	} else {
		out[5] = out[4]
	}
	out[6] = math.NaN()
	if params.IshaAngle > 0 {
		out[6] = a.sunAngleTime(params.IshaAngle, guess[6]/24, false)
	}
	return out
}

// sunPosition returns the solar declination in degrees and the equation of
// time in hours for julian date jd.
func sunPosition(jd float64) (decl, eqt float64) {
	d := jd - 2451545.0
	g := fixAngle(357.529 + 0.98560028*d)
	q := fixAngle(280.459 + 0.98564736*d)
	l := fixAngle(q + 1.915*dsin(g) + 0.020*dsin(2*g))
	e := 23.439 - 0.00000036*d

	ra := fixHour(darctan2(dcos(e)*dsin(l), dcos(l)) / 15)
	eqt = q/15 - ra
	decl = darcsin(dsin(e) * dsin(l))
	return decl, eqt
}

func (a astro) midDay(t float64) float64 {
	_, eqt := sunPosition(a.jd + t)
	return fixHour(12 - eqt)
}

// sunAngleTime returns the time at which the sun is angle degrees below the
// horizon, before noon when ccw is set.
func (a astro) sunAngleTime(angle, t float64, ccw bool) float64 {
	decl, _ := sunPosition(a.jd + t)
	noon := a.midDay(t)
	v := (-dsin(angle) - dsin(decl)*dsin(a.lat)) / (dcos(decl) * dcos(a.lat))
	if v < -1 || v > 1 {
		return math.NaN()
	}
	h := darccos(v) / 15
	if ccw {
		return noon - h
	}
	return noon + h
}

func (a astro) asrTime(factor, t float64) float64 {
	decl, _ := sunPosition(a.jd + t)
	angle := -darccot(factor + dtan(math.Abs(a.lat-decl)))
	return a.sunAngleTime(angle, t, false)
}

func julianDate(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

// timeDiff returns the hours from a forward to b, wrapping around midnight.
func timeDiff(a, b float64) float64 {
	return fixHour(b - a)
}

func fixAngle(a float64) float64 { return fix(a, 360) }
func fixHour(a float64) float64 { return fix(a, 24) }

func fix(a, b float64) float64 {
	a = a - b*math.Floor(a/b)
	if a < 0 {
		a += b
	}
	return a
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func dsin(d float64) float64 { return math.Sin(rad(d)) }
func dcos(d float64) float64 { return math.Cos(rad(d)) }
func dtan(d float64) float64 { return math.Tan(rad(d)) }
func darcsin(x float64) float64 { return deg(math.Asin(x)) }
func darccos(x float64) float64 { return deg(math.Acos(x)) }
func darctan2(y, x float64) float64 { return deg(math.Atan2(y, x)) }
func darccot(x float64) float64 { return deg(math.Atan(1 / x)) }
