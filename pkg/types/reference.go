package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the logical name of a reference-data collection.
type Kind string

const (
	KindComposers         Kind = "composers"
	KindPeriods           Kind = "periods"
	KindForms             Kind = "forms"
	KindTerms             Kind = "terms"
	KindWeeklyAlbums      Kind = "weeklyAlbums"
	KindMonthlySpotlights Kind = "monthlySpotlights"
	KindNewReleases       Kind = "newReleases"
	KindConcertHalls      Kind = "concertHalls"
	KindKickstartDays     Kind = "kickstartDays"
)

// AllKinds returns every collection kind in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindComposers,
		KindPeriods,
		KindForms,
		KindTerms,
		KindWeeklyAlbums,
		KindMonthlySpotlights,
		KindNewReleases,
		KindConcertHalls,
		KindKickstartDays,
	}
}

// ParseKind maps a logical collection name to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown reference data kind %q", s)
}

// Identified is implemented by every reference record.
type Identified interface {
	GetID() string
}

// ListenLinks holds external listening links for a composer.
type ListenLinks struct {
	Spotify    string `json:"spotify,omitempty"`
	AppleMusic string `json:"apple_music,omitempty"`
	YouTube    string `json:"youtube,omitempty"`
}

// Composer is a composer profile.
type Composer struct {
	ID          string      `json:"id" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	Years       string      `json:"years"`
	Period      string      `json:"period" validate:"required"`
	Nationality string      `json:"nationality"`
	ShortBio    string      `json:"short_bio"`
	Biography   string      `json:"biography"`
	KeyWorks    []string    `json:"key_works"`
	ListenFirst string      `json:"listen_first"`
	Links       ListenLinks `json:"links"`
}

func (c Composer) GetID() string { return c.ID }

// Period is a musical era such as the Baroque.
type Period struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Years     string `json:"years"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	Color     string `json:"color"`
}

func (p Period) GetID() string { return p.ID }

// MusicalForm is a form or genre such as the symphony.
type MusicalForm struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (f MusicalForm) GetID() string { return f.ID }

// Term is a glossary entry. ID is always the string form of the source identifier.
type Term struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	Category   string `json:"category"`
	Definition string `json:"definition"`
}

func (t Term) GetID() string { return t.ID }

// RawTerm is a glossary entry as stored in bundles and remote tables, where the
// identifier may be numeric.
type RawTerm struct {
	ID         any    `json:"id" validate:"required"`
	Term       string `json:"term" validate:"required"`
	Category   string `json:"category"`
	Definition string `json:"definition"`
}

// Normalize converts the raw entry into a Term with a string identifier.
func (r RawTerm) Normalize() Term {
	return Term{
		ID:         NormalizeID(r.ID),
		Term:       r.Term,
		Category:   r.Category,
		Definition: r.Definition,
	}
}

// NormalizeID renders an identifier as a string. Integral numbers are printed
// without a fractional part. Applying it to its own output is a no-op.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := id.Float64(); err == nil {
			return NormalizeID(f)
		}
		return id.String()
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1e15 {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return NormalizeID(float64(id))
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint:
		return strconv.FormatUint(uint64(id), 10)
	case uint32:
		return strconv.FormatUint(uint64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case []byte:
		return string(id)
	default:
		return fmt.Sprintf("%v", id)
	}
}

// KeyMoment marks a passage worth listening for on an album.
type KeyMoment struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// WeeklyAlbum is the album featured in a given week.
type WeeklyAlbum struct {
	ID            string      `json:"id" validate:"required"`
	Week          int         `json:"week" validate:"gte=1"`
	Title         string      `json:"title" validate:"required"`
	Artist        string      `json:"artist"`
	Year          int         `json:"year"`
	Description   string      `json:"description"`
	KeyMoments    []KeyMoment `json:"key_moments"`
	ListenerLevel string      `json:"listener_level"`
}

func (a WeeklyAlbum) GetID() string { return a.ID }

// MonthlySpotlight is a monthly editorial feature.
type MonthlySpotlight struct {
	ID          string `json:"id" validate:"required"`
	Month       int    `json:"month" validate:"gte=1,lte=12"`
	Year        int    `json:"year"`
	Title       string `json:"title" validate:"required"`
	ComposerID  string `json:"composer_id"`
	Description string `json:"description"`
}

func (s MonthlySpotlight) GetID() string { return s.ID }

// NewRelease is a recently released recording.
type NewRelease struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Artist      string `json:"artist"`
	Label       string `json:"label"`
	ReleaseDate string `json:"release_date"`
	Description string `json:"description"`
}

func (r NewRelease) GetID() string { return r.ID }

// ConcertHall is a notable concert venue.
type ConcertHall struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Opened      int    `json:"opened"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

func (h ConcertHall) GetID() string { return h.ID }

// KickstartDay is one day of the beginner listening programme.
type KickstartDay struct {
	ID          string `json:"id" validate:"required"`
	Day         int    `json:"day" validate:"gte=1"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Listening   string `json:"listening"`
	Task        string `json:"task"`
}

func (d KickstartDay) GetID() string { return d.ID }
