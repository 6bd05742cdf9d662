package ring

// Color is an opaque visual identifier handed back to observers.
type Color string

const (
	// DefaultIdleColor is shown by positions no track covers.
	DefaultIdleColor Color = "black"
	// DefaultTrackColor is used when a track is created without a color.
	DefaultTrackColor Color = "red"
)

// Track pairs a color identity with a SpeedProfile. It represents one
// kind of moving segment and is shared read-only by every position.
type Track struct {
	color   Color
	tag     string
	profile *SpeedProfile
}

// NewTrack returns a track for profile. An empty color falls back to
// DefaultTrackColor.
func NewTrack(profile *SpeedProfile, color Color, tag string) (*Track, error) {
	if profile == nil {
		return nil, &ConfigurationError{Field: "track", Reason: "speed profile is required", Err: ErrEmptyProfile}
	}
	if color == "" {
		color = DefaultTrackColor
	}
	return &Track{color: color, tag: tag, profile: profile}, nil
}

// MustTrack is like NewTrack but panics on error.
func MustTrack(profile *SpeedProfile, color Color, tag string) *Track {
	t, err := NewTrack(profile, color, tag)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Track) Color() Color           { return t.color }
func (t *Track) Tag() string            { return t.tag }
func (t *Track) Profile() *SpeedProfile { return t.profile }

// Label returns the tag, or the color when the track is untagged.
func (t *Track) Label() string {
	if t.tag != "" {
		return t.tag
	}
	return string(t.color)
}
