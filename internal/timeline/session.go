package timeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTrackType = errors.New("invalid track type")
	ErrInvalidClip      = errors.New("invalid clip")
	ErrTrackNotFound    = errors.New("track not found")
	ErrTrackLocked      = errors.New("track is locked")
)

// Session is the in-memory editor state for one project. It is not safe for
// concurrent use: callers hold their own lock for the duration of a mutation.
type Session struct {
	Tracks []Track `json:"tracks"`
	Clips  []Clip  `json:"clips"`

	now func() time.Time
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{Tracks: []Track{}, Clips: []Clip{}}
}

// SetClock replaces the time source used for created/updated stamps.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// AddTrack appends a track of the given type at the end of the list.
func (s *Session) AddTrack(typ TrackType) (Track, error) {
	if !typ.Valid() {
		return Track{}, fmt.Errorf("%w: %q", ErrInvalidTrackType, typ)
	}

	count := len(s.Tracks)
	track := Track{
		ID:        NewID(),
		Name:      fmt.Sprintf("%s %d", typ.displayName(), count+1),
		Type:      typ,
		Position:  count,
		Visible:   true,
		Color:     typ.Color(),
		CreatedAt: s.clock(),
	}
	if typ.HasVolume() {
		v := DefaultVolume
		track.Volume = &v
	}

	s.Tracks = append(s.Tracks, track)
	return track, nil
}

// Track returns the track with the given id.
func (s *Session) Track(id string) (Track, bool) {
	i := s.trackIndex(id)
	if i < 0 {
		return Track{}, false
	}
	return s.Tracks[i], true
}

// UpdateTrack merges the non-nil fields of u into the track. It reports false,
// and changes nothing, when no track has that id.
func (s *Session) UpdateTrack(id string, u TrackUpdate) bool {
	i := s.trackIndex(id)
	if i < 0 {
		return false
	}

	t := &s.Tracks[i]
	if u.Visible != nil {
		t.Visible = *u.Visible
	}
	if u.Locked != nil {
		t.Locked = *u.Locked
	}
	if u.Muted != nil {
		t.Muted = *u.Muted
	}
	if u.Solo != nil {
		t.Solo = *u.Solo
	}
	if u.Volume != nil && t.Type.HasVolume() {
		v := clampVolume(*u.Volume)
		t.Volume = &v
	}
	s.touch(t)
	return true
}

// RemoveTrack deletes the track, every clip placed on it, and renumbers the
// remaining positions.
func (s *Session) RemoveTrack(id string) bool {
	i := s.trackIndex(id)
	if i < 0 {
		return false
	}

	s.Tracks = append(s.Tracks[:i], s.Tracks[i+1:]...)
	s.renumber()

	kept := s.Clips[:0]
	for _, c := range s.Clips {
		if c.TrackID != id {
			kept = append(kept, c)
		}
	}
	// Zero the tail so dropped clips do not linger in the backing array.
	for j := len(kept); j < len(s.Clips); j++ {
		s.Clips[j] = Clip{}
	}
	s.Clips = kept
	return true
}

// ReorderTracks moves the track at src to dst, shifting the tracks in between
// by one, and renumbers every position. Out-of-range indices leave the session
// untouched and report false.
func (s *Session) ReorderTracks(src, dst int) bool {
	n := len(s.Tracks)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return false
	}
	if src == dst {
		return true
	}

	moved := s.Tracks[src]
	if src < dst {
		copy(s.Tracks[src:dst], s.Tracks[src+1:dst+1])
	} else {
		copy(s.Tracks[dst+1:src+1], s.Tracks[dst:src])
	}
	s.Tracks[dst] = moved
	s.renumber()
	return true
}

// SetSolo sets the solo flag on a track and unmutes it. Soloing a track mutes
// every other track; un-soloing never unmutes them, the user does that.
func (s *Session) SetSolo(id string, solo bool) bool {
	i := s.trackIndex(id)
	if i < 0 {
		return false
	}

	if solo {
		for j := range s.Tracks {
			if j != i && !s.Tracks[j].Muted {
				s.Tracks[j].Muted = true
				s.touch(&s.Tracks[j])
			}
		}
	}

	t := &s.Tracks[i]
	t.Solo = solo
	t.Muted = false
	s.touch(t)
	return true
}

// AddClip places a clip on an existing track. A zero LayerID is derived from
// the track type, an empty ID is generated.
func (s *Session) AddClip(c Clip) (Clip, error) {
	ti := s.trackIndex(c.TrackID)
	if ti < 0 {
		return Clip{}, fmt.Errorf("%w: %s", ErrTrackNotFound, c.TrackID)
	}
	if s.Tracks[ti].Locked {
		return Clip{}, ErrTrackLocked
	}
	if err := validateClip(c); err != nil {
		return Clip{}, err
	}

	if c.ID == "" {
		c.ID = NewID()
	}
	if c.LayerID == 0 {
		c.LayerID = s.Tracks[ti].Type.Layer()
	}
	s.Clips = append(s.Clips, c)
	return c, nil
}

// Clip returns the clip with the given id.
func (s *Session) Clip(id string) (Clip, bool) {
	i := s.clipIndex(id)
	if i < 0 {
		return Clip{}, false
	}
	return s.Clips[i], true
}

// UpdateClip merges u into the clip. It reports false when no clip has that id.
func (s *Session) UpdateClip(id string, u ClipUpdate) (Clip, bool, error) {
	i := s.clipIndex(id)
	if i < 0 {
		return Clip{}, false, nil
	}
	if s.onLockedTrack(s.Clips[i]) {
		return Clip{}, true, ErrTrackLocked
	}

	c := s.Clips[i]
	if u.Start != nil {
		c.Start = *u.Start
	}
	if u.Duration != nil {
		c.Duration = *u.Duration
	}
	if u.URL != nil {
		c.URL = *u.URL
	}
	if u.ImageURL != nil {
		c.ImageURL = *u.ImageURL
	}
	if u.VideoURL != nil {
		c.VideoURL = *u.VideoURL
	}
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Effects != nil {
		c.Effects = u.Effects
	}
	if u.Transition != nil {
		c.Transition = u.Transition
	}
	if u.Metadata != nil {
		c.Metadata = *u.Metadata
	}
	if err := validateClip(c); err != nil {
		return Clip{}, true, err
	}

	s.Clips[i] = c
	return c, true, nil
}

// RemoveClip deletes a clip. It reports false when no clip has that id.
func (s *Session) RemoveClip(id string) (bool, error) {
	i := s.clipIndex(id)
	if i < 0 {
		return false, nil
	}
	if s.onLockedTrack(s.Clips[i]) {
		return true, ErrTrackLocked
	}
	s.Clips = append(s.Clips[:i], s.Clips[i+1:]...)
	return true, nil
}

func (s *Session) onLockedTrack(c Clip) bool {
	ti := s.trackIndex(c.TrackID)
	return ti >= 0 && s.Tracks[ti].Locked
}

// ClipsOnLayer returns the clips on the given export layer, in session order.
func (s *Session) ClipsOnLayer(layer int) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.LayerID == layer {
			out = append(out, c)
		}
	}
	return out
}

// Duration is the end time of the last clip, in seconds.
func (s *Session) Duration() float64 {
	var d float64
	for _, c := range s.Clips {
		if end := c.End(); end > d {
			d = end
		}
	}
	return d
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s *Session) Clone() *Session {
	out := &Session{
		Tracks: make([]Track, len(s.Tracks)),
		Clips:  make([]Clip, len(s.Clips)),
		now:    s.now,
	}
	copy(out.Tracks, s.Tracks)
	for i := range out.Tracks {
		if v := out.Tracks[i].Volume; v != nil {
			vv := *v
			out.Tracks[i].Volume = &vv
		}
	}
	copy(out.Clips, s.Clips)
	for i := range out.Clips {
		if s.Clips[i].Effects != nil {
			out.Clips[i].Effects = append([]Effect(nil), s.Clips[i].Effects...)
			for j := range out.Clips[i].Effects {
				if p := out.Clips[i].Effects[j].Params; p != nil {
					out.Clips[i].Effects[j].Params = cloneParams(p)
				}
			}
		}
		if tr := s.Clips[i].Transition; tr != nil {
			trc := *tr
			out.Clips[i].Transition = &trc
		}
	}
	return out
}

func cloneParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneParams(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

func (s *Session) trackIndex(id string) int {
	for i := range s.Tracks {
		if s.Tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) clipIndex(id string) int {
	for i := range s.Clips {
		if s.Clips[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) renumber() {
	for i := range s.Tracks {
		s.Tracks[i].Position = i
	}
}

func (s *Session) touch(t *Track) {
	now := s.clock()
	t.UpdatedAt = &now
}

func validateClip(c Clip) error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidClip, c.Type)
	}
	if c.Start < 0 {
		return fmt.Errorf("%w: start must be >= 0", ErrInvalidClip)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be > 0", ErrInvalidClip)
	}
	return nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
