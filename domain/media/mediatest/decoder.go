package mediatest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"montage-media/domain/media"
)

// Decoder serves sessions over registered clips
type Decoder struct {
	Clips   map[string]*Clip
	OpenErr error

	// Sessions records every session handed out, in order
	Sessions []*Session
}

// NewDecoder creates a decoder with no clips registered
func NewDecoder() *Decoder {
	return &Decoder{Clips: make(map[string]*Clip)}
}

// Add registers clip under path
func (d *Decoder) Add(path string, clip *Clip) *Decoder {
	d.Clips[path] = clip
	return d
}

func (d *Decoder) Open(ctx context.Context, path string) (media.Session, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	clip, ok := d.Clips[path]
	if !ok {
		return nil, fmt.Errorf("mediatest: no clip registered for %s", path)
	}
	s := &Session{clip: clip}
	d.Sessions = append(d.Sessions, s)
	return s, nil
}

// AllClosed returns true if every session and every picture handed out was released
func (d *Decoder) AllClosed() bool {
	for _, s := range d.Sessions {
		if !s.Closed || s.OpenImages() > 0 {
			return false
		}
	}
	return true
}

var _ media.Decoder = (*Decoder)(nil)

// Session walks a Clip
type Session struct {
	clip   *Clip
	vi     int
	ai     int
	served int
	issued []*Image

	Closed bool
	Seeks  []time.Duration
}

func (s *Session) Info() media.StreamInfo {
	return s.clip.Info
}

func (s *Session) NextImage() (media.Image, time.Duration, error) {
	if s.clip.ReadErr != nil && s.served >= s.clip.ReadErrAfter {
		return nil, 0, s.clip.ReadErr
	}
	if s.vi >= len(s.clip.Frames) {
		return nil, 0, io.EOF
	}
	f := s.clip.Frames[s.vi]
	s.vi++
	s.served++
	img := f.Image.clone()
	s.issued = append(s.issued, img)
	return img, f.Timestamp, nil
}

func (s *Session) NextAudio() (media.AudioChunk, error) {
	if s.clip.AudioErr != nil && s.ai >= s.clip.AudioErrAfter {
		return media.AudioChunk{}, s.clip.AudioErr
	}
	if s.ai >= len(s.clip.Audio) {
		return media.AudioChunk{}, io.EOF
	}
	c := s.clip.Audio[s.ai]
	s.ai++
	return c, nil
}

func (s *Session) Next() (media.Frame, error) {
	videoLeft := s.vi < len(s.clip.Frames)
	audioLeft := s.ai < len(s.clip.Audio)
	switch {
	case videoLeft && (!audioLeft || s.clip.Frames[s.vi].Timestamp <= s.clip.Audio[s.ai].Timestamp):
		img, ts, err := s.NextImage()
		if err != nil {
			return media.Frame{}, err
		}
		return media.Frame{Timestamp: ts, Image: img}, nil
	case audioLeft:
		c, err := s.NextAudio()
		if err != nil {
			return media.Frame{}, err
		}
		return media.Frame{Timestamp: c.Timestamp, Audio: &c}, nil
	default:
		if s.clip.ReadErr != nil && s.served >= s.clip.ReadErrAfter {
			return media.Frame{}, s.clip.ReadErr
		}
		return media.Frame{}, io.EOF
	}
}

// Seek positions both streams at the first item at or after ts
func (s *Session) Seek(ts time.Duration) error {
	s.Seeks = append(s.Seeks, ts)
	s.vi = sort.Search(len(s.clip.Frames), func(i int) bool {
		return s.clip.Frames[i].Timestamp >= ts
	})
	s.ai = sort.Search(len(s.clip.Audio), func(i int) bool {
		return s.clip.Audio[i].Timestamp >= ts
	})
	return nil
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

// OpenImages returns how many pictures handed out have not been closed
func (s *Session) OpenImages() int {
	n := 0
	for _, img := range s.issued {
		if !img.Closed {
			n++
		}
	}
	return n
}

var _ media.Session = (*Session)(nil)

// FileChecker reports existence from a fixed set of paths
type FileChecker struct {
	Files map[string]bool

	// Dirs records every EnsureParentDir request
	Dirs   []string
	DirErr error
}

// NewFileChecker creates a checker that knows about paths
func NewFileChecker(paths ...string) *FileChecker {
	fc := &FileChecker{Files: make(map[string]bool)}
	for _, p := range paths {
		fc.Files[p] = true
	}
	return fc
}

func (f *FileChecker) Exists(path string) bool {
	return f.Files[path]
}

// EnsureParentDir records the request and returns DirErr
func (f *FileChecker) EnsureParentDir(path string) error {
	f.Dirs = append(f.Dirs, path)
	return f.DirErr
}

var (
	_ media.FileChecker      = (*FileChecker)(nil)
	_ media.DirectoryCreator = (*FileChecker)(nil)
)
