package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/streamoverlay/server/internal/player"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid path")
)

// playlistTempSuffix is appended by the segmenter while a playlist is being rewritten.
const playlistTempSuffix = ".tmp"

type service struct {
	dir string
}

func NewService(dir string) *service {
	return &service{dir: dir}
}

func (s service) Dir() string {
	return s.dir
}

func (s service) AbsDir() (string, error) {
	return filepath.Abs(s.dir)
}

// Resolve maps a request path below the streams directory to a file on disk.
// A missing playlist falls back to its temporary sibling.
func (s service) Resolve(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\x00") {
		return "", ErrInvalidPath
	}

	fullPath := filepath.Join(s.dir, filepath.FromSlash(clean))
	if isFile(fullPath) {
		return fullPath, nil
	}

	if strings.HasSuffix(clean, ".m3u8") && isFile(fullPath+playlistTempSuffix) {
		return fullPath + playlistTempSuffix, nil
	}

	return fullPath, fmt.Errorf("%s: %w", clean, ErrFileNotFound)
}

// Files lists the names in the streams directory.
func (s service) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.Name())
	}
	sort.Strings(files)

	return files, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Describe parses the playlist name and describes it as served at streamURL.
func (s service) Describe(name, streamURL string) (player.Playback, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return player.Playback{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return player.Playback{}, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	return player.Describe(streamURL, f)
}
