package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/grafov/m3u8"
)

type Variant struct {
	URI        string `json:"uri"`
	Bandwidth  uint32 `json:"bandwidth"`
	Resolution string `json:"resolution,omitempty"`
	Codecs     string `json:"codecs,omitempty"`
}

// Playback describes how a client should play a stream.
type Playback struct {
	StreamURL      string    `json:"stream_url"`
	PlaybackType   string    `json:"playback_type"`
	MimeType       string    `json:"mime_type"`
	Live           bool      `json:"live"`
	TargetDuration float64   `json:"target_duration,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
}

// Describe parses the playlist read from r. Live and TargetDuration are
// only known for media playlists.
func Describe(streamURL string, r io.Reader) (Playback, error) {
	pl, listType, err := m3u8.DecodeFrom(r, false)
	if err != nil {
		return Playback{}, fmt.Errorf("failed to decode playlist: %w", err)
	}

	return describe(streamURL, pl, listType)
}

// Probe fetches manifestURL and describes it. For a master playlist the
// lowest variant is fetched as well to tell live from VOD.
func (p *Player) Probe(ctx context.Context, manifestURL string) (Playback, error) {
	pl, listType, err := p.fetchPlaylist(ctx, manifestURL)
	if err != nil {
		return Playback{}, err
	}

	pb, err := describe(manifestURL, pl, listType)
	if err != nil {
		return Playback{}, err
	}
	if listType == m3u8.MEDIA {
		return pb, nil
	}

	media, err := p.fetchMedia(ctx, pb.Variants[0].URI)
	if err != nil {
		return Playback{}, err
	}
	pb.Live = !media.Closed
	pb.TargetDuration = media.TargetDuration

	return pb, nil
}

func describe(streamURL string, pl m3u8.Playlist, listType m3u8.ListType) (Playback, error) {
	pb := Playback{
		StreamURL:    streamURL,
		PlaybackType: PlaybackTypeHLS,
		MimeType:     MimeTypeHLS,
	}

	switch listType {
	case m3u8.MASTER:
		master := pl.(*m3u8.MasterPlaylist)
		variants, err := masterVariants(streamURL, master)
		if err != nil {
			return Playback{}, err
		}
		pb.Variants = variants
	case m3u8.MEDIA:
		media := pl.(*m3u8.MediaPlaylist)
		pb.Live = !media.Closed
		pb.TargetDuration = media.TargetDuration
		pb.Variants = []Variant{{URI: streamURL}}
	default:
		return Playback{}, fmt.Errorf("unknown playlist type %d", listType)
	}

	return pb, nil
}

// masterVariants returns the variants of master, absolute and sorted by
// ascending bandwidth.
func masterVariants(base string, master *m3u8.MasterPlaylist) ([]Variant, error) {
	variants := make([]Variant, 0, len(master.Variants))
	for _, v := range master.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		uri, err := resolve(base, v.URI)
		if err != nil {
			return nil, err
		}
		variants = append(variants, Variant{
			URI:        uri,
			Bandwidth:  v.Bandwidth,
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
		})
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Bandwidth < variants[j].Bandwidth
	})

	return variants, nil
}

type segment struct {
	Seq uint64
	URI string
}

// segmentsFrom lists the segments of media with a sequence number of at
// least from, with absolute URIs.
func segmentsFrom(base string, media *m3u8.MediaPlaylist, from uint64) ([]segment, error) {
	var segs []segment
	var i uint64
	for _, s := range media.Segments {
		if s == nil {
			continue
		}
		seq := media.SeqNo + i
		i++
		if seq < from {
			continue
		}
		uri, err := resolve(base, s.URI)
		if err != nil {
			return nil, err
		}
		segs = append(segs, segment{Seq: seq, URI: uri})
	}

	return segs, nil
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid playlist url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid uri %q: %w", ref, err)
	}

	return b.ResolveReference(r).String(), nil
}

func (p *Player) fetchPlaylist(ctx context.Context, u string) (m3u8.Playlist, m3u8.ListType, error) {
	raw, err := p.get(ctx, u)
	if err != nil {
		return nil, 0, err
	}

	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(raw), false)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode playlist %s: %w", u, err)
	}

	return pl, listType, nil
}

func (p *Player) fetchMedia(ctx context.Context, u string) (*m3u8.MediaPlaylist, error) {
	pl, listType, err := p.fetchPlaylist(ctx, u)
	if err != nil {
		return nil, err
	}
	if listType != m3u8.MEDIA {
		return nil, fmt.Errorf("playlist %s is not a media playlist", u)
	}

	return pl.(*m3u8.MediaPlaylist), nil
}

func (p *Player) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}

	return raw, nil
}
