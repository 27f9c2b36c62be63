package records

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSong = `{"num_songs": 1, "artist_id": "AR5KOSW1187FB35FF4", "artist_latitude": 49.80388, "artist_longitude": 15.47491, "artist_location": "Dresden, Germany", "artist_name": "Harmonia", "song_id": "SOZCTXZ12AB0182364", "title": "Sehr kosmisch", "duration": 655.77, "year": 0}`

func TestReadSongFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TRAAAAW128F429D538.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSong), 0o644))

	songs, err := ReadSongFile(path)
	require.NoError(t, err)
	require.Len(t, songs, 1)

	s := songs[0]
	assert.Equal(t, "AR5KOSW1187FB35FF4", s.ArtistID)
	assert.Equal(t, "Harmonia", s.ArtistName)
	assert.Equal(t, "SOZCTXZ12AB0182364", s.SongID)
	assert.Equal(t, "Sehr kosmisch", s.Title)
	assert.Equal(t, 655.77, s.Duration)
	assert.Equal(t, 1, s.NumSongs)
	assert.Equal(t, 0, s.Year)
	require.NotNil(t, s.ArtistLatitude)
	assert.InDelta(t, 49.80388, *s.ArtistLatitude, 1e-9)
	require.NotNil(t, s.ArtistLocation)
	assert.Equal(t, "Dresden, Germany", *s.ArtistLocation)
}

func TestDecodeSongs_NullCoordinates(t *testing.T) {
	in := `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

	songs, err := DecodeSongs(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Nil(t, songs[0].ArtistLatitude)
	assert.Nil(t, songs[0].ArtistLongitude)
}

func TestDecodeSongs_MultipleObjects(t *testing.T) {
	songs, err := DecodeSongs(strings.NewReader(sampleSong + "\n" + sampleSong + "\n"))
	require.NoError(t, err)
	assert.Len(t, songs, 2)
}

func TestDecodeSongs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyFile},
		{name: "whitespace", input: "  \n", wantErr: ErrEmptyFile},
		{name: "malformed", input: `{"song_id": `},
		{name: "wrong type", input: `{"year": "nineteen"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSongs(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestReadSongFile_Missing(t *testing.T) {
	_, err := ReadSongFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
