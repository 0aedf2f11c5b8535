package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_MenuOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 6)

	ids := make([]ID, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []ID{Crop, MakeVoice, MakeOpus, SetCover, Thumbnail, MakeRounded}, ids)
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0].Title = "mutated"

	second := All()
	assert.NotEqual(t, "mutated", second[0].Title)
}

func TestLookup(t *testing.T) {
	t.Run("known action", func(t *testing.T) {
		a, err := Lookup(Crop)
		require.NoError(t, err)
		assert.Equal(t, Crop, a.ID)
		assert.Equal(t, KindAudio, a.Kind)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := Lookup("transcode")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(MakeVoice))
	assert.False(t, IsKnown(""))
	assert.False(t, IsKnown("nope"))
}

func TestRangePolicies(t *testing.T) {
	tests := []struct {
		id       ID
		hasRange bool
		deferred bool
		ceiling  int
	}{
		{Crop, true, false, DefaultCeiling},
		{MakeVoice, true, true, DefaultCeiling},
		{MakeOpus, false, false, 0},
		{SetCover, false, false, 0},
		{Thumbnail, false, false, 0},
		{MakeRounded, true, true, RoundedCeiling},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			a, err := Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.hasRange, a.HasRange())
			assert.Equal(t, tt.deferred, a.AllowsDeferredRange())
			assert.Equal(t, tt.ceiling, a.Ceiling)
		})
	}
}

func TestArtworkActions(t *testing.T) {
	for _, a := range All() {
		needs := a.ID == SetCover || a.ID == Thumbnail
		assert.Equal(t, needs, a.NeedsArtwork, "action %s", a.ID)
	}
}

func TestVideoActions(t *testing.T) {
	for _, a := range All() {
		if a.ID == MakeRounded {
			assert.Equal(t, KindVideo, a.Kind)
		} else {
			assert.Equal(t, KindAudio, a.Kind, "action %s", a.ID)
		}
	}
}
