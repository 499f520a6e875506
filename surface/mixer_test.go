package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterCount(t *testing.T) {
	assert.Equal(t, 0, ParameterCount(nil))
	assert.Equal(t, 0, ParameterCount(newFakeTrack("empty", 0)))
	assert.Equal(t, 1, ParameterCount(newFakeTrack("one", 1)))
	assert.Equal(t, 8, ParameterCount(newFakeTrack("eight", 8)))
}

func TestMixerRebindFollowsOffset(t *testing.T) {
	strips, _, _ := fakeStrips(3)
	m := NewMixer(strips, Strip{})
	tracks := fakeTracks(5, 0)

	m.Rebind(tracks, 2)

	for s := 0; s < 3; s++ {
		track := tracks[2+s].(*fakeTrack)
		assert.Same(t, track, m.Bound(s))
		assert.Equal(t, Parameter(track.volume), strips[s].Volume.(*fakeEncoder).param)
		assert.Equal(t, Parameter(track.pan), strips[s].Pan.(*fakeEncoder).param)
		assert.Equal(t, track.sends[1], strips[s].Sends[1].(*fakeEncoder).param)
	}
}

func TestMixerReleasesStripsPastEnd(t *testing.T) {
	strips, _, mutes := fakeStrips(4)
	m := NewMixer(strips, Strip{})
	tracks := fakeTracks(4, 0)
	m.Rebind(tracks, 0)

	m.Rebind(tracks[:2], 0)

	assert.NotNil(t, m.Bound(1))
	assert.Nil(t, m.Bound(2))
	assert.Nil(t, m.Bound(3))
	assert.Nil(t, strips[3].Volume.(*fakeEncoder).param)
	assert.Equal(t, uint8(0), mutes[3].last())
}

func TestMixerBindsSecondDeviceParameter(t *testing.T) {
	strips, params, _ := fakeStrips(2)
	m := NewMixer(strips, Strip{})
	rich := newFakeTrack("rich", 4)
	tracks := []Track{rich, newFakeTrack("plain", 0)}

	m.Rebind(tracks, 0)

	assert.Equal(t, rich.devices[0].Parameters()[1], params[0].param)
	assert.Nil(t, params[1].param)
}

func TestMixerKeepsParameterWhenTrackHasTooFew(t *testing.T) {
	strips, params, _ := fakeStrips(1)
	m := NewMixer(strips, Strip{})
	rich := newFakeTrack("rich", 2)
	m.Rebind([]Track{rich}, 0)
	bound := params[0].param

	m.Rebind([]Track{newFakeTrack("single", 1)}, 0)

	assert.Equal(t, bound, params[0].param)
	assert.Equal(t, 1, params[0].connects)
}

func TestMixerMuteButtonToggles(t *testing.T) {
	strips, _, mutes := fakeStrips(2)
	m := NewMixer(strips, Strip{})
	tracks := fakeTracks(2, 0)
	m.Rebind(tracks, 0)

	mutes[1].press()

	assert.True(t, tracks[1].Mute().On())
	assert.False(t, tracks[0].Mute().On())
	assert.Equal(t, uint8(MaxValue), mutes[1].last())

	mutes[1].press()
	assert.False(t, tracks[1].Mute().On())
	assert.Equal(t, uint8(0), mutes[1].last())
}

func TestMixerMuteOnUnboundStripIsIgnored(t *testing.T) {
	strips, _, mutes := fakeStrips(2)
	m := NewMixer(strips, Strip{})
	m.Rebind(fakeTracks(1, 0), 0)

	assert.NotPanics(t, func() { mutes[1].press() })
}

func TestMixerMaster(t *testing.T) {
	master := Strip{Volume: &fakeEncoder{}, Pan: &fakeEncoder{}}
	m := NewMixer(nil, master)
	track := newFakeTrack("Master", 0)

	m.BindMaster(track)
	assert.Equal(t, Parameter(track.volume), master.Volume.(*fakeEncoder).param)

	m.Release()
	assert.Nil(t, master.Volume.(*fakeEncoder).param)
	assert.Nil(t, master.Pan.(*fakeEncoder).param)
}
