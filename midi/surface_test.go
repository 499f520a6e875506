package midi_test

import (
	"fmt"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oslo-surface/host"
	"oslo-surface/midi"
	"oslo-surface/surface"
)

type wire struct {
	msgs []gomidi.Message
}

func (w *wire) send(msg gomidi.Message) error {
	w.msgs = append(w.msgs, msg)
	return nil
}

func (w *wire) sent(msg gomidi.Message) bool {
	for _, m := range w.msgs {
		if string(m) == string(msg) {
			return true
		}
	}
	return false
}

func trackNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Track %d", i+1)
	}
	return names
}

func TestFaderfoxDrivesSong(t *testing.T) {
	song := host.NewSong()
	song.SetTracks(trackNames(20))
	song.SetReturns([]string{"A Reverb", "B Delay"})
	loop := host.NewLoop(time.Hour, nil)
	hw := &wire{}
	controls, err := midi.NewControls(midi.DefaultLayout(), midi.DefaultStrips, &midi.Output{})
	require.NoError(t, err)
	controls.Output().Set(hw.send)

	s, err := surface.New(song, controls.Surface(), loop)
	require.NoError(t, err)
	defer s.Disconnect()

	// turn the track select knob forward 14 times
	for i := 0; i < 14; i++ {
		require.True(t, controls.Dispatch(gomidi.ControlChange(12, 59, 1)))
	}
	assert.Equal(t, 14, song.SelectedTrack())
	assert.Equal(t, 4, s.CurrentWindowOffset())
	assert.True(t, hw.sent(gomidi.ControlChange(12, 59, 15)), "track number feedback")

	// the first volume fader now drives track 5
	controls.Dispatch(gomidi.ControlChange(12, 40, 127))
	five, err := song.Track(4)
	require.NoError(t, err)
	assert.Equal(t, 1.0, five.Volume().Value())

	// the return volume knob drives the first return
	controls.Dispatch(gomidi.ControlChange(13, 27, 127))
	reverb, err := song.Return(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, reverb.Volume().Value())

	// mute button on the last strip mutes track 15
	controls.Dispatch(gomidi.NoteOn(13, 106, 127))
	fifteen, _ := song.Track(14)
	assert.True(t, fifteen.Mute().On())
	assert.True(t, hw.sent(gomidi.NoteOn(13, 106, 127)))

	// beats pulse the play LED
	song.SetPosition(0)
	assert.True(t, hw.sent(gomidi.NoteOn(13, 107, 127)))
	loop.Advance()
	loop.Advance()
	assert.Equal(t, gomidi.NoteOn(13, 107, 0), hw.msgs[len(hw.msgs)-1])

	// play button starts the transport
	controls.Dispatch(gomidi.NoteOn(13, 107, 127))
	assert.True(t, song.IsPlaying())
}

func TestFaderfoxFollowsDeviceParams(t *testing.T) {
	song := host.NewSong()
	song.SetTracks(trackNames(3))
	controls, err := midi.NewControls(midi.DefaultLayout(), midi.DefaultStrips, nil)
	require.NoError(t, err)
	s, err := surface.New(song, controls.Surface(), host.NewLoop(time.Hour, nil))
	require.NoError(t, err)
	defer s.Disconnect()

	require.NoError(t, song.SetDeviceParams(1, "Auto Filter", []host.ParamSpec{
		{Name: "Device On", Value: 1, Max: 1},
		{Name: "Frequency", Value: 0, Max: 1},
	}))

	controls.Dispatch(gomidi.ControlChange(12, 9, 127))
	two, _ := song.Track(1)
	assert.Equal(t, 1.0, two.DeviceParams()[1].Value())
	assert.Equal(t, 1.0, two.DeviceParams()[0].Value(), "only the second parameter is mapped")
}
