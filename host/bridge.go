package host

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
	"go.uber.org/zap"

	"oslo-surface/surface"
)

// Inbound addresses, sent by the host script
const (
	AddrSongTime     = "/live/song/time"
	AddrSongPlaying  = "/live/song/playing"
	AddrSongTracks   = "/live/song/tracks"
	AddrSongReturns  = "/live/song/returns"
	AddrTrackVolume  = "/live/track/volume"
	AddrTrackPanning = "/live/track/panning"
	AddrTrackSend    = "/live/track/send"
	AddrTrackMute    = "/live/track/mute"
	AddrTrackParams  = "/live/track/params"
	AddrReturnVolume = "/live/return/volume"
	AddrMasterVolume = "/live/master/volume"
	AddrMasterPan    = "/live/master/panning"
	AddrViewTrack    = "/live/view/track"
)

// Outbound addresses, sent to the host script
const (
	AddrSetTrackVolume  = "/live/track/set/volume"
	AddrSetTrackPanning = "/live/track/set/panning"
	AddrSetTrackSend    = "/live/track/set/send"
	AddrSetTrackMute    = "/live/track/set/mute"
	AddrSetTrackParam   = "/live/track/set/param"
	AddrSetReturnVolume = "/live/return/set/volume"
	AddrSetMasterVolume = "/live/master/set/volume"
	AddrSetMasterPan    = "/live/master/set/panning"
	AddrSetViewTrack    = "/live/view/set/track"
	AddrSetPlaying      = "/live/song/set/playing"
	AddrSync            = "/live/song/sync"
)

// Sender delivers OSC packets to the host; *osc.Client satisfies it
type Sender interface {
	Send(packet osc.Packet) error
}

// BridgeConfig holds the OSC endpoints
type BridgeConfig struct {
	Listen string
	Host   string
	Port   int
}

// Bridge keeps a Song in sync with the host over OSC. Inbound messages are
// decoded on the server goroutine and applied on the Loop.
type Bridge struct {
	song   *Song
	loop   *Loop
	out    Sender
	listen string
	log    *zap.Logger

	dispatcher *osc.StandardDispatcher
}

// NewBridge wires song and loop to the OSC endpoints in cfg
func NewBridge(song *Song, loop *Loop, cfg BridgeConfig, log *zap.Logger) *Bridge {
	return NewBridgeWithSender(song, loop, osc.NewClient(cfg.Host, cfg.Port), cfg.Listen, log)
}

// NewBridgeWithSender is NewBridge with an explicit outbound sender
func NewBridgeWithSender(song *Song, loop *Loop, out Sender, listen string, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{
		song:       song,
		loop:       loop,
		out:        out,
		listen:     listen,
		log:        log,
		dispatcher: osc.NewStandardDispatcher(),
	}
	b.register()
	song.SetOutbound(b)
	return b
}

// Dispatcher exposes the message dispatcher
func (b *Bridge) Dispatcher() *osc.StandardDispatcher { return b.dispatcher }

// ListenAndServe serves inbound OSC until ctx is cancelled
func (b *Bridge) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", b.listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", b.listen, err)
	}
	return b.Serve(ctx, conn)
}

// Serve reads OSC packets from conn until ctx is cancelled. Packets are
// dispatched in arrival order so transport positions stay monotonic;
// bundles are unwrapped inline and their time tags ignored.
func (b *Bridge) Serve(ctx context.Context, conn net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	b.log.Info("osc listening", zap.String("addr", conn.LocalAddr().String()))
	buf := make([]byte, 65535)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read osc: %w", err)
		}
		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			b.log.Warn("dropping malformed packet", zap.Error(err))
			continue
		}
		b.dispatch(packet)
	}
}

// dispatch hands messages to the dispatcher one by one. The dispatcher
// would deliver bundle contents from a timer goroutine.
func (b *Bridge) dispatch(packet osc.Packet) {
	bundle, ok := packet.(*osc.Bundle)
	if !ok {
		b.dispatcher.Dispatch(packet)
		return
	}
	for _, msg := range bundle.Messages {
		b.dispatcher.Dispatch(msg)
	}
	for _, inner := range bundle.Bundles {
		b.dispatch(inner)
	}
}

// RequestSync asks the host to resend the full song state
func (b *Bridge) RequestSync() error {
	return b.send(osc.NewMessage(AddrSync))
}

func (b *Bridge) ParamChanged(ref ParamRef, value float64) {
	v := float32(value)
	var msg *osc.Message
	switch ref.Kind {
	case KindVolume:
		msg = osc.NewMessage(AddrSetTrackVolume, int32(ref.Track), v)
	case KindPan:
		msg = osc.NewMessage(AddrSetTrackPanning, int32(ref.Track), v)
	case KindSend:
		msg = osc.NewMessage(AddrSetTrackSend, int32(ref.Track), int32(ref.Index), v)
	case KindDevice:
		msg = osc.NewMessage(AddrSetTrackParam, int32(ref.Track), int32(ref.Index), v)
	case KindReturnVolume:
		msg = osc.NewMessage(AddrSetReturnVolume, int32(ref.Track), v)
	case KindMasterVolume:
		msg = osc.NewMessage(AddrSetMasterVolume, v)
	case KindMasterPan:
		msg = osc.NewMessage(AddrSetMasterPan, v)
	default:
		b.log.Warn("unknown parameter kind", zap.Int("kind", int(ref.Kind)))
		return
	}
	b.send(msg)
}

func (b *Bridge) MuteChanged(track int, on bool) {
	b.send(osc.NewMessage(AddrSetTrackMute, int32(track), boolArg(on)))
}

func (b *Bridge) SelectionChanged(track int) {
	b.send(osc.NewMessage(AddrSetViewTrack, int32(track)))
}

func (b *Bridge) PlayingChanged(playing bool) {
	b.send(osc.NewMessage(AddrSetPlaying, boolArg(playing)))
}

func (b *Bridge) send(msg *osc.Message) error {
	if err := b.out.Send(msg); err != nil {
		b.log.Warn("osc send failed", zap.String("address", msg.Address), zap.Error(err))
		return err
	}
	return nil
}

func boolArg(on bool) int32 {
	if on {
		return 1
	}
	return 0
}

// handler decodes msg off the loop and returns the update to apply on it
type handler func(msg *osc.Message) (func() error, error)

func (b *Bridge) register() {
	routes := map[string]handler{
		AddrSongTime:     b.onSongTime,
		AddrSongPlaying:  b.onSongPlaying,
		AddrSongTracks:   b.onSongTracks,
		AddrSongReturns:  b.onSongReturns,
		AddrTrackVolume:  b.onTrackVolume,
		AddrTrackPanning: b.onTrackPanning,
		AddrTrackSend:    b.onTrackSend,
		AddrTrackMute:    b.onTrackMute,
		AddrTrackParams:  b.onTrackParams,
		AddrReturnVolume: b.onReturnVolume,
		AddrMasterVolume: b.onMasterVolume,
		AddrMasterPan:    b.onMasterPan,
		AddrViewTrack:    b.onViewTrack,
	}
	for addr, h := range routes {
		b.dispatcher.AddMsgHandler(addr, b.wrap(h))
	}
}

func (b *Bridge) wrap(h handler) osc.HandlerFunc {
	return func(msg *osc.Message) {
		apply, err := h(msg)
		if err != nil {
			b.log.Warn("dropping osc message", zap.String("address", msg.Address), zap.Error(err))
			return
		}
		err = b.loop.Post(func() {
			if err := apply(); err != nil {
				b.log.Warn("osc update rejected", zap.String("address", msg.Address), zap.Error(err))
			}
		})
		if err != nil && !errors.Is(err, ErrLoopStopped) {
			b.log.Error("post failed", zap.Error(err))
		}
	}
}

func (b *Bridge) onSongTime(msg *osc.Message) (func() error, error) {
	pos, err := argFloat(msg, 0)
	if err != nil {
		return nil, err
	}
	if !surface.ValidPosition(pos) {
		return nil, fmt.Errorf("song time %v: %w", pos, ErrBadArguments)
	}
	return func() error { b.song.SetPosition(pos); return nil }, nil
}

func (b *Bridge) onSongPlaying(msg *osc.Message) (func() error, error) {
	on, err := argBool(msg, 0)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.SetPlayingState(on); return nil }, nil
}

func (b *Bridge) onSongTracks(msg *osc.Message) (func() error, error) {
	names, err := argStrings(msg)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.SetTracks(names); return nil }, nil
}

func (b *Bridge) onSongReturns(msg *osc.Message) (func() error, error) {
	names, err := argStrings(msg)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.SetReturns(names); return nil }, nil
}

func (b *Bridge) onTrackVolume(msg *osc.Message) (func() error, error) {
	return b.trackValue(msg, (*Track).VolumeParam)
}

func (b *Bridge) onTrackPanning(msg *osc.Message) (func() error, error) {
	return b.trackValue(msg, (*Track).PanParam)
}

func (b *Bridge) trackValue(msg *osc.Message, param func(*Track) *Param) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	v, err := argFloat(msg, 1)
	if err != nil {
		return nil, err
	}
	return func() error {
		t, err := b.song.Track(idx)
		if err != nil {
			return err
		}
		param(t).Update(v)
		return nil
	}, nil
}

func (b *Bridge) onTrackSend(msg *osc.Message) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	send, err := argInt(msg, 1)
	if err != nil {
		return nil, err
	}
	if send < 0 || send >= NumSends {
		return nil, fmt.Errorf("send %d: %w", send, ErrBadArguments)
	}
	v, err := argFloat(msg, 2)
	if err != nil {
		return nil, err
	}
	return func() error {
		t, err := b.song.Track(idx)
		if err != nil {
			return err
		}
		t.SendParam(send).Update(v)
		return nil
	}, nil
}

func (b *Bridge) onTrackMute(msg *osc.Message) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	on, err := argBool(msg, 1)
	if err != nil {
		return nil, err
	}
	return func() error { return b.song.SetMute(idx, on) }, nil
}

// onTrackParams decodes "i s (s f f f)*": track, device name, then name,
// value, min and max per parameter.
func (b *Bridge) onTrackParams(msg *osc.Message) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	var device string
	if len(msg.Arguments) > 1 {
		if device, err = argString(msg, 1); err != nil {
			return nil, err
		}
	}
	rest := len(msg.Arguments) - 2
	if rest < 0 {
		rest = 0
	}
	if rest%4 != 0 {
		return nil, fmt.Errorf("%d trailing parameter arguments: %w", rest, ErrBadArguments)
	}
	specs := make([]ParamSpec, 0, rest/4)
	for i := 2; i+3 < len(msg.Arguments); i += 4 {
		var spec ParamSpec
		if spec.Name, err = argString(msg, i); err != nil {
			return nil, err
		}
		if spec.Value, err = argFloat(msg, i+1); err != nil {
			return nil, err
		}
		if spec.Min, err = argFloat(msg, i+2); err != nil {
			return nil, err
		}
		if spec.Max, err = argFloat(msg, i+3); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return func() error { return b.song.SetDeviceParams(idx, device, specs) }, nil
}

func (b *Bridge) onReturnVolume(msg *osc.Message) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	v, err := argFloat(msg, 1)
	if err != nil {
		return nil, err
	}
	return func() error {
		t, err := b.song.Return(idx)
		if err != nil {
			return err
		}
		t.VolumeParam().Update(v)
		return nil
	}, nil
}

func (b *Bridge) onMasterVolume(msg *osc.Message) (func() error, error) {
	v, err := argFloat(msg, 0)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.Master().VolumeParam().Update(v); return nil }, nil
}

func (b *Bridge) onMasterPan(msg *osc.Message) (func() error, error) {
	v, err := argFloat(msg, 0)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.Master().PanParam().Update(v); return nil }, nil
}

func (b *Bridge) onViewTrack(msg *osc.Message) (func() error, error) {
	idx, err := argInt(msg, 0)
	if err != nil {
		return nil, err
	}
	return func() error { b.song.SetSelected(idx); return nil }, nil
}

func arg(msg *osc.Message, i int) (any, error) {
	if i >= len(msg.Arguments) {
		return nil, fmt.Errorf("missing argument %d: %w", i, ErrBadArguments)
	}
	return msg.Arguments[i], nil
}

func argInt(msg *osc.Message, i int) (int, error) {
	a, err := arg(msg, i)
	if err != nil {
		return 0, err
	}
	switch v := a.(type) {
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %d is %T, want int: %w", i, a, ErrBadArguments)
	}
}

func argFloat(msg *osc.Message, i int) (float64, error) {
	a, err := arg(msg, i)
	if err != nil {
		return 0, err
	}
	switch v := a.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("argument %d is %T, want float: %w", i, a, ErrBadArguments)
	}
}

func argBool(msg *osc.Message, i int) (bool, error) {
	a, err := arg(msg, i)
	if err != nil {
		return false, err
	}
	switch v := a.(type) {
	case bool:
		return v, nil
	case int32:
		return v != 0, nil
	default:
		return false, fmt.Errorf("argument %d is %T, want bool: %w", i, a, ErrBadArguments)
	}
}

func argString(msg *osc.Message, i int) (string, error) {
	a, err := arg(msg, i)
	if err != nil {
		return "", err
	}
	s, ok := a.(string)
	if !ok {
		return "", fmt.Errorf("argument %d is %T, want string: %w", i, a, ErrBadArguments)
	}
	return s, nil
}

func argStrings(msg *osc.Message) ([]string, error) {
	out := make([]string, len(msg.Arguments))
	for i := range msg.Arguments {
		s, err := argString(msg, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
