package audio_test

import (
	"errors"
	"testing"

	"github.com/okian/monopad/internal/adapters/audio"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/internal/domain/animation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayer(t *testing.T) {
	Convey("Given a player publishing frames", t, func() {
		var frames []overlay.Frame
		p := audio.NewPlayer(audio.WithPublisher(overlay.PublisherFunc(func(f overlay.Frame) {
			frames = append(frames, f)
		})))
		var _ animation.Audio = p

		Convey("Every category starts loaded and silent at the default volume", func() {
			chs := p.Channels()
			So(len(chs), ShouldEqual, len(animation.Sounds()))
			for _, ch := range chs {
				So(ch.Playing, ShouldBeFalse)
				So(ch.Loaded, ShouldBeTrue)
				So(ch.Volume, ShouldEqual, 0.5)
			}
		})

		Convey("Play with an explicit volume uses it", func() {
			So(p.Play(animation.SoundDistrustRecover, 0.35), ShouldBeNil)
			v, err := p.Volume(animation.SoundDistrustRecover)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.35)
			So(frames, ShouldHaveLength, 1)
			So(frames[0].Type, ShouldEqual, overlay.FrameSound)
			So(*frames[0].Sound, ShouldResemble, overlay.SoundCue{Category: "distrust_recover", Action: "play", Volume: 0.35})
		})

		Convey("Play with no volume falls back to the default", func() {
			So(p.SetVolume(animation.SoundMaxed, 0.1), ShouldBeNil)
			So(p.Play(animation.SoundMaxed, 0), ShouldBeNil)
			v, _ := p.Volume(animation.SoundMaxed)
			So(v, ShouldEqual, 0.5)
		})

		Convey("Stop silences a channel", func() {
			So(p.Play(animation.SoundShatter, 0), ShouldBeNil)
			So(p.Stop(animation.SoundShatter), ShouldBeNil)
			So(p.Channels()[4].Playing, ShouldBeFalse)
			So(frames[len(frames)-1].Sound.Action, ShouldEqual, "stop")
		})

		Convey("Volumes are clamped", func() {
			So(p.SetVolume(animation.SoundRankUp, 3), ShouldBeNil)
			v, _ := p.Volume(animation.SoundRankUp)
			So(v, ShouldEqual, 1)
			So(p.SetVolume(animation.SoundRankUp, -1), ShouldBeNil)
			v, _ = p.Volume(animation.SoundRankUp)
			So(v, ShouldEqual, 0)
		})

		Convey("Unknown categories are rejected", func() {
			err := p.Play(animation.Sound("kazoo"), 1)
			So(errors.Is(err, audio.ErrUnknownCategory), ShouldBeTrue)
			_, err = p.Volume("kazoo")
			So(errors.Is(err, audio.ErrUnknownCategory), ShouldBeTrue)
			So(errors.Is(p.Stop("kazoo"), audio.ErrUnknownCategory), ShouldBeTrue)
			So(errors.Is(p.SetVolume("kazoo", 1), audio.ErrUnknownCategory), ShouldBeTrue)
		})

		Convey("An unloaded asset fails playback until reloaded", func() {
			So(p.Unload(animation.SoundRankDown), ShouldBeNil)
			err := p.Play(animation.SoundRankDown, 0)
			So(errors.Is(err, audio.ErrPlaybackFailed), ShouldBeTrue)
			So(frames, ShouldBeEmpty)

			So(p.Load(animation.SoundRankDown), ShouldBeNil)
			So(p.Play(animation.SoundRankDown, 0), ShouldBeNil)
		})
	})

	Convey("Given a custom default volume", t, func() {
		p := audio.NewPlayer(audio.WithDefaultVolume(0.8), audio.WithDefaultVolume(7))
		v, err := p.Volume(animation.SoundRankUp)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0.8)
	})
}
