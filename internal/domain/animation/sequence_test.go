package animation_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/monopad/internal/domain/animation"
	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

// recorder captures surface calls; fail names a call that should error.
type recorder struct {
	calls []string
	last  gauge.Gauge
	fail  string
}

func (r *recorder) add(call string) error {
	r.calls = append(r.calls, call)
	if r.fail != "" && call == r.fail {
		return animation.ErrElementMissing
	}
	return nil
}

func (r *recorder) ShowOverlay(m rating.Mode) error { return r.add("show:" + m.String()) }
func (r *recorder) HideOverlay() error              { return r.add("hide") }
func (r *recorder) DrawGauge(g gauge.Gauge) error {
	r.last = g
	return r.add(fmt.Sprintf("draw:%d", g.Value))
}
func (r *recorder) SegmentEffect(i int, e gauge.Effect) error {
	return r.add(fmt.Sprintf("segment:%d:%s", i, e))
}
func (r *recorder) RingEffect(e gauge.RingEffect, on bool) error {
	return r.add(fmt.Sprintf("ring:%s:%t", e, on))
}
func (r *recorder) SetBanner(text string, visible bool) error {
	if !visible {
		return r.add("banner:off")
	}
	return r.add("banner:" + text)
}

func offsets(ms ...int) []time.Duration {
	out := make([]time.Duration, len(ms))
	for i, m := range ms {
		out[i] = time.Duration(m) * time.Millisecond
	}
	return out
}

func render(seq animation.Sequence, r *recorder) {
	for _, st := range seq.Steps {
		_ = st.Render(r)
	}
}

func TestSequenceTiming(t *testing.T) {
	Convey("Given every transition kind", t, func() {
		cases := []struct {
			kind    rating.Kind
			prev    int
			cur     int
			offsets []time.Duration
			linger  bool
		}{
			{rating.TrustRankUp, 3, 4, offsets(0, 600, 2000), false},
			{rating.TrustRankDown, 4, 3, offsets(0, 120, 300, 900), false},
			{rating.DistrustRankUp, -4, -3, offsets(0, 120, 320, 1000), false},
			{rating.DistrustRankDown, -3, -4, offsets(0, 120, 300, 900), false},
			{rating.TrustMaxed, 9, 10, offsets(0, 1200, 2400, 2600), true},
			{rating.TrustToDistrust, 1, -1, offsets(0, 300, 900, 1400, 1900, 2300), true},
			{rating.DistrustToTrustRecovery, -1, 1, offsets(0, 400, 900, 1300, 1900, 2100), true},
		}

		for _, tc := range cases {
			tc := tc
			Convey(fmt.Sprintf("Then %s has its fixed schedule", tc.kind), func() {
				seq, err := animation.For(animation.NewJob("e", tc.kind, tc.prev, tc.cur))
				So(err, ShouldBeNil)
				So(seq.Kind, ShouldEqual, tc.kind)
				So(seq.Offsets(), ShouldResemble, tc.offsets)
				So(seq.Duration(), ShouldEqual, tc.offsets[len(tc.offsets)-1])
				So(seq.Linger, ShouldEqual, tc.linger)
				So(seq.Linger, ShouldEqual, tc.kind.Terminal())
				So(seq.Steps[0].Cue, ShouldNotBeNil)
			})
		}
	})

	Convey("Given an unknown kind", t, func() {
		_, err := animation.For(animation.Job{Kind: rating.KindNone})

		Convey("Then no sequence is produced", func() {
			So(err, ShouldNotBeNil)
			So(animation.Duration(rating.KindNone), ShouldEqual, 0)
		})
	})

	Convey("Given a job", t, func() {
		a := animation.NewJob("e", rating.TrustRankUp, 1, 2)
		b := animation.NewJob("e", rating.TrustRankUp, 2, 3)

		Convey("Then every job gets a distinct id", func() {
			So(a.ID, ShouldNotBeEmpty)
			So(a.ID, ShouldNotEqual, b.ID)
		})
	})
}

func TestSequenceRendering(t *testing.T) {
	Convey("Given a trust rank up from 3 to 4", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.TrustRankUp, 3, 4))
		r := &recorder{}
		render(seq, r)

		Convey("Then it shows the old value, then the new one with the banner, then hides", func() {
			So(r.calls, ShouldResemble, []string{
				"show:trust", "banner:off", "draw:3",
				"draw:4", "banner:" + animation.BannerTrustIncreased,
				"hide",
			})
			So(seq.Steps[0].Cue.Sound, ShouldEqual, animation.SoundRankUp)
		})
	})

	Convey("Given a trust rank down from 5 to 4", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.TrustRankDown, 5, 4))
		r := &recorder{}
		render(seq, r)

		Convey("Then the previous top segment shatters", func() {
			So(r.calls, ShouldContain, "segment:4:shatter")
			So(r.calls, ShouldContain, "banner:"+animation.BannerTrustDecreased)
		})
	})

	Convey("Given a distrust worsening from -3 to -4", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.DistrustRankDown, -3, -4))
		r := &recorder{}
		render(seq, r)

		Convey("Then the newly corrupted segment shatters", func() {
			So(r.calls, ShouldContain, "segment:6:shatter")
			So(r.calls[0], ShouldEqual, "show:distrust")
		})
	})

	Convey("Given a distrust weakening from -4 to -3", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.DistrustRankUp, -4, -3))
		r := &recorder{}
		render(seq, r)

		Convey("Then the innermost red segment cracks and the recover cue is quiet", func() {
			So(r.calls, ShouldContain, "segment:6:crack")
			So(seq.Steps[0].Cue.Sound, ShouldEqual, animation.SoundDistrustRecover)
			So(seq.Steps[0].Cue.Volume, ShouldAlmostEqual, 0.35)
		})
	})

	Convey("Given trust maxed", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.TrustMaxed, 9, 10))
		r := &recorder{}
		render(seq, r)

		Convey("Then the ring turns gold and music fades on dismissal", func() {
			So(r.last.Gold, ShouldBeTrue)
			So(r.last.Filled(gauge.FillGold), ShouldEqual, gauge.Segments)
			So(r.calls[len(r.calls)-1], ShouldEqual, "banner:"+animation.BannerTrustMaxed)
			So(r.calls, ShouldNotContain, "hide")
			So(seq.Dismissal.FadeOut, ShouldEqual, animation.SoundMaxed)
		})
	})

	Convey("Given trust to distrust", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.TrustToDistrust, 1, -1))
		r := &recorder{}
		render(seq, r)

		Convey("Then every segment shatters and the ring ends at -1", func() {
			for i := 0; i < gauge.Segments; i++ {
				So(r.calls, ShouldContain, fmt.Sprintf("segment:%d:shatter", i))
			}
			So(r.last.Value, ShouldEqual, -1)
			So(r.calls, ShouldContain, "segment:9:crystal")
			So(seq.Dismissal.Stop, ShouldEqual, animation.SoundShatter)
		})
	})

	Convey("Given distrust to trust recovery", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.DistrustToTrustRecovery, -1, 1))
		r := &recorder{}
		render(seq, r)

		Convey("Then the ring is purified back to 1", func() {
			So(r.last.Value, ShouldEqual, 1)
			So(r.last.Mode, ShouldEqual, rating.Trust)
			So(r.calls, ShouldContain, "ring:purify_pulse:true")
			So(r.calls, ShouldContain, "ring:purify_pulse:false")
			So(r.calls[len(r.calls)-1], ShouldEqual, "banner:"+animation.BannerTrustRegained)
			So(seq.Steps[0].Cue.Volume, ShouldAlmostEqual, 0.4)
		})
	})
}

func TestMissingElement(t *testing.T) {
	Convey("Given a surface without a banner element", t, func() {
		seq, _ := animation.For(animation.NewJob("e", rating.TrustRankUp, 3, 4))
		r := &recorder{fail: "banner:off"}

		Convey("When the first step renders", func() {
			err := seq.Steps[0].Render(r)

			Convey("Then the step stops at the missing element", func() {
				So(err, ShouldEqual, animation.ErrElementMissing)
				So(r.calls, ShouldResemble, []string{"show:trust", "banner:off"})
			})

			Convey("And later steps still render", func() {
				So(seq.Steps[2].Render(r), ShouldBeNil)
				So(r.calls[len(r.calls)-1], ShouldEqual, "hide")
			})
		})
	})
}
