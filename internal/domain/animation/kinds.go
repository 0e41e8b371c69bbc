package animation

import (
	"time"

	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/rating"
)

const (
	BannerTrustIncreased    = "TRUST INCREASED!"
	BannerTrustDecreased    = "TRUST DECREASED..."
	BannerDistrustIncreased = "DISTRUST INCREASED..."
	BannerDistrustWeakening = "DISTRUST WEAKENING..."
	BannerTrustMaxed        = "TRUST MAXED!"
	BannerTrustRegained     = "TRUST REGAINED!"
)

const (
	distrustRecoverVolume = 0.35
	recoveryVolume        = 0.4
)

type op func(s Surface) error

// chain runs ops in order and stops at the first failure, so a missing
// element aborts only the rest of its own step.
func chain(ops ...op) func(Surface) error {
	return func(s Surface) error {
		for _, o := range ops {
			if err := o(s); err != nil {
				return err
			}
		}
		return nil
	}
}

func show(m rating.Mode) op { return func(s Surface) error { return s.ShowOverlay(m) } }

func hide() op { return func(s Surface) error { return s.HideOverlay() } }

func draw(v int, opts gauge.Options) op {
	return func(s Surface) error { return s.DrawGauge(gauge.For(v, opts)) }
}

func banner(text string, visible bool) op {
	return func(s Surface) error { return s.SetBanner(text, visible) }
}

func segment(i int, e gauge.Effect) op {
	return func(s Surface) error { return s.SegmentEffect(i, e) }
}

func ring(e gauge.RingEffect, on bool) op {
	return func(s Surface) error { return s.RingEffect(e, on) }
}

func everySegment(e gauge.Effect) op {
	return func(s Surface) error {
		for i := 0; i < gauge.Segments; i++ {
			if err := s.SegmentEffect(i, e); err != nil {
				return err
			}
		}
		return nil
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func cue(s Sound, volume float64) *Cue { return &Cue{Sound: s, Volume: volume} }

func trustRankUp(prev, cur int) Sequence {
	return Sequence{
		Kind: rating.TrustRankUp,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundRankUp, 0),
				Render: chain(show(rating.Trust), banner("", false), draw(prev, gauge.Options{}))},
			{At: ms(600), Name: "fill",
				Render: chain(draw(cur, gauge.Options{}), banner(BannerTrustIncreased, true))},
			{At: ms(2000), Name: "hide", Render: chain(hide())},
		},
	}
}

func trustRankDown(prev, cur int) Sequence {
	return Sequence{
		Kind: rating.TrustRankDown,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundRankDown, 0),
				Render: chain(show(rating.Trust), banner("", false), draw(prev, gauge.Options{}))},
			{At: ms(120), Name: "shatter",
				Render: chain(segment(gauge.TrustEdge(prev), gauge.EffectShatter))},
			{At: ms(300), Name: "rebuild",
				Render: chain(draw(cur, gauge.Options{}), banner(BannerTrustDecreased, true))},
			{At: ms(900), Name: "hide", Render: chain(hide())},
		},
	}
}

func distrustRankDown(prev, cur int) Sequence {
	return Sequence{
		Kind: rating.DistrustRankDown,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundRankDown, 0),
				Render: chain(show(rating.Distrust), banner("", false), draw(prev, gauge.Options{}))},
			{At: ms(120), Name: "shatter",
				Render: chain(segment(gauge.DistrustEdge(cur), gauge.EffectShatter))},
			{At: ms(300), Name: "rebuild",
				Render: chain(draw(cur, gauge.Options{}), banner(BannerDistrustIncreased, true))},
			{At: ms(900), Name: "hide", Render: chain(hide())},
		},
	}
}

func distrustRankUp(prev, cur int) Sequence {
	return Sequence{
		Kind: rating.DistrustRankUp,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundDistrustRecover, distrustRecoverVolume),
				Render: chain(show(rating.Distrust), banner("", false), draw(prev, gauge.Options{}))},
			{At: ms(120), Name: "crack",
				Render: chain(segment(gauge.DistrustEdge(prev), gauge.EffectCrack))},
			{At: ms(320), Name: "rebuild",
				Render: chain(draw(cur, gauge.Options{}), banner(BannerDistrustWeakening, true))},
			{At: ms(1000), Name: "hide", Render: chain(hide())},
		},
	}
}

func trustMaxed() Sequence {
	return Sequence{
		Kind: rating.TrustMaxed,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundMaxed, 0),
				Render: chain(show(rating.Trust), banner("", false), draw(rating.Max-1, gauge.Options{}))},
			{At: ms(1200), Name: "highlight",
				Render: chain(segment(gauge.TrustEdge(rating.Max), gauge.EffectHighlight))},
			{At: ms(2400), Name: "gold",
				Render: chain(draw(rating.Max, gauge.Options{Gold: true}), ring(gauge.RingGoldReveal, true))},
			{At: ms(2600), Name: "banner", Render: chain(banner(BannerTrustMaxed, true))},
		},
		Linger:    true,
		Dismissal: Dismissal{FadeOut: SoundMaxed},
	}
}

func trustToDistrust() Sequence {
	return Sequence{
		Kind: rating.TrustToDistrust,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundShatter, 0),
				Render: chain(show(rating.Trust), banner("", false), draw(1, gauge.Options{}))},
			{At: ms(300), Name: "fall", Render: chain(segment(0, gauge.EffectFall))},
			{At: ms(900), Name: "spin", Render: chain(ring(gauge.RingSpinUp, true))},
			{At: ms(1400), Name: "shatter", Render: chain(everySegment(gauge.EffectShatter))},
			{At: ms(1900), Name: "corrupt",
				Render: chain(ring(gauge.RingSpinUp, false), show(rating.Distrust), draw(0, gauge.Options{Distrust: true}))},
			{At: ms(2300), Name: "reveal",
				Render: chain(draw(-1, gauge.Options{}), segment(gauge.DistrustEdge(-1), gauge.EffectCrystal), banner(BannerDistrustIncreased, true))},
		},
		Linger:    true,
		Dismissal: Dismissal{Stop: SoundShatter},
	}
}

func distrustToTrustRecovery() Sequence {
	return Sequence{
		Kind: rating.DistrustToTrustRecovery,
		Steps: []Step{
			{At: 0, Name: "show", Cue: cue(SoundRankUp, recoveryVolume),
				Render: chain(show(rating.Distrust), banner("", false), draw(-1, gauge.Options{}))},
			{At: ms(400), Name: "fade", Render: chain(segment(gauge.DistrustEdge(-1), gauge.EffectFade))},
			{At: ms(900), Name: "pulse", Render: chain(ring(gauge.RingPurifyPulse, true))},
			{At: ms(1300), Name: "wave", Render: chain(ring(gauge.RingPurifyWave, true))},
			{At: ms(1900), Name: "rebuild",
				Render: chain(ring(gauge.RingPurifyPulse, false), ring(gauge.RingPurifyWave, false), show(rating.Trust), draw(1, gauge.Options{}))},
			{At: ms(2100), Name: "banner", Render: chain(banner(BannerTrustRegained, true))},
		},
		Linger: true,
	}
}
