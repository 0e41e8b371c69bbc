package rating

import "fmt"

// Kind classifies a single rating transition.
type Kind int

const (
	KindNone Kind = iota
	TrustRankUp
	TrustMaxed
	TrustRankDown
	TrustToDistrust
	DistrustToTrustRecovery
	DistrustRankUp
	DistrustRankDown
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	TrustRankUp:             "trust_rank_up",
	TrustMaxed:              "trust_maxed",
	TrustRankDown:           "trust_rank_down",
	TrustToDistrust:         "trust_to_distrust",
	DistrustToTrustRecovery: "distrust_to_trust_recovery",
	DistrustRankUp:          "distrust_rank_up",
	DistrustRankDown:        "distrust_rank_down",
}

// Kinds lists every real transition kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		TrustRankUp,
		TrustMaxed,
		TrustRankDown,
		TrustToDistrust,
		DistrustToTrustRecovery,
		DistrustRankUp,
		DistrustRankDown,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown transition kind %q", b)
}

// Crossing reports whether the kind flips the mode.
func (k Kind) Crossing() bool {
	return k == TrustToDistrust || k == DistrustToTrustRecovery
}

// Terminal reports whether the kind leaves its overlay up until dismissed.
func (k Kind) Terminal() bool {
	return k == TrustMaxed || k.Crossing()
}

// Classify maps a (previous, next) pair to its transition kind. It returns
// false for pairs that are not a single valid step, including the clamped
// no-op at either bound.
func Classify(prev, next int) (Kind, bool) {
	if !Valid(prev) || !Valid(next) || prev == next {
		return KindNone, false
	}
	switch {
	case prev == 1 && next == -1:
		return TrustToDistrust, true
	case prev == -1 && next == 1:
		return DistrustToTrustRecovery, true
	case prev == Max-1 && next == Max:
		return TrustMaxed, true
	case prev > 0 && next == prev+1:
		return TrustRankUp, true
	case prev > 0 && next == prev-1:
		return TrustRankDown, true
	case prev < 0 && next == prev+1:
		return DistrustRankUp, true
	case prev < 0 && next == prev-1:
		return DistrustRankDown, true
	}
	return KindNone, false
}
