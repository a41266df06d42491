package model

import (
	"fmt"

	pkgerrors "scoreboard/pkg/errors"
)

// VerdictKind is the outcome class of a judged run.
type VerdictKind int

const (
	VerdictUnknown VerdictKind = iota
	VerdictAccepted
	VerdictRejected
	VerdictJudging
)

var verdictNames = map[VerdictKind]string{
	VerdictUnknown:  "unknown",
	VerdictAccepted: "accepted",
	VerdictRejected: "rejected",
	VerdictJudging:  "judging",
}

func (k VerdictKind) String() string {
	if name, ok := verdictNames[k]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int(k))
}

// MarshalText encodes the kind as its lowercase name.
func (k VerdictKind) MarshalText() ([]byte, error) {
	name, ok := verdictNames[k]
	if !ok {
		return nil, fmt.Errorf("invalid verdict kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a lowercase verdict name.
func (k *VerdictKind) UnmarshalText(text []byte) error {
	for kind, name := range verdictNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("invalid verdict kind %q", string(text))
}

// Verdict is a tagged variant. Time is only meaningful for accepted runs.
type Verdict struct {
	Kind  VerdictKind `json:"kind"`
	Time  int64       `json:"time,omitempty"`
	First bool        `json:"first,omitempty"`
}

func Accepted(time int64) Verdict { return Verdict{Kind: VerdictAccepted, Time: time} }
func Rejected() Verdict           { return Verdict{Kind: VerdictRejected} }
func Judging() Verdict            { return Verdict{Kind: VerdictJudging} }
func Unknown() Verdict            { return Verdict{Kind: VerdictUnknown} }

func (v Verdict) IsAccepted() bool { return v.Kind == VerdictAccepted }

// Code returns the one character archive code of the verdict.
func (v Verdict) Code() string {
	switch v.Kind {
	case VerdictAccepted:
		return "Y"
	case VerdictRejected:
		return "N"
	case VerdictJudging:
		return "?"
	default:
		return "X"
	}
}

// ParseVerdictCode maps an archive code to a verdict. Accepted verdicts
// carry the submit time of the run.
func ParseVerdictCode(code string, time int64) (Verdict, error) {
	switch code {
	case "Y":
		return Accepted(time), nil
	case "N":
		return Rejected(), nil
	case "?":
		return Judging(), nil
	case "X":
		return Unknown(), nil
	default:
		return Verdict{}, pkgerrors.Newf(pkgerrors.InvalidVerdictCode, "invalid verdict code %q", code)
	}
}
