package flows

import (
	"context"
	"errors"
	"sync"

	"github.com/ispops/erpauth"

	"github.com/ispops/erpauth/session"
)

// MagicLinkEngine is the part of erpauth.Engine that redeems a magic link.
type MagicLinkEngine interface {
	VerifyMagicLink(ctx context.Context, linkToken string) (*session.Session, error)
}

// MagicLinkStep is the state of a magic-link redemption.
type MagicLinkStep uint8

const (
	MagicLinkVerifying MagicLinkStep = iota
	MagicLinkDone
	MagicLinkFailed
)

func (s MagicLinkStep) String() string {
	switch s {
	case MagicLinkVerifying:
		return "verifying"
	case MagicLinkDone:
		return "done"
	case MagicLinkFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var magicLinkForward = map[MagicLinkStep][]MagicLinkStep{
	MagicLinkVerifying: {MagicLinkDone, MagicLinkFailed},
}

// MagicLinkFlow redeems the token carried by a magic link. A rejected link
// is final; Reset allows another link to be tried. Other failures leave the
// flow verifying so the same link can be retried.
type MagicLinkFlow struct {
	machine[MagicLinkStep]
	engine MagicLinkEngine

	fmu     sync.Mutex
	session *session.Session
}

func NewMagicLinkFlow(engine MagicLinkEngine) *MagicLinkFlow {
	f := &MagicLinkFlow{engine: engine}
	f.init(MagicLinkVerifying, MagicLinkDone, magicLinkForward, nil)
	return f
}

// Verify redeems linkToken.
func (f *MagicLinkFlow) Verify(ctx context.Context, linkToken string) error {
	return f.run(MagicLinkVerifying, func() (MagicLinkStep, error) {
		s, err := f.engine.VerifyMagicLink(ctx, linkToken)
		if errors.Is(err, erpauth.ErrInvalidLink) {
			return MagicLinkFailed, err
		}
		if err != nil {
			return MagicLinkVerifying, err
		}
		f.fmu.Lock()
		f.session = s
		f.fmu.Unlock()
		return MagicLinkDone, nil
	})
}

// Failed reports whether the link was rejected.
func (f *MagicLinkFlow) Failed() bool {
	return f.Step() == MagicLinkFailed
}

func (f *MagicLinkFlow) Session() *session.Session {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	return f.session
}

func (f *MagicLinkFlow) Reset() {
	f.reset()
	f.fmu.Lock()
	f.session = nil
	f.fmu.Unlock()
}
