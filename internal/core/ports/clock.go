package ports

import (
	"context"
	"time"
)

// Clock abstracts wall time and sleeping so the polling loop can be tested
// without real delays. Sleep returns early with ctx.Err() when the context
// is cancelled; the remote operation is unaffected by a cancelled wait.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func RealClock() Clock { return realClock{} }
