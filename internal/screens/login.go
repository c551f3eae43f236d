package screens

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"librarian/internal/api"
	"librarian/internal/browse"
	"librarian/internal/forms"
)

// Login signs a librarian in and out
type Login struct {
	auth    Authenticator
	session Session
	logger  *zap.Logger

	Submitting *browse.Mutation
}

// NewLogin creates the login screen
func NewLogin(auth Authenticator, session Session, n browse.Notifier, logger *zap.Logger) *Login {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Login{
		auth:       auth,
		session:    session,
		logger:     logger,
		Submitting: browse.NewMutation("sign in", n),
	}
}

// Submit validates the credentials, exchanges them for a token and stores it in the session
func (l *Login) Submit(ctx context.Context, form forms.LoginForm) error {
	creds, err := form.Validate()
	if err != nil {
		return err
	}
	return l.Submitting.Submit(ctx, func(ctx context.Context) error {
		res, err := l.auth.Login(ctx, creds)
		if err != nil {
			return err
		}
		return l.session.Login(ctx, res)
	}, nil)
}

// Logout drops the token
func (l *Login) Logout(ctx context.Context) error {
	return l.session.Logout(ctx)
}

// Guard wraps next so that an unauthorized failure anywhere signs the session out
// and is reported once as NoticeUnauthorized instead of a plain error.
func Guard(next browse.Notifier, session Session, logger *zap.Logger) browse.Notifier {
	if next == nil {
		next = browse.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var mu sync.Mutex
	return browse.NotifierFunc(func(n browse.Notice) {
		if n.Kind != browse.NoticeError || !errors.Is(n.Err, api.ErrUnauthorized) {
			next.Notify(n)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		// concurrent fetches of one screen fail together
		if !session.SignedIn() {
			logger.Debug("Unauthorized response after sign out", zap.String("op", n.Op))
			return
		}
		if err := session.Logout(context.Background()); err != nil {
			logger.Error("Failed to sign out after unauthorized response", zap.Error(err))
		}
		next.Notify(browse.Notice{Kind: browse.NoticeUnauthorized, Op: n.Op, Err: n.Err})
	})
}
