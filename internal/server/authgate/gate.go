package authgate

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Verifier turns an access token into its subject.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

// Decision is the classification of one request.
type Decision int

const (
	Exempt Decision = iota + 1
	RequiresAuth
)

func (d Decision) String() string {
	if d == Exempt {
		return "exempt"
	}
	return "requires_auth"
}

type Gate struct {
	exempt   *ExemptionSet
	verifier Verifier
	logger   logging.Logger
}

func New(exempt *ExemptionSet, verifier Verifier, logger logging.Logger) *Gate {
	return &Gate{exempt: exempt, verifier: verifier, logger: logger.With("module", "authgate")}
}

func (g *Gate) Classify(path string) Decision {
	if g.exempt.Contains(path) {
		return Exempt
	}
	return RequiresAuth
}

var errMissingCredentials = common.Unauthorized("Unauthorized", nil)

// Authenticate applies the gate to a request for path carrying the given
// Authorization value. Exempt requests get ctx back untouched; otherwise
// the verified subject is stored on the returned context.
func (g *Gate) Authenticate(ctx context.Context, path, authorization string) (context.Context, error) {
	if g.Classify(path) == Exempt {
		return ctx, nil
	}

	token, ok := bearerToken(authorization)
	if !ok {
		g.logger.Debug(ctx, "missing bearer token", "path", path)
		return nil, errMissingCredentials
	}

	subject, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.logger.Debug(ctx, "access token rejected", "path", path, "error", err)
		if common.KindOf(err) != common.KindUnauthorized {
			return nil, common.Unauthorized("Unauthorized", err)
		}
		return nil, err
	}
	return WithSubject(ctx, subject), nil
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type subjectKey struct{}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext returns the authenticated username, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok && s != ""
}
