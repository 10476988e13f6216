package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

func newAccountService(t *testing.T) (*AccountService, *repositories.SessionRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	tokens, err := NewTokenService(cfg)
	require.NoError(t, err)
	sessions := repositories.NewSessionRepository(db)
	svc := NewAccountService(repositories.NewAccountRepository(db), sessions, tokens, cfg.SessionTTL).
		WithHashCost(bcrypt.MinCost)
	return svc, sessions
}

func TestSignUp(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "ada", res.User.UserName)
	assert.False(t, res.User.IsAdmin)
	assert.NotEmpty(t, res.Token)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	_, err = svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0802", Password: "secret2"})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.SignUp(ctx, SignUpInput{UserName: "ben", Password: "secret1"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.SignUp(ctx, SignUpInput{UserName: "ben", Phone: "0803", Password: "123"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSignIn(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.SignIn(ctx, "ada", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.SignIn(ctx, "ada", "wrong-password")
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = svc.SignIn(ctx, "nobody", "secret1")
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = svc.SignIn(ctx, "", "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSessionTokenClaims(t *testing.T) {
	svc, _ := newAccountService(t)
	cfg := testutil.TestConfig()

	res, err := svc.SignUp(context.Background(), SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})
	require.NoError(t, err)

	token, err := jwt.ParseSigned(res.Token)
	require.NoError(t, err)

	var registered jwt.Claims
	var custom SessionClaims
	require.NoError(t, token.Claims(cfg.SessionSigningKey(), &registered, &custom))
	assert.Equal(t, res.User.ID, registered.Subject)
	assert.Equal(t, config.TokenIssuer, registered.Issuer)
	assert.True(t, registered.Audience.Contains(config.TokenAudience))
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, "ada", custom.UserName)
	assert.WithinDuration(t, time.Now().Add(cfg.SessionTTL), registered.Expiry.Time(), time.Minute)
}

func TestValidateSessionAndLogOut(t *testing.T) {
	svc, sessions := newAccountService(t)
	ctx := context.Background()
	res, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})
	require.NoError(t, err)

	token, err := jwt.ParseSigned(res.Token)
	require.NoError(t, err)
	var registered jwt.Claims
	require.NoError(t, token.UnsafeClaimsWithoutVerification(&registered))
	sessionID := registered.ID

	require.NoError(t, svc.ValidateSession(ctx, sessionID, res.User.ID))
	assert.Equal(t, KindAuthorization, KindOf(svc.ValidateSession(ctx, sessionID, "someone-else")))
	assert.Equal(t, KindAuthorization, KindOf(svc.ValidateSession(ctx, "missing", res.User.ID)))

	require.NoError(t, svc.LogOut(ctx, sessionID))
	assert.Equal(t, KindAuthorization, KindOf(svc.ValidateSession(ctx, sessionID, res.User.ID)))

	session, err := sessions.FindByID(ctx, sessionID)
	require.NoError(t, err)
	assert.NotNil(t, session.RevokedAt)
}

func TestValidateSession_Expired(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	res, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})
	require.NoError(t, err)
	token, err := jwt.ParseSigned(res.Token)
	require.NoError(t, err)
	var registered jwt.Claims
	require.NoError(t, token.UnsafeClaimsWithoutVerification(&registered))

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	assert.Equal(t, KindAuthorization, KindOf(svc.ValidateSession(ctx, registered.ID, res.User.ID)))
}

func TestPasswordLengthLimits(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	longest := strings.Repeat("p", 72)
	tooLong := strings.Repeat("p", 73)

	_, err := svc.SignUp(ctx, SignUpInput{UserName: "ben", Phone: "0803", Password: tooLong})
	assert.Equal(t, KindValidation, KindOf(err))

	ada, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: longest})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, ada.User.ID, longest, tooLong)
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = svc.SignIn(ctx, "ada", longest)
	assert.NoError(t, err)

	_, err = svc.CreateAdmin(ctx, "root", "0800", tooLong)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestEditDetailsAndChangePassword(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	ada, err := svc.SignUp(ctx, SignUpInput{UserName: "ada", Phone: "0801", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, SignUpInput{UserName: "ben", Phone: "0802", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.EditDetails(ctx, ada.User.ID, ProfileInput{UserName: "ada.obi", Phone: "0809", City: "Lagos"})
	require.NoError(t, err)
	assert.Equal(t, "ada.obi", user.UserName)
	assert.Equal(t, "Lagos", user.City)

	_, err = svc.EditDetails(ctx, ada.User.ID, ProfileInput{UserName: "ben", Phone: "0809"})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.EditDetails(ctx, ada.User.ID, ProfileInput{UserName: "ada"})
	assert.Equal(t, KindValidation, KindOf(err))

	err = svc.ChangePassword(ctx, ada.User.ID, "not-it", "newsecret")
	require.Error(t, err)
	assert.Equal(t, "Password is not correct", err.(*Error).Message)

	require.NoError(t, svc.ChangePassword(ctx, ada.User.ID, "secret1", "newsecret"))
	_, err = svc.SignIn(ctx, "ada.obi", "newsecret")
	assert.NoError(t, err)
	_, err = svc.SignIn(ctx, "ada.obi", "secret1")
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestCreateAdminAndIsAdmin(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "root", "0800", "supersecret")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	isAdmin, err := svc.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = svc.IsAdmin(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
