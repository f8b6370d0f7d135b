package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/enums"
)

var jwtCfg = config.JWTConfig{Secret: "secret", Issuer: "smartpos", ExpirationMinutes: 30}

func TestMintThenParseKeepsIdentity(t *testing.T) {
	now := time.Now().UTC()
	businessID, branchID := uuid.New(), uuid.New()
	payload := AccessTokenPayload{
		UserID:     uuid.New(),
		BusinessID: &businessID,
		BranchID:   &branchID,
		Role:       enums.RoleStorekeeper,
		JTI:        "access-1",
	}

	token, err := MintAccessToken(jwtCfg, now, payload)
	require.NoError(t, err)
	claims, err := ParseAccessToken(jwtCfg, token)
	require.NoError(t, err)

	assert.Equal(t, payload.UserID, claims.UserID)
	assert.Equal(t, businessID, *claims.BusinessID)
	assert.Equal(t, branchID, *claims.BranchID)
	assert.Equal(t, enums.RoleStorekeeper, claims.Role)
	assert.Equal(t, "access-1", claims.ID)
	assert.Equal(t, "smartpos", claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintGeneratesJTI(t *testing.T) {
	token, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleSuperadmin})
	require.NoError(t, err)
	claims, err := ParseAccessToken(jwtCfg, token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestParseRejectsTamperingAndForeignIssuer(t *testing.T) {
	token, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)

	_, err = ParseAccessToken(jwtCfg, token+"x")
	assert.Error(t, err)

	other := jwtCfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	_, err = ParseAccessTokenAllowExpired(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = ParseAccessToken(config.JWTConfig{}, token)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestExpiredTokenOnlyParsesForRefresh(t *testing.T) {
	branchID := uuid.New()
	token, err := MintAccessToken(jwtCfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		UserID:   uuid.New(),
		BranchID: &branchID,
		Role:     enums.RoleManager,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(jwtCfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := ParseAccessTokenAllowExpired(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleManager, claims.Role)
}

func TestMintRejectsBadScope(t *testing.T) {
	_, err := MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	assert.Error(t, err)
	_, err = MintAccessToken(jwtCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleStorekeeper})
	assert.Error(t, err)

	noTTL := jwtCfg
	noTTL.ExpirationMinutes = 0
	_, err = MintAccessToken(noTTL, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	assert.Error(t, err)
}

func TestParseRunsClaimsValidation(t *testing.T) {
	forged := AccessTokenClaims{
		UserID: uuid.New(),
		Role:   enums.Role("owner"),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtCfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte(jwtCfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(jwtCfg, raw)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}
