package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired el token fue válido pero ya venció.
	ErrTokenExpired = errors.New("jwt: token expirado")
	// ErrTokenInvalid firma, algoritmo o formato incorrectos.
	ErrTokenInvalid = errors.New("jwt: token inválido")
)

// Claims claims registrados más el alcance del usuario.
// Role y LocationID permiten al middleware aplicar el alcance por sucursal sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	Role       string `json:"role"`                  // ADMIN | PHARMACIST | OPERATOR
	LocationID string `json:"location_id,omitempty"` // sucursal asignada; vacío para ADMIN
}

// Generate firma (HS256) un token para el usuario con vencimiento en expMinutes.
func Generate(secret, userID, role, locationID, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if expMinutes <= 0 {
		return "", fmt.Errorf("jwt: expiración inválida (%d min)", expMinutes)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:     userID,
		Role:       role,
		LocationID: locationID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y vencimiento y devuelve los claims.
// Los errores envuelven ErrTokenExpired o ErrTokenInvalid.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case !token.Valid:
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
