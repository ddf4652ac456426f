package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

// RoomTokenClaims authorize one user to join one room.
type RoomTokenClaims struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthEnabled reports whether room tokens are enforced. Without a configured
// secret the websocket endpoint accepts anonymous joins.
func AuthEnabled() bool { return len(jwtSecret) > 0 }

// IssueRoomToken signs a token granting the user access to the room.
func IssueRoomToken(roomID, userID string, ttl time.Duration) (string, error) {
	if !AuthEnabled() {
		return "", errors.New("JWT_SECRET is not configured")
	}
	claims := &RoomTokenClaims{
		RoomID: roomID,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ValidateRoomToken parses and verifies a room token.
func ValidateRoomToken(tokenStr string) (*RoomTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &RoomTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*RoomTokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid room token")
	}
	return claims, nil
}
