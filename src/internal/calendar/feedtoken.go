package calendar

import (
	"errors"
	"time"

	"mentoring-svc/src/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const feedAudience = "calendar-feed"

// FeedToken signs a long-lived token that lets a calendar client fetch username's feed.
func (s *calendarService) FeedToken(username string) (string, error) {
	now := s.opts.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Audience:  jwt.ClaimStrings{feedAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.SigningKey)
}

// ParseFeedToken returns the username a feed token was issued for.
func (s *calendarService) ParseFeedToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", models.ErrAuthentication
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.opts.SigningKey, nil
	},
		jwt.WithAudience(feedAudience),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if err != nil || !token.Valid {
		return "", models.ErrAuthentication
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", models.ErrAuthentication
	}
	return claims.Subject, nil
}

func defaultTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 365 * 24 * time.Hour
	}
	return ttl
}
