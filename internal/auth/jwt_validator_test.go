package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, subject, issuer string, nbf, exp time.Time) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().Issuer(issuer).Audience([]string{"dash"}).NotBefore(nbf)
	if subject != "" {
		b = b.Subject(subject)
	}
	if !exp.IsZero() {
		b = b.Expiration(exp)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return tok
}

func TestTokenValidator(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	v := TokenValidator{Issuer: "jastip", Audience: "dash", ClockSkew: time.Second, Algorithm: jwa.HS256}

	cases := []struct {
		name    string
		tok     jwt.Token
		alg     jwa.SignatureAlgorithm
		wantErr bool
	}{
		{"valid", buildToken(t, "admin", "jastip", now, now.Add(time.Minute)), jwa.HS256, false},
		{"issuer mismatch", buildToken(t, "admin", "other", now, now.Add(time.Minute)), jwa.HS256, true},
		{"expired", buildToken(t, "admin", "jastip", now.Add(-time.Hour), now.Add(-time.Minute)), jwa.HS256, true},
		{"not yet valid", buildToken(t, "admin", "jastip", now.Add(5*time.Minute), now.Add(10*time.Minute)), jwa.HS256, true},
		{"algorithm mismatch", buildToken(t, "admin", "jastip", now, now.Add(time.Minute)), jwa.RS256, true},
		{"missing subject", buildToken(t, "", "jastip", now, now.Add(time.Minute)), jwa.HS256, true},
		{"missing expiry", buildToken(t, "admin", "jastip", now, time.Time{}), jwa.HS256, true},
	}
	for _, tc := range cases {
		err := v.Validate(tc.tok, tc.alg, now)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
