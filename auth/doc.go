// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, session tokens and signed values.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword("s3cret")
	err = auth.CheckPassword(hash, "s3cret") // nil or ErrInvalidCredentials

# Session Tokens

A session token is an HS256 JWT carrying the user ID (uid), a random
jti, and iat/exp claims:

	token, err := auth.IssueSessionToken(user.ID, secret, 14*24*time.Hour, time.Now())
	userID, err := auth.ParseSessionToken(token, secret)

Expired, tampered or foreign tokens return ErrInvalidToken.

# Signed Values

Cookies that must not be forged (flash messages) are signed with
HMAC-SHA256:

	signed := auth.SignValue(payload, secret)
	payload, err := auth.VerifyValue(signed, secret)
*/
package auth
