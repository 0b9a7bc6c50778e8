package ota

import (
	"context"
	"errors"

	"otabridge/entities"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// authenticate verifies the supplied property password against the caller's
// stored bcrypt hash. A missing user or a mismatch records one authentication
// error on the envelope; only unexpected gateway failures return an error.
// Every authenticated verb runs this before touching any data.
func authenticate(ctx context.Context, envelope *Envelope, store Store) (entities.User, error) {
	user, err := store.UserByID(ctx, envelope.StringParam(ParamOTAPropertyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			envelope.AddError(msgAuthArguments)
			return entities.User{}, nil
		}
		return entities.User{}, err
	}

	password := envelope.StringParam(ParamPropertyPassword)
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		envelope.AddError(msgAuthArguments)
	}

	return user, nil
}
