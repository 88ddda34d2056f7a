package services

import (
	"errors"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/repositories"
)

// storeError classifies a repository failure for the caller. notFound is the
// message used when the record does not exist.
func storeError(err error, notFound, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(op, err)
}
