package mapping

import (
	"errors"
	"net/http"

	"github.com/eslsoft/jamdict/internal/entity"
)

// ToHTTPStatus maps domain errors onto response codes.
func ToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, entity.ErrEmptyQuery), errors.Is(err, entity.ErrInvalidIdseq),
		errors.Is(err, entity.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrEntryNotFound), errors.Is(err, entity.ErrCharacterNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case entity.IsParseError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
