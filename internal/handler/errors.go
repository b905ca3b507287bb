package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/service"
	"github.com/stemsi/exstem-planner/internal/validator"
)

// failWithError translates a service error into the response envelope. Anything
// it does not recognise is logged and reported as an internal error.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *sampling.ValidationError
	if errors.As(err, &verr) {
		response.FailWithFields(c, http.StatusUnprocessableEntity, validationCode(verr), validationFields(verr))
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidConfiguration):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrInvalidConfiguration, validator.TranslateErrors(err))
	case errors.Is(err, service.ErrConfigurationNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrConfigurationConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func validationCode(verr *sampling.ValidationError) response.ErrCode {
	switch {
	case errors.Is(verr, sampling.ErrUnknownBucket):
		return response.ErrUnknownBucket
	case errors.Is(verr, sampling.ErrDistributionNotComplete):
		return response.ErrDistributionNotComplete
	case errors.Is(verr, sampling.ErrDuplicateQuestionID):
		return response.ErrDuplicateQuestionID
	default:
		return response.ErrInvalidConfiguration
	}
}

func validationFields(verr *sampling.ValidationError) map[string]string {
	fields := map[string]string{"detail": verr.Error()}
	if verr.Bucket != "" {
		fields["bucket"] = verr.Bucket
	}
	if errors.Is(verr, sampling.ErrDistributionNotComplete) {
		fields["sum"] = strconv.Itoa(verr.Sum)
	}
	if verr.QuestionID != "" {
		fields["question_id"] = verr.QuestionID
	}
	return fields
}
