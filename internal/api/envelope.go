package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/http/response"
)

// EnvelopeVersion is the current envelope format version.
const EnvelopeVersion = response.Version

// APIEnvelope is the body of successful responses and simple errors.
type APIEnvelope = response.Envelope

// APIErrorEnvelope is the body of coded errors.
type APIErrorEnvelope = response.ErrorEnvelope

// EnvelopeTransformer wraps every huma response body in the envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return APIErrorEnvelope{
			Version:   EnvelopeVersion,
			Success:   false,
			Code:      body.Code,
			Message:   body.Message,
			Details:   body.Details,
			Retryable: body.Retryable,
		}, nil
	case error:
		return response.Failure(body.Error()), nil
	default:
		return response.Success(v), nil
	}
}
