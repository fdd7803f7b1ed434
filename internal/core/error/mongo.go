package errx

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

// WrapMongo maps MongoDB errors to the unified Error type with appropriate status codes.
func WrapMongo(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return New(err, http.StatusNotFound, MongoNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, MongoErrorMessage)
}
