package repository

import (
	"errors"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

var ErrNotFound = errors.New("document not found")

func isNotFound(err error) bool {
	return kivik.HTTPStatus(err) == http.StatusNotFound
}
