package controller

import (
	"net/http"

	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/service"
	"github.com/labstack/echo/v4"
)

// httpError maps service errors onto HTTP statuses. Unknown errors are logged
// and hidden behind a generic 500.
func httpError(c echo.Context, err error) error {
	switch err.(type) {
	case *service.InvalidPayloadErr:
		return c.String(http.StatusBadRequest, err.Error())
	case *service.NotFoundErr:
		return c.String(http.StatusNotFound, err.Error())
	case *service.UnauthorizedErr:
		return c.String(http.StatusUnauthorized, err.Error())
	default:
		log.Error.Println(err)
		return c.String(http.StatusInternalServerError, "System malfunction. Please, try later")
	}
}
