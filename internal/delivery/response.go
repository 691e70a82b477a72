package delivery

import (
	"errors"
	"net/http"

	"catalog_viewer/internal/domain"
	"catalog_viewer/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

func mapErrorToStatus(err error) int {
	if errors.Is(err, usecase.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, usecase.ErrInvalidPage) || errors.Is(err, domain.ErrInvalidSortOrder) {
		return http.StatusBadRequest // validation
	}
	if errors.Is(err, usecase.ErrListClosed) {
		return http.StatusGone
	}
	if _, ok := domain.AsFetchError(err); ok {
		return http.StatusBadGateway // upstream catalog failed
	}
	return http.StatusInternalServerError
}
