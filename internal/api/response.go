package api

import "net/http"

// Status values of the response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope of every JSON reply.
type Response[T any] struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AsGinResponse splits the envelope into the arguments of gin's c.JSON.
func (r Response[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

func success[T any](message string, data T) Response[T] {
	return Response[T]{
		Status:  StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
}

func failure(code int, message string, err error) Response[any] {
	r := Response[any]{
		Status:  StatusError,
		Code:    code,
		Message: message,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
