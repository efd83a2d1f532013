package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
)

// ResponseBuilder assembles a JSON response with an optional user-facing notice.
type ResponseBuilder struct {
	statusCode int
	data       any
	notice     *noticeBody
	headers    map[string]string
}

type noticeBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type envelope struct {
	Data   any         `json:"data,omitempty"`
	Notice *noticeBody `json:"notice,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, headers: map[string]string{}}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.data = v
	return b
}

func (b *ResponseBuilder) Success(message string) *ResponseBuilder {
	b.notice = &noticeBody{Type: "success", Message: message}
	return b
}

func (b *ResponseBuilder) Failure(message string) *ResponseBuilder {
	b.notice = &noticeBody{Type: "error", Message: message}
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	body := envelope{Data: b.data, Notice: b.notice}
	if b.statusCode >= 400 && b.notice != nil {
		body.Error = b.notice.Message
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorResponse maps err to a status code and the user-facing message it carries.
func ErrorResponse(err error) *ResponseBuilder {
	status, msg := errorStatus(err)
	return NewResponse().Status(status).Failure(msg)
}

func errorStatus(err error) (int, string) {
	msg := core.UserMessage(err)
	var ve *core.ValidationError
	var oe *core.OperationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, msg
	case errors.As(err, &oe):
		return http.StatusBadGateway, msg
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", log.FieldError, err)
	}
	ErrorResponse(err).Write(w)
}

func BadRequest(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).Failure(message)
}

func NotFound(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusNotFound).Failure(message)
}
