package service

// InvalidPayloadErr marks client mistakes so the controller can answer 400
// instead of 500.
type InvalidPayloadErr struct {
	message string
}

func (e *InvalidPayloadErr) Error() string {
	return e.message
}

func NewInvalidPayloadError(msg string) *InvalidPayloadErr {
	return &InvalidPayloadErr{message: msg}
}

// NotFoundErr marks lookups for records that do not exist, mapped to 404.
type NotFoundErr struct {
	message string
}

func (e *NotFoundErr) Error() string {
	return e.message
}

func NewNotFoundError(msg string) *NotFoundErr {
	return &NotFoundErr{message: msg}
}

// UnauthorizedErr marks failed credential or token checks, mapped to 401.
type UnauthorizedErr struct {
	message string
}

func (e *UnauthorizedErr) Error() string {
	return e.message
}

func NewUnauthorizedError(msg string) *UnauthorizedErr {
	return &UnauthorizedErr{message: msg}
}
