package server

import (
	"errors"
	"fmt"
)

// Error error dengan kode (ErrNotFound, ErrBadParamInput, ...) yang di map ke http status oleh handler.
// msg yang dikirim ke client, orig tetap bisa dicek pakai errors.Is/As.
type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() error {
	return e.code
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

var (
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound lokasi di luar map atau rute gak ada
	ErrNotFound = errors.New("requested route or location not found")
	// ErrBadParamInput query gak bisa dijawab dengan input/state sekarang
	ErrBadParamInput = errors.New("given param is not valid")
)

// MessageInternalServerError pesan ke client, detail error asli cuma masuk log.
const MessageInternalServerError = "internal server error"
