package plans

import "errors"

var (
	ErrNotFound     = errors.New("plan not found")
	ErrRowNotFound  = errors.New("plan row not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotXLSX      = errors.New("uploaded file is not an xlsx workbook")
	ErrTooLarge     = errors.New("uploaded file too large")
)
