package bridge

import "fmt"

// Error codes reported to callers when an operation rejects.
const (
	CodeSaveCoordinates  = "SAVE_COORDINATES_ERROR"
	CodeUpdateWidgetData = "UPDATE_WIDGET_DATA_ERROR"
	CodeUpdateTheme      = "UPDATE_THEME_ERROR"
	CodeForceRefresh     = "FORCE_REFRESH_ERROR"
	CodeForceRefreshAll  = "FORCE_REFRESH_ALL_ERROR"
	CodeGetWidgetInfo    = "GET_WIDGET_INFO_ERROR"
	CodeClearWidgetData  = "CLEAR_WIDGET_DATA_ERROR"
	CodeGetCoordinates   = "GET_COORDINATES_ERROR"
)

// OpError is returned by every failing bridge operation.
type OpError struct {
	Code string // one of the Code* constants
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(code, op string, err error) error {
	return &OpError{Code: code, Op: op, Err: err}
}
