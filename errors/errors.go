package errors

import "fmt"

var (
	ErrUnknownGroupKey = fmt.Errorf("unknown group key")
	ErrNotInGroup      = fmt.Errorf("not in a group")
	ErrNotRegistered   = fmt.Errorf("connection not registered")
	ErrSlowConsumer    = fmt.Errorf("connection send buffer full")
)
