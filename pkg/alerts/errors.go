package alerts

import "errors"

var (
	ErrSuppressed    = errors.New("alert is within its suppression window")
	ErrTableFull     = errors.New("active alert table is full")
	ErrUnknownAlert  = errors.New("no active alert of that type")
	errCooldownOrder = errors.New("critical cooldown must not exceed the standard cooldown")
)
