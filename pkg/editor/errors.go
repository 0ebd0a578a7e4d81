package editor

import "errors"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
	ErrBadIndex       = errors.New("no action at index")
	ErrUnknownKind    = errors.New("unknown action type")
	ErrUnknownField   = errors.New("field does not exist on action")
	ErrBadActionSpec  = errors.New("malformed action spec")
)
