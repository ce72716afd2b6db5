package domain

// SendCommand carries the validated inputs of a message send or edit.
// The sender identity is threaded separately by the caller.
type SendCommand struct {
	To   string `validate:"required"`
	Text string `validate:"required"`
	Kind Kind   `validate:"required,oneof=message private_message"`
}
