package workflow

import "context"

// ConfirmParams describes a generic confirmation screen
type ConfirmParams struct {
	// Title of the screen
	Title string
	// Body text; may be long when Scrollable is set
	Body string
	// Scrollable indicates the body does not fit on one screen
	Scrollable bool
}

// Confirmer presents confirmation screens to the user. Every call suspends
// until the user answers; false means the user rejected.
type Confirmer interface {
	// Confirm shows a generic title/body confirmation
	Confirm(ctx context.Context, p ConfirmParams) (bool, error)

	// ConfirmTransaction shows a recipient address with the transacted amount
	ConfirmTransaction(ctx context.Context, recipient string, amount string) (bool, error)

	// ConfirmTotalFee shows the transaction total with the network fee
	ConfirmTotalFee(ctx context.Context, total string, fee string) (bool, error)
}
