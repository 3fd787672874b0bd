package domain

// PaymentMethod represents how a ride is paid.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodCardMachine PaymentMethod = "CARD_MACHINE"
	PaymentMethodCardOnFile  PaymentMethod = "CARD_ON_FILE"
)

// RequiresCapture reports whether the method needs a gateway capture of a
// pre-authorized payment reference before the passenger may board.
func (m PaymentMethod) RequiresCapture() bool {
	return m == PaymentMethodCardOnFile
}

// Known reports whether the method is one the platform accepts.
func (m PaymentMethod) Known() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCardMachine, PaymentMethodCardOnFile:
		return true
	}
	return false
}
