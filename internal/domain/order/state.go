package order

// TransitionTo sets the fulfilment status. Any known status may follow any other so the
// back-office can correct a mistaken update. Moving to the current status is a no-op and
// reports changed=false.
func (o *Order) TransitionTo(target Status) (changed bool, err error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return false, err
	}
	if o.Status == target {
		return false, nil
	}
	o.Status = target
	o.touch()
	return true, nil
}

// Reopens reports whether moving from → to takes a cancelled order back into fulfilment.
// Its stock, if already released, has to be reserved again.
func Reopens(from, to Status) bool {
	return from == StatusCancelled && to != StatusCancelled
}

// MarkPaid records a confirmed payment. Repeated confirmations are no-ops.
func (o *Order) MarkPaid(ref string) (changed bool) {
	if ref != "" {
		o.PaymentRef = ref
	}
	if o.PaymentStatus == PaymentPaid {
		return false
	}
	o.PaymentStatus = PaymentPaid
	o.touch()
	return true
}

// MarkPaymentFailed records a declined payment. A paid order is never downgraded;
// in that case ErrAlreadyPaid is returned and nothing changes.
func (o *Order) MarkPaymentFailed() (changed bool, err error) {
	switch o.PaymentStatus {
	case PaymentPaid:
		return false, ErrAlreadyPaid
	case PaymentFailed:
		return false, nil
	}
	o.PaymentStatus = PaymentFailed
	o.touch()
	return true, nil
}
