package bus

import "fmt"

// Observer receives the signals of one subscription. OnError and
// OnComplete may be nil.
type Observer struct {
	OnNext     func(payload any)
	OnError    func(err error)
	OnComplete func()
}

func (o Observer) next(v any) {
	o.OnNext(v)
}

func (o Observer) error(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

func (o Observer) complete() {
	if o.OnComplete != nil {
		o.OnComplete()
	}
}

// PanicError reports a panic raised by a subscriber callback.
type PanicError struct {
	Topic string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("subscriber callback panicked on %s: %v", e.Topic, e.Value)
}
