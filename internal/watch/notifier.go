package watch

// Notifier folds any number of events into at most one pending signal, so a
// slow consumer sees "something changed" once rather than a backlog.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier returns an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify records a change without blocking. Its signature fits Handler.
func (n *Notifier) Notify(Event) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel signalled after one or more Notify calls.
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}
