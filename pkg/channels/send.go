package channels

import "errors"

// SendNonBlock attempts to send a message without blocking.
// Returns error if the channel is full or closed.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// SendLatest delivers msg on a buffered channel, evicting undelivered
// values until it fits. It reports how many values were evicted. The caller
// must be the only sender.
func SendLatest[T any](ch chan T, msg T) (evicted int, err error) {
	if cap(ch) == 0 {
		return 0, SendNonBlock(ch, msg)
	}

	for {
		err := SendNonBlock(ch, msg)
		if !errors.Is(err, ErrChannelFull) {
			return evicted, err
		}

		select {
		case <-ch:
			evicted++
		default:
		}
	}
}
