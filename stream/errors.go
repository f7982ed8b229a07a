package stream

import "fmt"

var errInvalidUTF8 = fmt.Errorf("invalid UTF-8 sequence")

func errNegativeOffset(offset int) error {
	return fmt.Errorf("negative seek offset %d", offset)
}

func errBadTruncate(n, size int) error {
	return fmt.Errorf("truncate offset %d out of [0, %d]", n, size)
}

func errShortRead(want, have int) error {
	return fmt.Errorf("need %d bytes, %d remain", want, have)
}
