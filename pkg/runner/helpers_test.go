package runner_test

import "io"

// newBlockingReader returns a reader that never yields data until closed.
func newBlockingReader() (io.Reader, io.Closer) {
	pr, pw := io.Pipe()
	return pr, pw
}
