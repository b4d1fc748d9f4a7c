package logger

// nullWriter discards messages of disabled levels
type nullWriter struct{}

func (w nullWriter) Write(b []byte) (n int, err error) {
	return len(b), nil
}
