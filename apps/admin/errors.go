package main

// flagError reports a command line flag whose value cannot be used.
type flagError struct {
	flag string
	msg  string
}

func newFlagError(flag, msg string) *flagError {
	return &flagError{flag: flag, msg: msg}
}

func (err *flagError) Error() string {
	return err.msg
}

// Flag is the name of the offending flag, without the leading dash.
func (err *flagError) Flag() string {
	return err.flag
}
