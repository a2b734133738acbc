package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
)

const usernameAttempts = 3

// Terminal access, replaced in tests.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// noTerminal marks an input that has no file descriptor.
const noTerminal = -1

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// promptUsername asks for a username, repeating the prompt on blank input.
func promptUsername(r *bufio.Reader, w io.Writer) (string, error) {
	for range usernameAttempts {
		fmt.Fprint(w, "Username: ")
		line, err := readLine(r)
		if err != nil {
			return "", err
		}
		if name := strings.TrimSpace(string(line)); name != "" {
			return name, nil
		}
		fmt.Fprintln(w, "Username must not be empty.")
	}
	return "", ErrEmptyUsername
}

// promptPassword reads the password without echo when fd is a terminal.
// Otherwise it takes the next line of r as is, so that
// `printf 'alice\nsecret\n' | authctl login` works.
// The caller wipes the returned slice.
func promptPassword(r *bufio.Reader, w io.Writer, fd int) ([]byte, error) {
	var (
		pw  []byte
		err error
	)
	if fd != noTerminal && isTerminal(fd) {
		fmt.Fprint(w, "Password: ")
		pw, err = readPassword(fd)
		fmt.Fprintln(w)
	} else {
		pw, err = readLine(r)
	}
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, ErrEmptyPassword
	}
	return pw, nil
}
