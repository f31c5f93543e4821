// Package password reads passwords from the user into secure memory.
package password

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/deploymenttheory/go-hushfs/internal/crypto"
	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// MaxLength is the longest password accepted
const MaxLength = 1024

// ConfirmPrompt is shown for the retype when confirmation is requested
const ConfirmPrompt = "Confirm: "

// ErrInterrupted is returned when the user presses Ctrl-C at a prompt
var ErrInterrupted = errors.New("password entry interrupted")

const (
	keyInterrupt = 0x03
	keyEOT       = 0x04
	keyBackspace = 0x08
	keyDelete    = 0x7F
)

// Prompter asks for passwords. On a terminal, input is read in raw mode and
// each typed character is echoed as '*' when masking is on. Other inputs are
// read a line at a time without echo.
type Prompter struct {
	in       io.Reader
	out      io.Writer
	mask     bool
	terminal bool
	fd       int
	lines    *bufio.Reader
}

// Ensure interface compliance
var _ interfaces.PasswordPrompter = (*Prompter)(nil)

// NewTerminalPrompter reads from stdin and writes prompts to stderr
func NewTerminalPrompter(mask bool) *Prompter {
	return NewPrompter(os.Stdin, os.Stderr, mask)
}

// NewPrompter reads from in and writes prompts to out. Raw terminal mode is
// used only when in is a terminal.
func NewPrompter(in io.Reader, out io.Writer, mask bool) *Prompter {
	p := &Prompter{in: in, out: out, mask: mask}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.terminal = true
		p.fd = int(f.Fd())
	} else {
		p.lines = bufio.NewReader(in)
	}
	return p
}

// Ask shows prompt and reads a password. With confirm the password is asked
// a second time and a mismatch is a PasswordMismatch error.
func (p *Prompter) Ask(prompt string, confirm bool) (*crypto.SecureBuffer, error) {
	first, err := p.obtain(prompt)
	if err != nil {
		return nil, err
	}
	if !confirm {
		return first, nil
	}

	second, err := p.obtain(ConfirmPrompt)
	if err != nil {
		first.Destroy()
		return nil, err
	}
	defer second.Destroy()

	if subtle.ConstantTimeCompare(first.Bytes(), second.Bytes()) != 1 {
		first.Destroy()
		return nil, types.NewPasswordMismatchError()
	}
	return first, nil
}

func (p *Prompter) obtain(prompt string) (*crypto.SecureBuffer, error) {
	fmt.Fprint(p.out, prompt)

	if !p.terminal {
		return readLine(p.lines, nil)
	}

	state, err := term.MakeRaw(p.fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set terminal raw mode: %w", err)
	}
	defer term.Restore(p.fd, state)

	var echo io.Writer
	if p.mask {
		echo = p.out
	}
	buf, err := readLine(byteReader{p.in}, echo)
	// raw mode does not translate newlines
	fmt.Fprint(p.out, "\r\n")
	return buf, err
}

// readLine collects bytes up to CR or LF into secure memory. Backspace and
// delete remove the last byte; with echo set each byte is shown as '*'.
func readLine(r io.ByteReader, echo io.Writer) (*crypto.SecureBuffer, error) {
	buf, err := crypto.NewSecureBuffer(MaxLength)
	if err != nil {
		return nil, err
	}

	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && buf.Len() > 0 {
				return buf, nil
			}
			buf.Destroy()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("no password entered: %w", err)
			}
			return nil, fmt.Errorf("failed to read password: %w", err)
		}

		switch c {
		case '\r', '\n':
			return buf, nil
		case keyInterrupt:
			buf.Destroy()
			return nil, ErrInterrupted
		case keyEOT:
			if buf.Len() == 0 {
				buf.Destroy()
				return nil, fmt.Errorf("no password entered: %w", io.EOF)
			}
			return buf, nil
		case keyBackspace, keyDelete:
			if buf.Pop() && echo != nil {
				fmt.Fprint(echo, "\b \b")
			}
		default:
			if err := buf.Append(c); err != nil {
				buf.Destroy()
				return nil, fmt.Errorf("password longer than %d bytes", MaxLength)
			}
			if echo != nil {
				fmt.Fprint(echo, "*")
			}
		}
	}
}

// byteReader reads a raw terminal one byte at a time so nothing typed after
// Enter is buffered away from the next prompt.
type byteReader struct {
	r io.Reader
}

func (b byteReader) ReadByte() (byte, error) {
	var one [1]byte
	for {
		n, err := b.r.Read(one[:])
		if n == 1 {
			return one[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}
