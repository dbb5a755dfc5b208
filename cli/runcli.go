// Copyright (c) 2024, The FieldSense Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package cli implements the simulator console. It parses and executes console commands.
package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/fieldsense/wsn-sim/logger"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type CliOptions struct {
	EchoInput   bool
	HistoryFile string
	Stdin       *os.File
	Stdout      *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{
		EchoInput: false,
		Stdin:     nil,
		Stdout:    nil,
	}
}

// CliInstance is the singleton console instance.
type CliInstance struct {
	Started          chan struct{}
	Options          *CliOptions
	readlineInstance *readline.Instance
	waitCliClosed    chan struct{}
}

var Cli = newCliInstance()

func newCliInstance() *CliInstance {
	return &CliInstance{
		Started:       make(chan struct{}),
		waitCliClosed: make(chan struct{}),
	}
}

// RestorePrompt redraws the prompt after other output was written to the terminal.
func (cli *CliInstance) RestorePrompt() {
	if cli.readlineInstance != nil {
		cli.readlineInstance.Refresh()
	}
}

func getCliOptions(options *CliOptions) *CliOptions {
	if options == nil {
		options = DefaultCliOptions()
	}
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return options
}

// Stop makes a running console return. It must only be called after Run was started.
func (cli *CliInstance) Stop() {
	<-cli.Started
	if cli.readlineInstance == nil {
		return
	}
	// readline blocks on its input; an ETX (Ctrl-C) followed by closing stdin makes Readline() return.
	_, _ = cli.Options.Stdin.WriteString("\003\n")
	_ = cli.Options.Stdin.Close()
	logger.Tracef("Waiting for CLI to stop ...")
	<-cli.waitCliClosed
	logger.Tracef("CLI wait-for-stop done.")
}

// Run reads commands from the console until exit, EOF or Ctrl-C on an empty line.
func (cli *CliInstance) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("CLI exit.")
	defer close(cli.waitCliClosed)

	options = getCliOptions(options)
	cli.Options = options

	restore, err := saveTerminalState(options.Stdin, options.Stdout)
	if err != nil {
		close(cli.Started)
		return err
	}
	defer restore()

	l, err := readline.NewEx(newReadlineConfig(handler, options))
	if err != nil {
		close(cli.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	cli.readlineInstance = l
	close(cli.Started)

	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		done, err := checkReadlineResult(line, err)
		if done || err != nil {
			return err
		}
		if err = cli.handleLine(handler, l.Stdout(), line); err != nil {
			return err
		}
	}
}

func newReadlineConfig(handler CliHandler, options *CliOptions) *readline.Config {
	return &readline.Config{
		Prompt:          handler.GetPrompt(),
		HistoryFile:     options.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           options.Stdin,
		Stdout:          options.Stdout,

		HistorySearchFold: true,
		AutoComplete:      newCompleter(handler),
		FuncFilterInputRune: func(r rune) (rune, bool) {
			// no job control from within the console
			return r, r != readline.CharCtrlZ
		},
	}
}

// saveTerminalState returns a function that restores the terminal modes of the given files.
func saveTerminalState(files ...*os.File) (func(), error) {
	var restore []func()
	for _, f := range files {
		fd := int(f.Fd())
		if !readline.IsTerminal(fd) {
			continue
		}
		state, err := readline.GetState(fd)
		if err != nil {
			return nil, err
		}
		restore = append(restore, func() {
			_ = readline.Restore(fd, state)
		})
	}
	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
	}, nil
}

// checkReadlineResult reports whether the console is done. Ctrl-C on a non-empty line only discards the line.
func checkReadlineResult(line string, err error) (bool, error) {
	switch {
	case len(line) > 0 && line[0] == readline.CharInterrupt:
		return true, nil
	case errors.Is(err, readline.ErrInterrupt):
		return len(line) == 0, nil
	case errors.Is(err, io.EOF):
		return true, nil
	case err != nil:
		return true, err
	}
	return false, nil
}

func (cli *CliInstance) handleLine(handler CliHandler, output io.Writer, line string) error {
	if cli.Options.EchoInput {
		if _, err := cli.Options.Stdout.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	cmd := strings.TrimSpace(line)
	if len(cmd) == 0 {
		return nil
	}
	err := handler.HandleCommand(cmd, output)
	_ = cli.Options.Stdout.Sync()
	return err
}

// commandLister is implemented by handlers that can name their commands for tab completion.
type commandLister interface {
	Commands() []string
}

func newCompleter(handler CliHandler) readline.AutoCompleter {
	lister, ok := handler.(commandLister)
	if !ok {
		return nil
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(lister.Commands()))
	for _, c := range lister.Commands() {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// OnStdout is the handler called when new Stdout/Stderr output occurred.
func (cli *CliInstance) OnStdout() {
	cli.RestorePrompt()
}
