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

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"

	"github.com/fieldsense/wsn-sim/logger"
)

//go:embed README.md
var cliHelpFile string

var (
	topicHeaderPattern = regexp.MustCompile(`^###\s+(\S+)`)
	linkTargetPattern  = regexp.MustCompile(`\(#[a-z]+\)`)
)

const (
	helpIndent       = "  "
	minTermWidth     = 40
	defaultTermWidth = 80
)

// helpTopic is one '### <command>' section of the console reference.
type helpTopic struct {
	short string
	lines []string
}

// Help renders the embedded console reference.
type Help struct {
	termWidth  uint
	topicWidth int
	topics     map[string]*helpTopic
}

func newHelp() Help {
	h := Help{
		termWidth: defaultTermWidth,
		topics:    parseHelpTopics(cliHelpFile),
	}
	for name := range h.topics {
		if len(name) > h.topicWidth {
			h.topicWidth = len(name)
		}
	}
	h.update()
	return h
}

// Commands returns the documented command names in sorted order.
func (help *Help) Commands() []string {
	names := make([]string, 0, len(help.topics))
	for name := range help.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// update takes the width of the terminal on stdout, if any.
func (help *Help) update() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		logger.Debugf("could not get terminal size: %v", err)
		return
	}
	if width >= minTermWidth && width > help.topicWidth+20 {
		help.termWidth = uint(width)
	}
}

func (help *Help) outputGeneralHelp() string {
	var sb strings.Builder
	for _, name := range help.Commands() {
		fmt.Fprintf(&sb, "%-*s %s\n", help.topicWidth, name, help.topics[name].short)
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.termWidth))
	return sb.String()
}

func (help *Help) outputCommandHelp(command string) string {
	help.update()
	topic, ok := help.topics[command]
	if !ok {
		return command + "\n" + helpIndent + "(Non-existent command.)\n"
	}

	var sb strings.Builder
	sb.WriteString(command + "\n")
	width := help.termWidth - uint(len(helpIndent))
	for _, line := range topic.lines {
		for _, wrapped := range strings.Split(wordwrap.WrapString(line, width), "\n") {
			sb.WriteString(helpIndent + wrapped + "\n")
		}
	}
	return sb.String()
}

// parseHelpTopics splits the markdown reference into topics. Definition and example code blocks are
// labelled and indented; the first sentence of a topic's text is its short description.
func parseHelpTopics(md string) map[string]*helpTopic {
	topics := map[string]*helpTopic{}
	var cur *helpTopic
	inBlock := false

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if m := topicHeaderPattern.FindStringSubmatch(line); m != nil {
			cur = &helpTopic{}
			topics[m[1]] = cur
			inBlock = false
			continue
		}
		if cur == nil || line == "" {
			continue
		}

		switch line {
		case "```shell":
			cur.lines = append(cur.lines, "", "Definition:")
			inBlock = true
		case "```bash":
			cur.lines = append(cur.lines, "", "Example:")
			inBlock = true
		case "```":
			inBlock = false
		default:
			if inBlock {
				cur.lines = append(cur.lines, helpIndent+line)
				continue
			}
			text := markdownUnquote(line)
			if cur.short == "" {
				cur.short = firstSentence(text)
			}
			cur.lines = append(cur.lines, text)
		}
	}
	return topics
}

func firstSentence(s string) string {
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	md = strings.ReplaceAll(md, "`", "")
	return linkTargetPattern.ReplaceAllString(md, "")
}
