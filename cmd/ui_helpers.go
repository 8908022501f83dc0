// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// startInlineSpinner animates frames followed by text on a single line of w
// until the returned stop function is called. Stop clears the line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", utf8.RuneCountInString(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// spin runs fn while a spinner with text is shown on stderr. Nothing is drawn
// when stderr is not a terminal or quiet is set.
func spin(text string, quiet bool, fn func()) {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		fn()
		return
	}
	cursor.Hide()
	stop := startInlineSpinner(os.Stderr, text, spinnerFrames, 100*time.Millisecond)
	defer cursor.Show()
	defer stop()
	fn()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// formatValue renders a command result for a table cell. Strings are shown
// as-is, nil as (nil) and everything else as compact JSON. Long values are
// cut to max runes.
func formatValue(v any, max int) string {
	var s string
	switch t := v.(type) {
	case nil:
		s = "(nil)"
	case string:
		s = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(b)
		}
	}
	if max > 1 && utf8.RuneCountInString(s) > max {
		r := []rune(s)
		s = string(r[:max-1]) + "…"
	}
	return s
}
