package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseResult is one input line split into a command word and arguments.
type ParseResult struct {
	// Command is the first word, lowercased. A run of one repeated
	// punctuation key ("]]]") is reduced to that key.
	Command string
	// Args are the remaining words.
	Args []string
	// Repeat is how many times the command was typed; 1 unless Command is a
	// collapsed key run.
	Repeat int
}

// Parse splits a line into a command and arguments.
//
// Postcondition: Command is empty only for a blank line; Repeat >= 1 otherwise.
func Parse(line string) ParseResult {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if word == "" {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(word), Args: strings.Fields(rest), Repeat: 1}
	if len(res.Args) == 0 {
		res.Args = nil
	}
	if key, n := keyRun(word); n > 1 {
		res.Command, res.Repeat = string(key), n
	}
	return res
}

// keyRun reports the key and length of a word made of one repeated
// punctuation or symbol character. Digits never form a run: "11" is not
// level 1 twice.
func keyRun(word string) (rune, int) {
	first, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsPunct(first) && !unicode.IsSymbol(first) {
		return 0, 0
	}
	n := 0
	for _, r := range word {
		if r != first {
			return 0, 0
		}
		n++
	}
	return first, n
}
