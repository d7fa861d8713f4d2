// AngelaMos | 2026
// command.go

package admin

import (
	"slices"
	"strings"
	"unicode"
)

const (
	replyEnable  = "New option identified and enabled in the menu."
	replyDisable = "Option disabled."
	replyBan     = "User identified. Ban protocol started."
	replyDefault = "Command processed. System settings updated."
)

type commandRule struct {
	keywords []string
	reply    string
}

// First matching rule wins.
var commandRules = []commandRule{
	{
		keywords: []string{"desativar", "remover", "disable", "deactivate", "remove"},
		reply:    replyDisable,
	},
	{keywords: []string{"ativar", "adicionar opção", "activate", "add"}, reply: replyEnable},
	{keywords: []string{"banir", "ban"}, reply: replyBan},
}

// Interpret maps a console command onto its canned reply. Keywords match
// whole words only. Commands are logged but never executed.
func Interpret(command string) string {
	words := tokenize(command)
	for _, rule := range commandRules {
		for _, kw := range rule.keywords {
			if containsPhrase(words, tokenize(kw)) {
				return rule.reply
			}
		}
	}
	return replyDefault
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		if slices.Equal(words[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}
