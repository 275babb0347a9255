package sandbox

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// safeRedirectSuffixes lists the trailing redirect forms that may be removed
// from a command before tokenization. These discard or merge diagnostic
// output and cannot smuggle additional effects. The list is priority-ordered:
// more specific forms come before forms they contain, and only the first
// match is stripped, exactly once.
var safeRedirectSuffixes = []string{
	"> /dev/null 2>&1",
	">/dev/null 2>&1",
	"&> /dev/null",
	"&>/dev/null",
	"2> /dev/null",
	"2>/dev/null",
	"2>&1",
}

// stripSafeRedirect removes at most one recognized benign redirect suffix
// from the command. The suffix must stand alone after whitespace; a command
// that consists of nothing but a redirect is returned unchanged.
func stripSafeRedirect(command string) string {
	trimmed := strings.TrimRight(command, " \t")
	for _, suffix := range safeRedirectSuffixes {
		if !strings.HasSuffix(trimmed, suffix) {
			continue
		}
		rest := trimmed[:len(trimmed)-len(suffix)]
		if rest == "" {
			break
		}
		if last := rest[len(rest)-1]; last != ' ' && last != '\t' {
			continue
		}
		return strings.TrimRight(rest, " \t")
	}
	return trimmed
}

// TokenizeCommand parses a shell command into its word tokens.
//
// One trailing benign redirect (see safeRedirectSuffixes) is stripped before
// parsing. The remainder is lexed with full shell quoting rules. Any control,
// pipe, sequencing, or redirection structure anywhere in the command -- as
// well as command substitution, process substitution, parameter expansion,
// or environment assignments -- classifies the whole command as compound.
// Compound commands expose no tokens: redirects and operators are attack
// surface for smuggling effects past a bypass pattern, so anything beyond a
// single simple invocation is never eligible for matching.
//
// A bare unquoted "*" word is preserved as a literal "*" token.
func TokenizeCommand(command string) (tokens []string, compound bool) {
	command = stripSafeRedirect(strings.TrimSpace(command))
	if command == "" {
		return nil, false
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		// Unparseable input can hide anything; never let it match.
		return nil, true
	}
	if len(file.Stmts) != 1 {
		return nil, true
	}
	stmt := file.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, true
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, true
	}
	if len(call.Assigns) > 0 {
		return nil, true
	}

	tokens = make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		tok, ok := flattenWord(word)
		if !ok {
			return nil, true
		}
		tokens = append(tokens, tok)
	}
	return tokens, false
}

// flattenWord evaluates a parsed word that consists only of literal text
// and quoting, applying shell unquoting rules (quote removal, backslash
// escapes). Words containing expansions or substitutions have values that
// depend on runtime shell state; for those ok is false. $'...' quoting is
// also rejected rather than decoding ANSI-C escapes.
func flattenWord(word *syntax.Word) (string, bool) {
	var b strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(unescapeLit(p.Value, false))
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", false
			}
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", false
				}
				b.WriteString(unescapeLit(lit.Value, true))
			}
		default:
			return "", false
		}
	}
	return b.String(), true
}

// unescapeLit removes backslash escapes from a literal word part. Outside
// quotes a backslash escapes any following character; inside double quotes
// it is special only before $, `, ", \ and a line continuation.
func unescapeLit(s string, inDquotes bool) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		if inDquotes && !strings.ContainsRune("$`\"\\\n", rune(next)) {
			b.WriteByte(c)
			continue
		}
		i++
		if next == '\n' {
			continue // line continuation
		}
		b.WriteByte(next)
	}
	return b.String()
}
