// Package globber selects trash candidates by filename pattern instead of
// trash age: a full listing of the trash set filtered by shell-style globs,
// an optional last-opened cutoff, and an optional required ancestor folder.
package globber

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled shell-style glob: `*` matches any run of characters,
// `?` a single character, `[...]` a character class (`[!...]` negated). The
// match is anchored to the whole filename; a separator has no special
// meaning because remote filenames are flat strings.
type Pattern struct {
	src string
	re  *regexp.Regexp
}

func Compile(glob string) (*Pattern, error) {
	if glob == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}
	var b strings.Builder
	b.WriteString(`\A`)

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				j++
			}
			if j < len(runes) && runes[j] == ']' {
				j++
			}
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				// unterminated class: treat the bracket literally
				b.WriteString(`\[`)
				continue
			}
			class := string(runes[i+1 : j])
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`\z`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", glob, err)
	}
	return &Pattern{src: glob, re: re}, nil
}

func (p *Pattern) Match(name string) bool { return p.re.MatchString(name) }

func (p *Pattern) String() string { return p.src }
