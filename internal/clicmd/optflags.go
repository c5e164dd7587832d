package clicmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/vesper/lang/optimizer"
)

// toggleSetters maps lang/optimizer.ToggleNames's spellings to the
// Options field each one flips, so -O<name>/-Ono-<name> can address
// them by the same names -Ohelp prints.
var toggleSetters = map[string]func(*optimizer.Options, bool){
	"fold-literals":        func(o *optimizer.Options, v bool) { o.FoldLiterals = v },
	"fold-constants":       func(o *optimizer.Options, v bool) { o.FoldConstants = v },
	"elide-unused-vars":    func(o *optimizer.Options, v bool) { o.ElideUnusedVars = v },
	"elide-dead-code":      func(o *optimizer.Options, v bool) { o.ElideDeadCode = v },
	"elide-empty-loops":    func(o *optimizer.Options, v bool) { o.ElideEmptyLoops = v },
	"rewrite-for-in-range": func(o *optimizer.Options, v bool) { o.RewriteForInRange = v },
	"suppress-line-info":   func(o *optimizer.Options, v bool) { o.SuppressLineInfo = v },
	"elide-private-names":  func(o *optimizer.Options, v bool) { o.ElidePrivateNames = v },
}

// applyOptTokens folds a sequence of -O<name> suffixes (the part after
// "-O") onto base, in order, so later tokens override earlier ones --
// the same left-to-right toggle semantics spec.md's flag table
// describes. A bare numeric suffix ("0".."4") resets base to that
// level's preset before any toggles seen after it are applied; "all"
// turns every toggle on; "help" requests the toggle listing instead of
// compiling anything.
func applyOptTokens(tokens []string, base optimizer.Options) (opts optimizer.Options, help bool, err error) {
	opts = base
	for _, suffix := range tokens {
		switch {
		case suffix == "help":
			return opts, true, nil
		case suffix == "all":
			for _, set := range toggleSetters {
				set(&opts, true)
			}
		case suffix == "":
			return opts, false, fmt.Errorf("clicmd: -O requires a suffix (level, name, no-name, all, or help)")
		case suffix[0] >= '0' && suffix[0] <= '9':
			n, convErr := strconv.Atoi(suffix)
			if convErr != nil || n < int(optimizer.NONE) || n > int(optimizer.EXTREME) {
				return opts, false, fmt.Errorf("clicmd: -O%s: level must be 0-%d", suffix, int(optimizer.EXTREME))
			}
			opts = optimizer.ForLevel(optimizer.Level(n))
		case strings.HasPrefix(suffix, "no-"):
			name := suffix[len("no-"):]
			set, ok := toggleSetters[name]
			if !ok {
				return opts, false, fmt.Errorf("clicmd: -Ono-%s: unknown optimization %q", name, name)
			}
			set(&opts, false)
		default:
			set, ok := toggleSetters[suffix]
			if !ok {
				return opts, false, fmt.Errorf("clicmd: -O%s: unknown optimization %q", suffix, suffix)
			}
			set(&opts, true)
		}
	}
	return opts, false, nil
}

// helpText lists every toggle name -Ohelp can target, one per line.
func helpText() string {
	var sb strings.Builder
	sb.WriteString("available -O toggles (use -O<name> to enable, -Ono-<name> to disable):\n")
	for _, name := range optimizer.ToggleNames() {
		sb.WriteString("  ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	sb.WriteString("levels: -O0 (none) -O1 (repl) -O2 (debug) -O3 (release) -O4 (extreme)\n")
	sb.WriteString("-Oall enables every toggle\n")
	return sb.String()
}
