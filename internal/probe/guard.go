package probe

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/shlex"
)

// ErrNotReadOnly is returned when a probe command could change host state.
var ErrNotReadOnly = errors.New("probe command is not read-only")

// CommandSpec defines the constraints for an allowlisted probe binary.
type CommandSpec struct {
	// RequireAny lists arguments of which at least one must be present
	// (e.g., modprobe must carry -n to stay a dry run).
	RequireAny []string

	// Forbidden lists arguments that are never allowed.
	Forbidden []string

	// ForbiddenPrefixes rejects any argument starting with one of these.
	ForbiddenPrefixes []string

	// ForbiddenSubstrings rejects any argument containing one of these. It
	// covers interpreters such as awk whose script is a single argument.
	ForbiddenSubstrings []string

	// MaxArgs is the maximum number of arguments; -1 means unlimited.
	MaxArgs int
}

// Guard validates that probe commands only invoke read-only binaries.
// It is applied when the catalogue and config are loaded, never at run time.
type Guard struct {
	allowlist map[string]CommandSpec
}

// pipelineSeparators split a command line into independently validated segments.
var pipelineSeparators = map[string]bool{"|": true, "||": true, "&&": true, ";": true}

// NewGuard creates a Guard with the default read-only allowlist.
func NewGuard() *Guard {
	unlimited := CommandSpec{MaxArgs: -1}

	return &Guard{allowlist: map[string]CommandSpec{
		"modprobe": {RequireAny: []string{"-n", "--dry-run"}, Forbidden: []string{"-r", "--remove"}, MaxArgs: 4},
		"lsmod":    {MaxArgs: 0},
		"mount":    {MaxArgs: 0},
		"findmnt":  unlimited,
		"df":       unlimited,
		"stat":     unlimited,
		"ls":       unlimited,
		"cat":      unlimited,
		"head":     unlimited,
		"tail":     unlimited,
		"cut":      unlimited,
		"sort":     {Forbidden: []string{"-o"}, ForbiddenPrefixes: []string{"--output"}, MaxArgs: -1},
		"uniq":     {MaxArgs: 2},
		"wc":       unlimited,
		"echo":     unlimited,
		"printf":   unlimited,
		"true":     {MaxArgs: 0},
		"false":    {MaxArgs: 0},
		"grep":     unlimited,
		"egrep":    unlimited,
		"awk": {
			Forbidden:           []string{"-f", "--file", "-i", "--include", "-l", "--load"},
			ForbiddenSubstrings: []string{"system", ">", "|"},
			MaxArgs:             -1,
		},
		"find": {
			Forbidden: []string{"-delete", "-exec", "-execdir", "-ok", "-okdir", "-fprint", "-fprint0", "-fprintf", "-fls"},
			MaxArgs:   -1,
		},
		"xargs":       unlimited,
		"rpm":         {RequireAny: []string{"-q"}, MaxArgs: -1},
		"dpkg":        {RequireAny: []string{"-s", "-l", "--status", "--list"}, MaxArgs: -1},
		"dpkg-query":  unlimited,
		"apt-cache":   {RequireAny: []string{"policy", "show", "showpkg"}, MaxArgs: -1},
		"apt-key":     {RequireAny: []string{"list"}, MaxArgs: 1},
		"yum":         {RequireAny: []string{"repolist"}, MaxArgs: 2},
		"dnf":         {RequireAny: []string{"repolist"}, MaxArgs: 2},
		"zypper":      {RequireAny: []string{"repos", "lr"}, MaxArgs: 2},
		"systemctl":   {RequireAny: []string{"is-enabled", "is-active", "is-failed", "status", "show"}, MaxArgs: 4},
		"crontab":     {RequireAny: []string{"-l"}, Forbidden: []string{"-r", "-e", "-i"}, MaxArgs: 3},
		"sysctl":      {Forbidden: []string{"-w", "--write", "-p", "--load", "--system"}, MaxArgs: -1},
		"uname":       unlimited,
		"lsblk":       unlimited,
		"blkid":       unlimited,
		"id":          unlimited,
		"getent":      unlimited,
		"journalctl":  {Forbidden: []string{"--vacuum-size", "--vacuum-time", "--rotate", "--flush"}, MaxArgs: -1},
		"aide":        {RequireAny: []string{"--version", "-v"}, MaxArgs: 1},
		"lsb_release": unlimited,
	}}
}

// Check validates a full shell command line. Every pipeline segment must invoke an
// allowlisted binary with arguments that satisfy its CommandSpec, output may only be
// redirected to /dev/null, and command substitution, background jobs and
// multi-line scripts are rejected.
func (g *Guard) Check(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command", ErrNotReadOnly)
	}
	if strings.Contains(command, "$(") || strings.Contains(command, "`") {
		return fmt.Errorf("%w: command substitution in %q", ErrNotReadOnly, command)
	}

	normalized, err := scanOperators(command)
	if err != nil {
		return fmt.Errorf("%w: %v in %q", ErrNotReadOnly, err, command)
	}

	tokens, err := shlex.Split(normalized)
	if err != nil {
		return fmt.Errorf("%w: cannot tokenize %q: %v", ErrNotReadOnly, command, err)
	}

	for _, segment := range splitSegments(tokens) {
		if err := g.checkSegment(segment); err != nil {
			return fmt.Errorf("%w: %v in %q", ErrNotReadOnly, err, command)
		}
	}
	return nil
}

// splitSegments breaks a token stream at pipeline and list separators.
func splitSegments(tokens []string) [][]string {
	var segments [][]string
	var current []string
	for _, tok := range tokens {
		if pipelineSeparators[tok] {
			segments = append(segments, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	return append(segments, current)
}

// checkSegment validates a single simple command.
func (g *Guard) checkSegment(segment []string) error {
	args, err := stripRedirections(segment)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("empty pipeline segment")
	}

	binary := path.Base(args[0])
	spec, ok := g.allowlist[binary]
	if !ok {
		return fmt.Errorf("command %q not in read-only allowlist", binary)
	}
	if err := validateArgs(binary, spec, args[1:]); err != nil {
		return err
	}

	// xargs executes its own command line; validate that nested command too.
	if binary == "xargs" {
		if nested := xargsCommand(args[1:]); len(nested) > 0 {
			return g.checkSegment(nested)
		}
	}
	return nil
}

// xargsValueFlags are xargs options that consume the following argument.
var xargsValueFlags = map[string]bool{
	"-I": true, "-L": true, "-n": true, "-P": true, "-s": true, "-d": true, "-E": true, "-a": true,
	"--max-args": true, "--max-lines": true, "--max-procs": true, "--max-chars": true,
	"--delimiter": true, "--eof": true, "--arg-file": true,
}

// xargsCommand returns the command line xargs will run: everything from the
// first argument that is neither an option nor an option value.
func xargsCommand(args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args[i+1:]
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return args[i:]
		}
		if xargsValueFlags[arg] {
			i++
		}
	}
	return nil
}

// redirectTerminators end the target word of a redirection.
const redirectTerminators = " \t;|&<>()"

// scanOperators walks the unquoted parts of a command line. It rejects
// newlines, background jobs, process substitution and output redirection to
// anything but /dev/null, and pads pipe and list operators with spaces so the
// tokenizer sees them as separate words even when written as "a|b" or "a;b".
func scanOperators(command string) (string, error) {
	var b strings.Builder
	var quote byte
	n := len(command)
	peek := func(i int) byte {
		if i < n {
			return command[i]
		}
		return 0
	}

	for i := 0; i < n; i++ {
		c := command[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == quote:
				quote = 0
			case c == '\\' && quote == '"' && i+1 < n:
				i++
				b.WriteByte(command[i])
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			b.WriteByte(c)
		case '\\':
			b.WriteByte(c)
			if i+1 < n {
				i++
				b.WriteByte(command[i])
			}
		case '\n', '\r':
			return "", fmt.Errorf("newline separates commands")
		case '|':
			if peek(i+1) == '|' {
				b.WriteString(" || ")
				i++
			} else {
				b.WriteString(" | ")
			}
		case ';':
			b.WriteString(" ; ")
		case '&':
			switch {
			case peek(i+1) == '&':
				b.WriteString(" && ")
				i++
			case peek(i+1) == '>' || (i > 0 && command[i-1] == '<'):
				b.WriteByte(c)
			default:
				return "", fmt.Errorf("background operator '&'")
			}
		case '<':
			if peek(i+1) == '(' {
				return "", fmt.Errorf("process substitution")
			}
			b.WriteByte(c)
		case '>':
			end, err := redirectEnd(command, i)
			if err != nil {
				return "", err
			}
			b.WriteString(command[i:end])
			i = end - 1
		default:
			b.WriteByte(c)
		}
	}
	if quote != 0 {
		// Left for the tokenizer to report.
		return command, nil
	}
	return b.String(), nil
}

// redirectEnd validates the output redirection starting at command[i] and
// returns the index just past its target. Only /dev/null and descriptor
// duplication (>&1, >&2, >&-) are accepted.
func redirectEnd(command string, i int) (int, error) {
	n := len(command)
	j := i
	for j < n && command[j] == '>' {
		j++
	}
	if j < n && command[j] == '(' {
		return 0, fmt.Errorf("process substitution")
	}
	if j < n && command[j] == '&' {
		k := j + 1
		for k < n && (command[k] >= '0' && command[k] <= '9' || command[k] == '-') {
			k++
		}
		if k == j+1 || (k < n && !strings.ContainsRune(redirectTerminators, rune(command[k]))) {
			return 0, fmt.Errorf("redirection %q would write to disk", command[i:])
		}
		return k, nil
	}

	k := j
	for k < n && (command[k] == ' ' || command[k] == '\t') {
		k++
	}
	end := k
	for end < n && !strings.ContainsRune(redirectTerminators, rune(command[end])) {
		end++
	}
	if target := command[k:end]; target != "/dev/null" {
		return 0, fmt.Errorf("redirection to %q would write to disk", target)
	}
	return end, nil
}

// stripRedirections removes redirections from a segment, rejecting any that
// write somewhere other than /dev/null.
func stripRedirections(segment []string) ([]string, error) {
	var args []string
	for i := 0; i < len(segment); i++ {
		tok := segment[i]
		op, target, isRedirect := parseRedirect(tok)
		if !isRedirect {
			args = append(args, tok)
			continue
		}
		if strings.HasPrefix(op, "<") || strings.HasPrefix(target, "&") {
			continue
		}
		if target == "" {
			if i+1 >= len(segment) {
				return nil, fmt.Errorf("dangling redirection %q", tok)
			}
			i++
			target = segment[i]
		}
		if target != "/dev/null" {
			return nil, fmt.Errorf("redirection to %q would write to disk", target)
		}
	}
	return args, nil
}

// parseRedirect splits tokens such as "2>/dev/null", ">>", "&>" or "<file".
func parseRedirect(tok string) (op, target string, ok bool) {
	i := 0
	for i < len(tok) && (tok[i] >= '0' && tok[i] <= '9' || tok[i] == '&') {
		i++
	}
	if i >= len(tok) || (tok[i] != '>' && tok[i] != '<') {
		return "", "", false
	}
	j := i
	for j < len(tok) && (tok[j] == '>' || tok[j] == '<') {
		j++
	}
	return tok[i:j], tok[j:], true
}

// validateArgs checks that all arguments comply with the CommandSpec constraints.
func validateArgs(binary string, spec CommandSpec, args []string) error {
	if spec.MaxArgs >= 0 && len(args) > spec.MaxArgs {
		return fmt.Errorf("%s: too many arguments: got %d, max %d", binary, len(args), spec.MaxArgs)
	}

	for _, arg := range args {
		if contains(spec.Forbidden, arg) {
			return fmt.Errorf("%s: argument %q not allowed", binary, arg)
		}
		for _, sub := range spec.ForbiddenSubstrings {
			if strings.Contains(arg, sub) {
				return fmt.Errorf("%s: argument %q contains %q", binary, arg, sub)
			}
		}
		for _, prefix := range spec.ForbiddenPrefixes {
			if strings.HasPrefix(arg, prefix) {
				return fmt.Errorf("%s: argument %q not allowed", binary, arg)
			}
		}
	}

	if len(spec.RequireAny) > 0 && !containsAny(args, spec.RequireAny) {
		return fmt.Errorf("%s: requires one of %s", binary, strings.Join(spec.RequireAny, ", "))
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsAny(args, wanted []string) bool {
	for _, a := range args {
		if contains(wanted, a) {
			return true
		}
	}
	return false
}
