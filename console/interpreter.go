// Package console implements the line-oriented command interpreter of the
// hbnb shell. Lines are accepted in keyword notation ("show User 1234") or
// dot notation ("User.show(1234)") and dispatched to one handler each.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"go.uber.org/zap"
)

// DefaultPrompt is printed before each line in interactive mode.
const DefaultPrompt = "(hbnb) "

// Options configures an Interpreter.
type Options struct {
	Engine *storage.Engine
	// Identity issues ids and timestamps. Defaults to models.SystemIdentity.
	Identity models.Identity
	Out      io.Writer
	// Prompt is printed before each line when Interactive is set.
	Prompt      string
	Interactive bool
	Logger      *zap.Logger
}

// Interpreter parses and executes shell commands against a storage engine.
type Interpreter struct {
	engine      *storage.Engine
	classes     *models.Registry
	identity    models.Identity
	out         io.Writer
	prompt      string
	interactive bool
	logger      *zap.Logger
	handlers    map[string]handler
}

type handler func(ctx context.Context, cmd Command) (string, error)

// errQuit stops the loop.
var errQuit = errors.New("quit")

// dotCommands are the commands reachable through dot notation.
var dotCommands = map[string]bool{
	"all":     true,
	"count":   true,
	"show":    true,
	"destroy": true,
	"update":  true,
}

// New creates an interpreter.
func New(opts Options) (*Interpreter, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("console: engine is required")
	}
	in := &Interpreter{
		engine:      opts.Engine,
		classes:     opts.Engine.Classes(),
		identity:    opts.Identity,
		out:         opts.Out,
		prompt:      opts.Prompt,
		interactive: opts.Interactive,
		logger:      opts.Logger,
	}
	if in.identity == nil {
		in.identity = models.SystemIdentity
	}
	if in.out == nil {
		in.out = io.Discard
	}
	if in.prompt == "" {
		in.prompt = DefaultPrompt
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	in.handlers = map[string]handler{
		"quit":    in.quit,
		"EOF":     in.quit,
		"help":    in.help,
		"create":  in.create,
		"show":    in.show,
		"destroy": in.destroy,
		"all":     in.all,
		"count":   in.count,
		"update":  in.update,
	}
	return in, nil
}

// Parse turns a line into a Command. Keyword notation applies when the
// first word is a known command; otherwise dot notation is tried.
func (in *Interpreter) Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, &SyntaxError{Line: line}
	}
	line = strings.TrimSpace(line)
	if _, ok := in.handlers[fields[0]]; ok {
		cmd, err := ParseKeyword(line)
		if err != nil {
			return Command{}, &SyntaxError{Line: line, Err: err}
		}
		return cmd, nil
	}
	cmd, err := ParseDot(line)
	if err != nil {
		return Command{}, &SyntaxError{Line: line, Err: err}
	}
	if !dotCommands[cmd.Name] {
		return Command{}, &SyntaxError{Line: line}
	}
	return cmd, nil
}

// Exec runs one line and writes its response. It reports whether the loop
// should stop.
func (in *Interpreter) Exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, err := in.Parse(line)
	if err == nil {
		var out string
		out, err = in.handlers[cmd.Name](ctx, cmd)
		if err == nil {
			if out != "" {
				fmt.Fprintln(in.out, out)
			}
			return false
		}
	}

	var (
		userErr   *UserError
		syntaxErr *SyntaxError
	)
	switch {
	case errors.Is(err, errQuit):
		return true
	case errors.As(err, &userErr):
		fmt.Fprintf(in.out, "** %s **\n", userErr.msg)
	case errors.As(err, &syntaxErr):
		in.logger.Debug("unknown syntax", zap.String("line", line), zap.NamedError("cause", syntaxErr.Err))
		fmt.Fprintf(in.out, "*** Unknown syntax: %s\n", syntaxErr.Line)
	default:
		in.logger.Error("command failed", zap.String("line", line), zap.Error(err))
		fmt.Fprintf(in.out, "** %s **\n", err)
	}
	return false
}

// Run reads lines from r until end of input, a quit command, or ctx is
// done. Cancellation is observed between lines.
func (in *Interpreter) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if in.interactive {
			fmt.Fprint(in.out, in.prompt)
		}
		if !scanner.Scan() {
			if in.interactive {
				fmt.Fprintln(in.out)
			}
			return scanner.Err()
		}
		if in.Exec(ctx, scanner.Text()) {
			return nil
		}
	}
}

// persist flushes the registry after a mutating command.
func (in *Interpreter) persist(ctx context.Context) error {
	if err := in.engine.Save(ctx); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// =============================================================================
// Argument resolution
// =============================================================================

func (in *Interpreter) resolveClass(cmd Command) (*models.Class, error) {
	name := unquote(cmd.Arg(0))
	if name == "" {
		return nil, ErrClassNameMissing
	}
	class, ok := in.classes.Lookup(name)
	if !ok {
		return nil, ErrClassNotExist
	}
	return class, nil
}

func (in *Interpreter) resolveInstance(cmd Command) (*models.Entity, error) {
	class, err := in.resolveClass(cmd)
	if err != nil {
		return nil, err
	}
	id := unquote(cmd.Arg(1))
	if id == "" {
		return nil, ErrInstanceIDMissing
	}
	ent, ok := in.engine.Get(class.Name, id)
	if !ok {
		return nil, ErrNoInstanceFound
	}
	return ent, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (in *Interpreter) quit(context.Context, Command) (string, error) {
	return "", errQuit
}

func (in *Interpreter) help(_ context.Context, cmd Command) (string, error) {
	topic := cmd.Arg(0)
	if topic == "" {
		return helpIndex(), nil
	}
	text, ok := helpTopics[topic]
	if !ok {
		return "*** No help on " + topic, nil
	}
	return text, nil
}

func (in *Interpreter) create(ctx context.Context, cmd Command) (string, error) {
	class, err := in.resolveClass(cmd)
	if err != nil {
		return "", err
	}
	ent := class.New(in.identity)
	if err := in.engine.Register(ent); err != nil {
		return "", err
	}
	if err := in.persist(ctx); err != nil {
		return "", err
	}
	in.logger.Info("created entity", zap.String("key", ent.Key()))
	return ent.ID(), nil
}

func (in *Interpreter) show(_ context.Context, cmd Command) (string, error) {
	ent, err := in.resolveInstance(cmd)
	if err != nil {
		return "", err
	}
	return ent.String(), nil
}

func (in *Interpreter) destroy(ctx context.Context, cmd Command) (string, error) {
	ent, err := in.resolveInstance(cmd)
	if err != nil {
		return "", err
	}
	if err := in.engine.Delete(ent.ClassName(), ent.ID()); err != nil {
		return "", err
	}
	if err := in.persist(ctx); err != nil {
		return "", err
	}
	in.logger.Info("destroyed entity", zap.String("key", ent.Key()))
	return "", nil
}

func (in *Interpreter) all(_ context.Context, cmd Command) (string, error) {
	class := ""
	if cmd.Arg(0) != "" {
		c, err := in.resolveClass(cmd)
		if err != nil {
			return "", err
		}
		class = c.Name
	}
	ents := in.engine.All(class)
	items := make([]string, len(ents))
	for i, ent := range ents {
		items[i] = `"` + ent.String() + `"`
	}
	return "[" + strings.Join(items, ", ") + "]", nil
}

func (in *Interpreter) count(_ context.Context, cmd Command) (string, error) {
	class, err := in.resolveClass(cmd)
	switch {
	case errors.Is(err, ErrClassNotExist):
		return "0", nil
	case err != nil:
		return "", err
	}
	return strconv.Itoa(in.engine.Count(class.Name)), nil
}

func (in *Interpreter) update(ctx context.Context, cmd Command) (string, error) {
	ent, err := in.resolveInstance(cmd)
	if err != nil {
		return "", err
	}

	var pairs []Pair
	if cmd.Dict != nil {
		pairs = cmd.Dict.Pairs
	} else {
		name := unquote(cmd.Arg(2))
		if name == "" {
			return "", ErrAttrNameMissing
		}
		raw := cmd.Arg(3)
		if raw == "" {
			return "", ErrValueMissing
		}
		pairs = []Pair{{Name: name, Value: coerce(raw)}}
	}

	changed := 0
	for _, p := range pairs {
		if models.IsProtected(p.Name) {
			in.logger.Debug("skipping protected attribute", zap.String("key", ent.Key()), zap.String("attribute", p.Name))
			continue
		}
		if err := ent.Set(p.Name, ent.Class().Conform(p.Name, p.Value)); err != nil {
			return "", err
		}
		changed++
	}
	if changed == 0 {
		return "", nil
	}
	ent.Touch(in.identity.Now())
	if err := in.persist(ctx); err != nil {
		return "", err
	}
	in.logger.Info("updated entity", zap.String("key", ent.Key()), zap.Int("attributes", changed))
	return "", nil
}
