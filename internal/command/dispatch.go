package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "redisgate/cli/internal/errors"

	"github.com/redis/go-redis/v9"
)

// Session is the subset of a live connection the dispatcher needs.
// *redis.Conn satisfies it.
type Session interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Info(ctx context.Context, section ...string) *redis.StringCmd
	Type(ctx context.Context, key string) *redis.StatusCmd
	Process(ctx context.Context, cmd redis.Cmder) error
}

var _ Session = (*redis.Conn)(nil)

// handler is one entry of the dispatch table. minArgs/maxArgs bound the argument
// count (maxArgs < 0 means unbounded); usage is the message returned when the
// bounds are violated.
type handler struct {
	minArgs int
	maxArgs int
	usage   string
	run     func(ctx context.Context, s Session, args []string) (any, error)
}

// handlers maps high-frequency verbs to typed calls. Everything else goes
// through generic after a second denylist check.
var handlers = map[string]handler{
	"GET": {minArgs: 1, maxArgs: 1, usage: "GET requires a key", run: func(ctx context.Context, s Session, args []string) (any, error) {
		return s.Get(ctx, args[0]).Result()
	}},
	"SET": {minArgs: 2, maxArgs: -1, usage: "SET requires key and value", run: func(ctx context.Context, s Session, args []string) (any, error) {
		if len(args) > 2 {
			// Options such as EX/PX/NX/XX/GET go to the server untouched.
			return generic(ctx, s, "SET", args)
		}
		return s.Set(ctx, args[0], args[1], 0).Result()
	}},
	"DEL": {minArgs: 1, maxArgs: -1, usage: "DEL requires at least one key", run: func(ctx context.Context, s Session, args []string) (any, error) {
		return s.Del(ctx, args...).Result()
	}},
	"EXISTS": {minArgs: 1, maxArgs: -1, usage: "EXISTS requires at least one key", run: func(ctx context.Context, s Session, args []string) (any, error) {
		return s.Exists(ctx, args...).Result()
	}},
	"KEYS": {minArgs: 0, maxArgs: 1, usage: "KEYS takes at most one pattern", run: func(ctx context.Context, s Session, args []string) (any, error) {
		pattern := "*"
		if len(args) > 0 {
			pattern = args[0]
		}
		return s.Keys(ctx, pattern).Result()
	}},
	"PING": {minArgs: 0, maxArgs: -1, run: func(ctx context.Context, s Session, _ []string) (any, error) {
		return s.Ping(ctx).Result()
	}},
	"INFO": {minArgs: 0, maxArgs: -1, run: func(ctx context.Context, s Session, args []string) (any, error) {
		return s.Info(ctx, args...).Result()
	}},
	"TTL": {minArgs: 1, maxArgs: 1, usage: "TTL requires a key", run: func(ctx context.Context, s Session, args []string) (any, error) {
		// Raw integer seconds (-1 no expiry, -2 missing key) rather than a Duration.
		cmd := redis.NewIntCmd(ctx, "ttl", args[0])
		_ = s.Process(ctx, cmd)
		return cmd.Result()
	}},
	"TYPE": {minArgs: 1, maxArgs: 1, usage: "TYPE requires a key", run: func(ctx context.Context, s Session, args []string) (any, error) {
		return s.Type(ctx, args[0]).Result()
	}},
}

// Known reports whether verb has a typed handler.
func Known(verb string) bool {
	_, ok := handlers[verb]
	return ok
}

// Dispatch executes one classified command on s and returns a JSON-safe reply.
// A missing value (nil reply) is a success with a nil result. Argument and
// denylist failures are command-kind *errors.E; server replies that are errors
// are returned as-is.
func Dispatch(ctx context.Context, s Session, c Classified) (any, error) {
	switch c.Verdict {
	case Malformed:
		return nil, apperrors.New(apperrors.Command, "Empty command")
	case Denied:
		return nil, apperrors.New(apperrors.Command, fmt.Sprintf("Command %s is not allowed", c.Verb))
	}

	h, ok := handlers[c.Verb]
	if !ok {
		// A Safe verdict computed elsewhere is not trusted here.
		if _, denied := DeniedPrefix(c.Verb); denied {
			return nil, apperrors.New(apperrors.Command, fmt.Sprintf("Command %s is not allowed", c.Verb))
		}
		return finish(generic(ctx, s, c.Name, c.Args))
	}

	if len(c.Args) < h.minArgs || (h.maxArgs >= 0 && len(c.Args) > h.maxArgs) {
		usage := h.usage
		if usage == "" {
			usage = fmt.Sprintf("wrong number of arguments for %s", c.Verb)
		}
		return nil, apperrors.New(apperrors.Command, usage)
	}
	return finish(h.run(ctx, s, c.Args))
}

// generic sends name + args verbatim.
func generic(ctx context.Context, s Session, name string, args []string) (any, error) {
	cmdArgs := make([]interface{}, 0, len(args)+1)
	cmdArgs = append(cmdArgs, name)
	for _, a := range args {
		cmdArgs = append(cmdArgs, a)
	}
	cmd := redis.NewCmd(ctx, cmdArgs...)
	_ = s.Process(ctx, cmd)
	return cmd.Result()
}

// finish maps a nil reply to a successful nil result and normalises values.
func finish(v any, err error) (any, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// Normalize converts driver reply values into JSON-serializable values.
// Byte slices become strings, nested arrays are converted recursively, maps get
// string keys and embedded error replies become their message.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case []interface{}:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		if val == nil {
			return []string{}
		}
		return val
	case map[interface{}]interface{}:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case error:
		return val.Error()
	default:
		return val
	}
}
