package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"redditslacker/pkg/logger"
	"slices"
	"strings"
	"time"
)

const backgroundTimeout = 5 * time.Minute

var (
	ErrForbidden = errors.New("not allowed")
	ErrBusy      = errors.New("worker queue is full")
)

var (
	processing = ports.NewMessage("Processing your request... please allow a few seconds.")
	busy       = ports.Notice(ports.ColorDanger, "Too many requests in flight, please try again in a minute.")
	forbidden  = ports.Notice(ports.ColorDanger, "You are not allowed to do that.")
	userUsage  = ports.NewMessage("Usage: /user [username].")
	sumUsage   = ports.NewMessage("Usage: /summary [username].")
	configOK   = ports.Notice(ports.ColorGood, "Configuration updated successfully.")
	configNF   = ports.Notice(ports.ColorDanger, "Configuration parameter not found.")
	unknownBtn = ports.NewMessage("Unknown action.")
	notFound   = ports.NewMessage("", ports.Attachment{
		Fallback: "Summary error.",
		Title:    "Error: user not found.",
		Color:    ports.ColorDanger,
	})
)

// Settings is the subset of the config manager used by the commands.
type Settings interface {
	Get() *config.Config
	Set(name, value string) error
}

type Deps struct {
	Log       logger.Logger
	Settings  Settings
	Reddit    ports.RedditPort
	Store     ports.OffenseStorePort
	Notes     ports.UsernotesPort
	Chart     ports.ChartPort
	Images    ports.ImageHostPort
	Pool      ports.PoolPort
	Responder ports.ResponderPort
	Poster    ports.PosterPort
	Users     ports.CachePort[ports.Redditor]
	Started   time.Time
}

type (
	commandFunc func(ctx context.Context, cmd ports.SlashCommand, args []string) (ports.Message, error)
	actionFunc  func(ctx context.Context, act ports.ButtonAction, arg string) (ports.Message, error)
)

// Service answers slash commands and button presses. Replies are returned
// synchronously; anything that talks to Reddit runs on the worker pool and
// reports back through the request's response_url.
type Service struct {
	log       logger.Logger
	settings  Settings
	reddit    ports.RedditPort
	store     ports.OffenseStorePort
	notes     ports.UsernotesPort
	chart     ports.ChartPort
	images    ports.ImageHostPort
	pool      ports.PoolPort
	responder ports.ResponderPort
	poster    ports.PosterPort
	users     ports.CachePort[ports.Redditor]
	started   time.Time

	commands map[string]commandFunc
	actions  map[string]actionFunc
}

func New(d Deps) *Service {
	s := &Service{
		log:       d.Log,
		settings:  d.Settings,
		reddit:    d.Reddit,
		store:     d.Store,
		notes:     d.Notes,
		chart:     d.Chart,
		images:    d.Images,
		pool:      d.Pool,
		responder: d.Responder,
		poster:    d.Poster,
		users:     d.Users,
		started:   d.Started,
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}

	s.commands = map[string]commandFunc{
		"/user":     s.userCommand,
		"/summary":  s.summaryCommand,
		"/rsconfig": s.configCommand,
		"/rsping":   s.pingCommand,
	}

	s.actions = map[string]actionFunc{
		"permamute":   s.statusAction("Updated user status."),
		"unpermamute": s.statusAction("Updated user status."),
		"track":       s.statusAction("Tracking user."),
		"untrack":     s.statusAction("Ceasing to track user."),
		"shadowban":   s.shadowbanAction,
		"unshadowban": s.shadowbanAction,
		"ban":         s.banAction,
		"verify":      s.verifyAction,
		"banreq":      s.banRequestAction,
		"approve":     s.moderateAction,
		"remove":      s.moderateAction,
		"summary":     s.summaryAction,
	}

	return s
}

// HandleCommand logs and dispatches a slash command.
func (s *Service) HandleCommand(ctx context.Context, cmd ports.SlashCommand) ports.Message {
	s.logCommand(ctx, cmd)

	fn, ok := s.commands[cmd.Command]
	if !ok {
		metrics.SlashCommands.WithLabelValues("unknown", metrics.StatusError).Inc()
		return ports.NewMessage(s.usage())
	}

	msg, err := fn(ctx, cmd, strings.Fields(cmd.Text))
	metrics.SlashCommands.WithLabelValues(cmd.Command, metrics.Status(err)).Inc()
	if err != nil {
		s.log.Warn("Slash command failed", slog.String("command", cmd.Command), slog.String("user", cmd.UserName), slog.String("error", err.Error()))
	}
	return msg
}

// HandleAction dispatches a button press by the action part of its value.
// Summary limit buttons carry a bare number and are routed by callback id.
func (s *Service) HandleAction(ctx context.Context, act ports.ButtonAction) ports.Message {
	action, arg := act.Split()
	if strings.HasPrefix(act.CallbackID, "summary_") {
		action, arg = "summary", act.Value
	}

	fn, ok := s.actions[action]
	if !ok {
		metrics.ButtonActions.WithLabelValues("unknown", metrics.StatusError).Inc()
		return unknownBtn
	}

	msg, err := fn(ctx, act, arg)
	metrics.ButtonActions.WithLabelValues(action, metrics.Status(err)).Inc()
	if err != nil {
		s.log.Warn("Button action failed", slog.String("action", action), slog.String("user", act.UserName), slog.String("error", err.Error()))
	}
	return msg
}

func (s *Service) usage() string {
	names := slices.Sorted(maps.Keys(s.commands))
	return "Unknown command. Available commands: " + strings.Join(names, ", ") + "."
}

func (s *Service) logCommand(ctx context.Context, cmd ports.SlashCommand) {
	err := s.store.LogCommand(ctx, ports.CommandLog{
		UserName:    cmd.UserName,
		UserID:      cmd.UserID,
		TeamName:    cmd.TeamDomain,
		TeamID:      cmd.TeamID,
		ChannelName: cmd.ChannelName,
		ChannelID:   cmd.ChannelID,
		Command:     cmd.Command,
		Args:        cmd.Text,
	})
	if err != nil {
		s.log.Error("Failed to log command", err, slog.String("command", cmd.Command))
	}
}

// detached runs fn on the worker pool with a context that outlives the HTTP
// request it came from.
func (s *Service) detached(ctx context.Context, op string, fn func(ctx context.Context)) error {
	bg := context.WithoutCancel(ctx)

	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(bg, backgroundTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrBusy, err)
	}
	return nil
}

// background is detached work whose reply is delivered to responseURL.
func (s *Service) background(ctx context.Context, op, responseURL string, fn func(ctx context.Context) ports.Message) error {
	return s.detached(ctx, op, func(ctx context.Context) {
		if err := s.responder.Respond(ctx, responseURL, fn(ctx)); err != nil {
			s.log.Error("Failed to deliver delayed response", err, slog.String("op", op))
		}
	})
}

func (s *Service) dryRun() bool {
	return s.settings.Get().App.DryRun
}

func (s *Service) isModerator(name string) bool {
	for _, m := range s.settings.Get().Slack.Moderators {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// redditor resolves name to its canonical account, consulting the cache.
func (s *Service) redditor(ctx context.Context, name string) (ports.Redditor, error) {
	key := strings.ToLower(name)
	if s.users != nil {
		if r, ok := s.users.Get(key); ok {
			return r, nil
		}
	}

	r, err := s.reddit.User(ctx, name)
	if err != nil {
		return ports.Redditor{}, err
	}

	if s.users != nil {
		s.users.Set(key, *r)
	}
	return *r, nil
}

// forget drops the cached account of name so the next lookup sees its
// post-moderation state.
func (s *Service) forget(name string) {
	if s.users != nil {
		s.users.ClearKey(strings.ToLower(name))
	}
}

func failure(text string, err error) ports.Message {
	return ports.NewMessage(text, ports.Attachment{
		Fallback: text,
		Text:     err.Error(),
		Color:    ports.ColorDanger,
	})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func profileURL(name string) string {
	return "https://www.reddit.com/user/" + name
}
