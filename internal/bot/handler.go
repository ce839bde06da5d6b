package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"remindbot/internal/eventbus"
	"remindbot/internal/reminder"
	rtsup "remindbot/internal/runtime/supervisor"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

// Reminders is the reminder service as seen by the chat commands.
type Reminders interface {
	Create(ctx context.Context, chatID int64, text string) (reminder.Task, error)
	All(ctx context.Context, chatID int64) ([]reminder.Task, error)
	Future(ctx context.Context, chatID int64) ([]reminder.Task, error)
	DeletePast(ctx context.Context, chatID int64) ([]reminder.Task, error)
}

// Replier sends a reply to a chat.
type Replier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Options struct {
	Timeout time.Duration // per request; <=0 means 15s
	Workers int           // <=0 means min(NumCPU, 4)
}

// Handler turns chat updates into reminder operations and replies.
type Handler struct {
	svc   Reminders
	reply Replier
	log   logx.Logger
	bus   eventbus.Bus
	opt   Options

	final HandlerFunc
}

func NewHandler(svc Reminders, reply Replier, log logx.Logger, bus eventbus.Bus, opt Options) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	if opt.Workers <= 0 {
		opt.Workers = min(runtime.NumCPU(), 4)
	}
	h := &Handler{svc: svc, reply: reply, log: log, bus: bus, opt: opt}
	h.final = Chain(h.handle, MWRequestLog(), MWPanicRecover(), MWTimeout(opt.Timeout))
	return h
}

// HandleUpdate decodes one update and runs it through the middleware chain.
// Updates without text are ignored.
func (h *Handler) HandleUpdate(ctx context.Context, up kit.Update) error {
	msg := up.Message
	if msg == nil {
		return nil
	}
	cmd, ok := Decode(msg.Text)
	if !ok {
		return nil
	}
	rid := uuid.NewString()
	req := &Request{
		ReqID:     rid,
		ChatID:    msg.ChatID,
		FromID:    msg.FromID,
		FirstName: msg.FromFirstName,
		Command:   cmd,
		Logger: h.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
		),
	}
	return h.final(ctx, req)
}

func (h *Handler) handle(ctx context.Context, req *Request) error {
	var (
		text string
		err  error
	)
	switch req.Command.Kind {
	case CommandStart:
		text = greeting(req.FirstName)
	case CommandListAll:
		text, err = h.list(h.svc.All(ctx, req.ChatID))
	case CommandListFuture:
		text, err = h.list(h.svc.Future(ctx, req.ChatID))
	case CommandDeletePast:
		var deleted []reminder.Task
		deleted, err = h.svc.DeletePast(ctx, req.ChatID)
		if len(deleted) > 0 {
			eventbus.Publish(h.bus, eventbus.TypeTasksDeleted, len(deleted))
		}
		if err == nil {
			text = renderList(deleted)
		}
	case CommandCreateTask:
		var t reminder.Task
		t, err = h.svc.Create(ctx, req.ChatID, req.Command.Text)
		switch {
		case reminder.IsValidation(err):
			req.Logger.Debug("reminder rejected", logx.Err(err))
			text, err = err.Error(), nil
		case err == nil:
			eventbus.Publish(h.bus, eventbus.TypeTaskCreated, t.ID)
			text = renderSaved(t)
		}
	default:
		return fmt.Errorf("unhandled command kind %d", req.Command.Kind)
	}

	if err != nil {
		// Infrastructure failure: the user only sees a generic line.
		if rerr := h.reply.Send(ctx, req.ChatID, replyFailure); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return err
	}
	return h.reply.Send(ctx, req.ChatID, text)
}

func (h *Handler) list(tasks []reminder.Task, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return renderList(tasks), nil
}

// DispatchLoop consumes updates until ctx is done or updates is closed.
// Updates are sharded by chat id so one chat's messages are handled in order.
func (h *Handler) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := rtsup.New(ctx,
		rtsup.WithLogger(h.log),
		rtsup.WithCancelOnError(false),
	)
	lanes := make([]chan kit.Update, h.opt.Workers)
	for i := range lanes {
		lane := make(chan kit.Update, 32)
		lanes[i] = lane
		sup.GoRestart(fmt.Sprintf("bot.worker.%d", i), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case up, ok := <-lane:
					if !ok {
						return nil
					}
					// Errors are logged by the request log middleware.
					_ = h.HandleUpdate(c, up)
				}
			}
		}, rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}
	h.log.Info("update dispatcher started", logx.Int("workers", len(lanes)))

	defer func() {
		for _, l := range lanes {
			close(l)
		}
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		h.log.Info("update dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Message == nil {
				continue
			}
			lane := lanes[shard(up.Message.ChatID, len(lanes))]
			select {
			case lane <- up:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func shard(chatID int64, n int) int {
	return int(uint64(chatID) % uint64(n))
}
