// Package bot turns user messages and button presses into ledger operations
// and replies. It is independent of any chat platform: callers pass an Event
// and render the returned Reply however their transport requires.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/report"
	"finbot/internal/session"
)

// DefaultPageSize is the number of transactions per list page.
const DefaultPageSize = 10

// Event is one inbound user action: either free text or button data.
type Event struct {
	UserID    int64  `json:"user_id"`
	Text      string `json:"text,omitempty"`
	Button    string `json:"button,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Button is a keyboard key; Data is sent back as Event.Button when pressed.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply is what the bot answers. Image, when set, is a PNG chart and Text
// is its caption.
type Reply struct {
	Text     string     `json:"text"`
	Image    []byte     `json:"image,omitempty"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

// Ledger is the store the dispatcher works against.
type Ledger interface {
	Add(ctx context.Context, userID, amount int64, description string, kind core.Kind) (core.Transaction, error)
	DeriveCategory(ctx context.Context, userID int64, kind core.Kind, description string) (string, error)
	List(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
	ListByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error)
	Clear(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, id int64) (*core.Transaction, error)
	Update(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Statistics(ctx context.Context, userID int64) (core.Statistics, error)
	AddCategoryRule(ctx context.Context, userID int64, name string, keywords []string) (bool, error)
	CategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error)
	DeleteCategoryRule(ctx context.Context, userID int64, name string) (bool, error)
	CategoryNames(ctx context.Context, userID int64) ([]string, error)
	StandardCategories() []core.Category
	Now() time.Time
}

type Dispatcher struct {
	ledger        Ledger
	sessions      *session.Tracker
	charts        report.ChartRenderer
	logger        *log.Logger
	pageSize      int
	historyMonths int
	loc           *time.Location
}

type Option func(*Dispatcher)

// WithCharts enables chart images; nil keeps replies text only.
func WithCharts(r report.ChartRenderer) Option {
	return func(d *Dispatcher) { d.charts = r }
}

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithPageSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.pageSize = n
		}
	}
}

func WithHistoryMonths(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.historyMonths = n
		}
	}
}

// WithLocation sets the zone used to print transaction times.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.loc = loc
		}
	}
}

func NewDispatcher(ledger Ledger, sessions *session.Tracker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ledger:        ledger,
		sessions:      sessions,
		logger:        log.New(log.DefaultConfig()).WithComponent(log.ComponentBot),
		pageSize:      DefaultPageSize,
		historyMonths: report.DefaultHistoryMonths,
		loc:           time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle routes ev to the button or text handler.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) Reply {
	if ev.Button != "" {
		return d.HandleButton(ctx, ev.UserID, ev.Button)
	}
	return d.handleText(ctx, ev.UserID, ev.FirstName, ev.Text)
}

// HandleText processes a typed message: a command, input for an active edit
// session, or a new transaction.
func (d *Dispatcher) HandleText(ctx context.Context, userID int64, text string) Reply {
	return d.handleText(ctx, userID, "", text)
}

func (d *Dispatcher) handleText(ctx context.Context, userID int64, firstName, text string) Reply {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		reply, err := d.command(ctx, userID, firstName, text)
		return d.finish(ctx, log.OpDispatch, userID, reply, err)
	}

	if s, ok := d.sessions.Peek(userID); ok {
		switch s.Action {
		case session.ActionAmount:
			reply, err := d.applyAmount(ctx, userID, s.TransactionID, text)
			return d.finish(ctx, log.OpUpdate, userID, reply, err)
		case session.ActionDescription:
			reply, err := d.applyDescription(ctx, userID, s.TransactionID, text)
			return d.finish(ctx, log.OpUpdate, userID, reply, err)
		default:
			// Type and category edits are button driven and never wait for text.
			d.sessions.End(userID)
		}
	}

	reply, err := d.addEntry(ctx, userID, text)
	return d.finish(ctx, log.OpCreate, userID, reply, err)
}

// HandleButton processes keyboard data.
func (d *Dispatcher) HandleButton(ctx context.Context, userID int64, data string) Reply {
	reply, err := d.button(ctx, userID, strings.TrimSpace(data))
	return d.finish(ctx, log.OpDispatch, userID, reply, err)
}

func (d *Dispatcher) addEntry(ctx context.Context, userID int64, text string) (Reply, error) {
	entry, err := core.ParseEntry(text)
	if errors.Is(err, core.ErrInvalidAmount) {
		return Reply{Text: msgAmountNotPositive, Keyboard: mainKeyboard()}, nil
	}
	if err != nil {
		return Reply{Text: msgEntryFormatHelp, Keyboard: mainKeyboard()}, nil
	}

	t, err := d.ledger.Add(ctx, userID, entry.Amount, entry.Description, entry.Kind)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: formatAdded(t), Keyboard: quickKeyboard()}, nil
}

// finish turns handler errors into user replies. Validation and not-found
// errors are expected; anything else is logged and answered generically.
func (d *Dispatcher) finish(ctx context.Context, op string, userID int64, reply Reply, err error) Reply {
	if err == nil {
		return reply
	}
	switch {
	case errors.Is(err, core.ErrNotFound):
		return Reply{Text: msgNotFound, Keyboard: mainKeyboard()}
	case errors.Is(err, core.ErrValidation):
		return Reply{Text: "❌ " + validationMessage(err), Keyboard: mainKeyboard()}
	}
	d.logger.Failure(ctx, "Failed to handle event", op, err, log.FieldUserID, userID)
	return Reply{Text: msgInternalError, Keyboard: mainKeyboard()}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Сумма должна быть положительной"
	case errors.Is(err, core.ErrEmptyDescription):
		return "Описание не может быть пустым"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Название категории не может быть пустым"
	case errors.Is(err, core.ErrNoKeywords):
		return "Укажите хотя бы одно ключевое слово"
	default:
		return "Некорректные данные"
	}
}

// owned loads a transaction that must belong to userID.
func (d *Dispatcher) owned(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	t, err := d.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, core.ErrNotFound
	}
	return t, nil
}
