// Package dispatch turns menu selections, free text and photos into
// provider calls according to each user's pending action.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/metrics"
	tg "studybot/core/telegram"
	"studybot/core/telegram/commands"
	tghelpers "studybot/core/telegram/helpers"
	"studybot/core/telegram/keyboard"
	"studybot/core/telegram/state"
	"studybot/study/providers"
	"studybot/study/store"
)

// Pending actions.
const (
	StateSummary    state.State = "summary"
	StateSearch     state.State = "search"
	StatePhoto      state.State = "photo"
	StateNotesList  state.State = "show_notes_list"
	StateCalculator state.State = "calculator"
)

// Store is the persistence the dispatcher needs.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, at time.Time) error
	AddNote(ctx context.Context, userID int64, topic, content string) (store.Note, error)
	ListNotes(ctx context.Context, userID int64) ([]store.Note, error)
}

// Downloader saves the Telegram file fileID to dst.
type Downloader func(c tele.Context, fileID, dst string) error

// Options configures New.
type Options struct {
	Store     Store
	States    state.Manager
	Providers providers.Set
	TempDir   string
	Download  Downloader
	Collector *metrics.Collector
	Now       func() time.Time
}

// Dispatcher owns the conversation flow of the assistant.
type Dispatcher struct {
	store     Store
	states    state.Manager
	prov      providers.Set
	tempDir   string
	download  Downloader
	collector *metrics.Collector
	now       func() time.Time
	menu      *tele.ReplyMarkup
}

// New validates opts and prepares the temp directory.
func New(opts Options) (*Dispatcher, error) {
	if opts.Store == nil {
		return nil, errors.New("dispatch: store is required")
	}
	if opts.States == nil {
		opts.States = state.NewMemoryManager()
	}
	p := opts.Providers
	if p.Summarizer == nil || p.Searcher == nil || p.Recognizer == nil || p.Solver == nil {
		return nil, errors.New("dispatch: all providers are required")
	}
	if opts.TempDir == "" {
		opts.TempDir = "temp"
	}
	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("dispatch: temp dir: %w", err)
	}
	if opts.Download == nil {
		opts.Download = DownloadWithBot
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		store:     opts.Store,
		states:    opts.States,
		prov:      p,
		tempDir:   opts.TempDir,
		download:  opts.Download,
		collector: opts.Collector,
		now:       opts.Now,
		menu:      keyboard.ReplyGrid(MenuLabels(), 2),
	}, nil
}

// DownloadWithBot fetches the file through the bot API.
func DownloadWithBot(c tele.Context, fileID, dst string) error {
	return c.Bot().Download(&tele.File{FileID: fileID}, dst)
}

// Menu returns the main reply keyboard.
func (d *Dispatcher) Menu() *tele.ReplyMarkup {
	return d.menu
}

// Register adds /start and the menu buttons to reg.
func (d *Dispatcher) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     d.Start,
		Description: "Главное меню",
		Aliases:     []string{"menu"},
	})
	for _, btn := range d.Buttons() {
		reg.RegisterButton(btn)
	}
}

// Buttons returns the menu buttons bound to their handlers.
func (d *Dispatcher) Buttons() []commands.Button {
	return []commands.Button{
		{Label: LabelSummary, Name: "summary", Handler: d.prompt(StateSummary, msgPromptSummary)},
		{Label: LabelSearch, Name: "search", Handler: d.prompt(StateSearch, msgPromptSearch)},
		{Label: LabelPhoto, Name: "photo", Handler: d.prompt(StatePhoto, msgPromptPhoto)},
		{Label: LabelNotes, Name: "notes", Handler: d.ShowNotes},
		{Label: LabelCalculator, Name: "calculator", Handler: d.prompt(StateCalculator, msgPromptCalculator)},
	}
}

// Start registers the user and shows the menu. Pending state is kept.
func (d *Dispatcher) Start(c tele.Context) (err error) {
	defer d.recoverPanic(c, &err)
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	if uerr := d.store.UpsertUser(ctx, userID, d.now()); uerr != nil {
		logger.Error(ctx, "dispatch", "user.upsert",
			slog.String("status", "fail"),
			slog.String("err", uerr.Error()),
		)
	}
	return tghelpers.SendWithKeyboard(c, msgGreeting, d.menu)
}

func (d *Dispatcher) prompt(st state.State, text string) tele.HandlerFunc {
	return func(c tele.Context) error {
		d.states.Set(c.Sender().ID, st)
		logger.Debug(tghelpers.BuildContext(c), "dispatch", "state.set",
			slog.String("status", "ok"),
			slog.String("state", string(st)),
		)
		return tghelpers.SendText(c, text)
	}
}

// fail logs an unexpected error, clears the pending action and apologizes.
func (d *Dispatcher) fail(c tele.Context, op string, err error, reply string) error {
	ctx := tghelpers.BuildContext(c)
	d.states.Clear(c.Sender().ID)
	logger.Error(ctx, "dispatch", op,
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 512)),
	)
	return tghelpers.SendText(c, reply)
}

// recoverPanic turns a panic in a handler into the generic apology. The
// pending action is cleared by fail.
func (d *Dispatcher) recoverPanic(c tele.Context, err *error) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error(tghelpers.BuildContext(c), "dispatch", "panic",
		slog.String("status", "fail"),
		slog.String("stack", string(debug.Stack())),
	)
	*err = d.fail(c, "panic", fmt.Errorf("panic: %v", r), msgUnexpected)
}

func (d *Dispatcher) noteSaved() {
	if d.collector != nil {
		d.collector.NotesSaved.Inc()
	}
}
