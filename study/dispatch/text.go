package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	"studybot/core/telegram/format"
	tghelpers "studybot/core/telegram/helpers"
	"studybot/study/providers"
)

// OnText handles free text according to the pending action. The pending
// action is consumed before any work so it is cleared on every path.
func (d *Dispatcher) OnText(c tele.Context) (err error) {
	defer d.recoverPanic(c, &err)
	userID := c.Sender().ID
	st, ok := d.states.Consume(userID)
	if !ok {
		return tghelpers.SendText(c, msgChooseAction)
	}

	ctx := tghelpers.BuildContext(c)
	input := strings.TrimSpace(c.Text())
	logger.Debug(ctx, "dispatch", "text",
		slog.String("status", "ok"),
		slog.String("state", string(st)),
		slog.Int("runes", format.RuneLen(input)),
	)

	switch st {
	case StateSummary:
		return d.summary(ctx, c, userID, input)
	case StateSearch:
		return d.ask(ctx, c, msgProgressSearch, func(ctx context.Context) (string, error) {
			return d.prov.Searcher.Search(ctx, input)
		})
	case StateCalculator:
		return d.ask(ctx, c, msgProgressSolve, func(ctx context.Context) (string, error) {
			return d.prov.Solver.Solve(ctx, input)
		})
	case StateNotesList:
		return d.showNote(ctx, c, userID, input)
	case StatePhoto:
		// Still waiting for the picture.
		d.states.Set(userID, StatePhoto)
		return tghelpers.SendText(c, msgPromptPhoto)
	default:
		logger.Warn(ctx, "dispatch", "state.unknown",
			slog.String("status", "skip"),
			slog.String("state", string(st)),
		)
		return tghelpers.SendText(c, msgChooseAction)
	}
}

func (d *Dispatcher) summary(ctx context.Context, c tele.Context, userID int64, topic string) error {
	if err := tghelpers.SendText(c, msgProgressSummary); err != nil {
		return err
	}
	text, err := d.prov.Summarizer.Summary(ctx, topic)
	if err != nil {
		return tghelpers.SendText(c, providers.Reply(err, msgProviderError))
	}
	if _, err := d.store.AddNote(ctx, userID, topic, text); err != nil {
		return d.fail(c, "note.save", err, msgUnexpected)
	}
	d.noteSaved()
	return tghelpers.SendLong(c, text)
}

func (d *Dispatcher) ask(ctx context.Context, c tele.Context, progress string, call func(context.Context) (string, error)) error {
	if err := tghelpers.SendText(c, progress); err != nil {
		return err
	}
	text, err := call(ctx)
	if err != nil {
		return tghelpers.SendText(c, providers.Reply(err, msgProviderError))
	}
	return tghelpers.SendLong(c, text)
}

// ShowNotes lists the user's note topics and waits for an index.
func (d *Dispatcher) ShowNotes(c tele.Context) (err error) {
	defer d.recoverPanic(c, &err)
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	notes, err := d.store.ListNotes(ctx, userID)
	if err != nil {
		return d.fail(c, "notes.list", err, msgNotesLoadError)
	}
	if len(notes) == 0 {
		return tghelpers.SendText(c, msgNoNotes)
	}

	var b strings.Builder
	b.WriteString(msgNotesHeader)
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Topic)
	}
	b.WriteString(msgNotesFooter)

	d.states.Set(userID, StateNotesList)
	return tghelpers.SendLong(c, b.String())
}

// showNote replies with the note at the 1-based index. The list is read
// again so it reflects notes saved since it was shown.
func (d *Dispatcher) showNote(ctx context.Context, c tele.Context, userID int64, input string) error {
	idx, err := strconv.Atoi(input)
	if err != nil {
		return tghelpers.SendText(c, msgNotANumber)
	}
	notes, err := d.store.ListNotes(ctx, userID)
	if err != nil {
		return d.fail(c, "notes.list", err, msgNotesLoadError)
	}
	if idx < 1 || idx > len(notes) {
		return tghelpers.SendText(c, msgWrongIndex)
	}
	n := notes[idx-1]
	if format.RuneLen(n.Content) > format.MaxMessageRunes {
		return tghelpers.SendLong(c, n.Content)
	}
	return tghelpers.SendText(c, fmt.Sprintf(msgNoteFormat, n.Topic, n.Content))
}
