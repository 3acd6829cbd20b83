package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tele "gopkg.in/telebot.v4"

	"studybot/core/logger"
	tghelpers "studybot/core/telegram/helpers"
	"studybot/study/providers"
)

// OnPhoto recognizes the text on a photo, stores it as a note and tries to
// solve it. Photos are only accepted while the photo action is pending.
func (d *Dispatcher) OnPhoto(c tele.Context) (err error) {
	defer d.recoverPanic(c, &err)
	userID := c.Sender().ID
	if st, ok := d.states.Get(userID); !ok || st != StatePhoto {
		return tghelpers.SendText(c, msgChoosePhoto)
	}
	d.states.Clear(userID)

	msg := c.Message()
	if msg == nil || msg.Photo == nil || msg.Photo.FileID == "" {
		return d.fail(c, "photo.missing", errors.New("update carries no photo"), msgPhotoError)
	}
	if err := tghelpers.SendText(c, msgProgressPhoto); err != nil {
		return err
	}

	ctx := tghelpers.BuildContext(c)
	fileID := msg.Photo.FileID
	path := filepath.Join(d.tempDir, fileID+".jpg")
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn(ctx, "dispatch", "photo.cleanup",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()

	if err := d.download(c, fileID, path); err != nil {
		return d.fail(c, "photo.download", err, msgPhotoError)
	}

	text, err := d.prov.Recognizer.Recognize(ctx, path)
	if err != nil {
		return tghelpers.SendText(c, providers.Reply(err, msgPhotoError))
	}
	if err := tghelpers.SendLong(c, fmt.Sprintf(msgRecognized, text)); err != nil {
		return err
	}

	if _, err := d.store.AddNote(ctx, userID, photoTopic, text); err != nil {
		return d.fail(c, "note.save", err, msgPhotoError)
	}
	d.noteSaved()

	solution, err := d.prov.Solver.Solve(ctx, text)
	if err != nil {
		return tghelpers.SendText(c, providers.Reply(err, msgProviderError))
	}
	return tghelpers.SendLong(c, solution)
}
