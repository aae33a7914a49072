package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sheet-grader/api/internal/answers"
	"sheet-grader/api/internal/grader"
	"sheet-grader/api/internal/ocr"
)

// Bot is the part of *tgbotapi.BotAPI the router needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Corrector interface {
	Correct(ctx context.Context, in grader.Input) ([]answers.Token, error)
}

type Router struct {
	Bot        Bot
	Grader     Corrector
	EngManager *ocr.Manager
	Log        *slog.Logger

	settings settingsStore
}

const usage = "Send a photo of a multiple-choice answer sheet and I will read the marked answers.\n" +
	"Caption the photo with \"<questions> [options]\" (e.g. \"20 5\") to override the chat settings.\n\n" +
	"Commands:\n" +
	"/questions N: number of questions (1-200)\n" +
	"/options K: options per question (4 or 5)\n" +
	"/engine [gemini|gpt]: model used for this chat\n" +
	"/settings: show current settings\n" +
	"/health: check the bot"

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}
	if len(msg.Photo) > 0 || isImageDocument(msg.Document) {
		r.acceptPhoto(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) != "" {
		r.send(msg.Chat.ID, "Send me a photo of the answer sheet. /start shows the commands.")
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, usage)
	case "health":
		r.send(cid, "✅ OK")
	case "settings":
		r.send(cid, r.describeSettings(cid))
	case "questions":
		r.updateSetting(cid, args, func(req *answers.Request, n int) { req.QuestionCount = n })
	case "options":
		r.updateSetting(cid, args, func(req *answers.Request, n int) { req.OptionsPerQuestion = n })
	case "engine":
		r.handleEngineCommand(cid, args)
	default:
		r.send(cid, "Unknown command. /start shows the commands.")
	}
}

func (r *Router) updateSetting(chatID int64, args []string, apply func(*answers.Request, int)) {
	if len(args) != 1 {
		r.send(chatID, "Usage: /questions N or /options K")
		return
	}
	n, err := parseInt(args[0])
	if err != nil {
		r.send(chatID, "Not a number: "+args[0])
		return
	}
	req := r.settings.Get(chatID)
	apply(&req, n)
	if err := req.Validate(); err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	r.settings.Set(chatID, req)
	r.send(chatID, "✅ "+r.describeSettings(chatID))
}

// handleEngineCommand switches the model for the chat.
//
//	/engine
//	/engine gemini
//	/engine gpt
func (r *Router) handleEngineCommand(chatID int64, args []string) {
	if len(args) == 0 {
		r.send(chatID, "Current engine: "+r.engineName(chatID)+"\nUsage: /engine {gemini|gpt}")
		return
	}
	eng, err := r.EngManager.Set(chatID, args[0])
	if err != nil {
		if errors.Is(err, ocr.ErrUnknownEngine) {
			r.send(chatID, "❌ "+err.Error())
			return
		}
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) engineName(chatID int64) string {
	if name := r.EngManager.Get(chatID); name != "" {
		return name
	}
	return "default"
}

func (r *Router) describeSettings(chatID int64) string {
	req := r.settings.Get(chatID)
	return fmt.Sprintf("Questions: %d, options per question: %d (%s), engine: %s",
		req.QuestionCount, req.OptionsPerQuestion, answers.OptionLetters(req.OptionsPerQuestion), r.engineName(chatID))
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.Log.Warn("telegram.send_failed", "chat_id", chatID, "error", err)
	}
}

func (r *Router) SendResult(chatID int64, tokens []answers.Token) {
	r.send(chatID, "📝 Answers:\n\n"+FormatAnswers(tokens))
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Error: %v", err))
}

// FormatAnswers renders one numbered line per question.
func FormatAnswers(tokens []answers.Token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte('\n')
		}
		_, _ = fmt.Fprintf(&b, "%d. %s", i+1, t)
	}
	return b.String()
}
